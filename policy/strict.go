package policy

// StrictName is the configuration name of the strict policy.
const StrictName = "strict"

// StrictPolicy fails the scan on every error except unhandled records.
// It is the default.
type StrictPolicy struct {
	rec *statsRecorder
}

// NewStrict creates a strict policy.
func NewStrict() *StrictPolicy {
	return &StrictPolicy{rec: newStatsRecorder()}
}

// Decide skips unhandled records and fails on anything else.
func (p *StrictPolicy) Decide(err error) Decision {
	class := Classify(err)
	if class == ClassUnhandled {
		return p.rec.record(class, Skip)
	}
	return p.rec.record(class, Fail)
}

// Name returns "strict".
func (p *StrictPolicy) Name() string { return StrictName }

// Stats returns policy statistics.
func (p *StrictPolicy) Stats() Stats { return p.rec.snapshot() }
