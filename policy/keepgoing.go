package policy

// KeepGoingName is the configuration name of the keep-going policy.
const KeepGoingName = "keep_going"

// KeepGoingPolicy drops records that fail frame-set arithmetic instead of
// failing the scan. It never fabricates data: the dropped record is absent
// from the index. Framing errors remain fatal, since the record boundaries
// after them cannot be trusted.
type KeepGoingPolicy struct {
	rec *statsRecorder
}

// NewKeepGoing creates a keep-going policy.
func NewKeepGoing() *KeepGoingPolicy {
	return &KeepGoingPolicy{rec: newStatsRecorder()}
}

// Decide skips unhandled records and arithmetic errors and fails on
// anything else.
func (p *KeepGoingPolicy) Decide(err error) Decision {
	switch class := Classify(err); class {
	case ClassUnhandled, ClassArithmetic:
		return p.rec.record(class, Skip)
	default:
		return p.rec.record(class, Fail)
	}
}

// Name returns "keep_going".
func (p *KeepGoingPolicy) Name() string { return KeepGoingName }

// Stats returns policy statistics.
func (p *KeepGoingPolicy) Stats() Stats { return p.rec.snapshot() }
