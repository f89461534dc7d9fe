package index

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap/zapcore"

	"github.com/justapithecus/strata/framing"
	"github.com/justapithecus/strata/log"
	"github.com/justapithecus/strata/metrics"
	"github.com/justapithecus/strata/policy"
	"github.com/justapithecus/strata/types"
)

// Options configures a scan.
type Options struct {
	// Framing configures the physical record layer.
	Framing framing.Options
	// XAxisChannel selects the X-axis channel of every log pass. -1 uses the
	// indirect X axis when present and channel 0 otherwise.
	XAxisChannel int
	// Policy decides which errors drop a record. Nil means strict.
	Policy policy.Policy
	// Metrics receives scan counters. May be nil.
	Metrics *metrics.Collector
}

// DefaultOptions returns the options of a strict scan of a plain file.
func DefaultOptions() Options {
	return Options{XAxisChannel: -1}
}

// builder is the state of one scan.
type builder struct {
	r       *framing.Reader
	path    string
	opts    Options
	policy  policy.Policy
	metrics *metrics.Collector
	logger  *log.Logger

	// open holds the log pass bound to data record types 0 and 1.
	open     [2]*LogPass
	entries  []Entry
	warnings []framing.Warning
}

// Build scans a LIS stream from its current offset to end of file and
// returns the index of its logical records. path is recorded on every entry.
//
// Framing errors are always fatal. Frame-set arithmetic errors are fatal
// unless the policy skips them, in which case the offending record is
// dropped. Records of unhandled types are indexed as Passthrough entries.
// Cancellation is checked between logical records.
func Build(ctx context.Context, rs io.ReadSeeker, path string, opts Options, logger *log.Logger) (*Index, error) {
	if logger == nil {
		logger = log.NewNop()
	}
	pol := opts.Policy
	if pol == nil {
		pol = policy.NewStrict()
	}
	m := opts.Metrics
	m.IncScanStarted()

	r, err := framing.NewReader(rs, opts.Framing)
	if err != nil {
		m.IncScanFailed()
		return nil, err
	}

	b := &builder{
		r:       r,
		path:    path,
		opts:    opts,
		policy:  pol,
		metrics: m,
		logger:  logger,
	}
	err = b.run(ctx)

	stats := pol.Stats()
	byClass := make(map[string]int64, len(stats.SkippedByClass))
	for k, v := range stats.SkippedByClass {
		byClass[string(k)] = v
	}
	m.AbsorbPolicyStats(stats.RecordsSkipped, stats.FatalErrors, byClass)

	switch {
	case err == nil:
		m.IncScanCompleted()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		m.IncScanCanceled()
	default:
		m.IncScanFailed()
	}
	if err != nil {
		return nil, err
	}

	logger.Info("scan completed", map[string]any{
		"records":          len(b.entries),
		"log_passes":       countLogPasses(b.entries),
		"framing_warnings": len(b.warnings),
		"policy":           pol.Name(),
		"skipped":          stats.RecordsSkipped,
	})
	return New(path, opts.Framing, b.entries, b.warnings), nil
}

func (b *builder) run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		h, err := b.r.Next()
		b.drainWarnings()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return b.fatal(nil, err)
		}

		rt := types.RecordType(h.Type)
		b.metrics.IncRecord(rt.Class().String())

		if err := b.classify(h, rt); err != nil {
			if b.policy.Decide(err) == policy.Skip {
				b.logger.Record(zapcore.WarnLevel, "record skipped", h, map[string]any{
					"error": err.Error(),
					"class": string(policy.Classify(err)),
				})
				continue
			}
			return b.fatal(&h, err)
		}
		b.drainWarnings()
	}
}

// classify handles one logical record. The switch is exhaustive over the
// record classes.
func (b *builder) classify(h framing.Header, rt types.RecordType) error {
	rec := Record{Offset: h.Tell, RecordType: rt, Path: b.path}

	switch rt.Class() {
	case types.ClassData:
		return b.data(h, rt)

	case types.ClassDescriptor:
		return b.descriptor(rec)

	case types.ClassDelimiter:
		b.open = [2]*LogPass{}
		d := &Delimiter{Record: rec}
		if rt.IsHeader() {
			payload, err := b.r.ReadRest()
			if err != nil {
				return err
			}
			parseDelimiter(d, rt, payload)
		}
		b.entries = append(b.entries, d)
		return nil

	case types.ClassTable:
		head, err := b.r.Read(componentHeaderSize)
		if err != nil && !errors.Is(err, framing.ErrRecordEnd) {
			return err
		}
		if len(head) == componentHeaderSize {
			value, err := b.r.Read(int(head[2]))
			if err != nil && !errors.Is(err, framing.ErrRecordEnd) {
				return err
			}
			head = append(head, value...)
		}
		if _, err := b.r.SkipToNext(); err != nil {
			return err
		}
		b.entries = append(b.entries, &Table{Record: rec, Name: tableName(head), Length: b.r.Consumed()})
		return nil

	case types.ClassOpaque:
		if _, err := b.r.SkipToNext(); err != nil {
			return err
		}
		b.entries = append(b.entries, &Unknown{Record: rec, Length: b.r.Consumed()})
		return nil

	case types.ClassUnhandled:
		if _, err := b.r.SkipToNext(); err != nil {
			return err
		}
		b.entries = append(b.entries, &Passthrough{Record: rec, Length: b.r.Consumed()})
		return fmt.Errorf("record type %d at %d: %w", rt, h.Tell, policy.ErrUnhandled)

	default:
		return fmt.Errorf("record type %d at %d: unknown class %s", rt, h.Tell, rt.Class())
	}
}

// descriptor opens a log pass and binds it to its data record type,
// replacing any pass bound before.
func (b *builder) descriptor(rec Record) error {
	payload, err := b.r.ReadRest()
	if err != nil {
		return err
	}

	spec, err := ParseSpec(payload)
	if err != nil {
		b.unbind(payload)
		return fmt.Errorf("descriptor at %d: %w", rec.Offset, err)
	}
	p, err := NewLogPass(rec, spec, b.opts.XAxisChannel)
	if err != nil {
		b.unbind(payload)
		return fmt.Errorf("descriptor at %d: %w", rec.Offset, err)
	}

	b.open[spec.IFLRType] = p
	b.entries = append(b.entries, p)
	b.metrics.IncLogPass()
	b.logger.Record(zapcore.DebugLevel, "log pass opened", rec, map[string]any{
		"channels":   len(spec.Channels),
		"frame_size": p.Plan().FrameSize(),
		"iflr_type":  spec.IFLRType,
	})
	return nil
}

// unbind clears the slot a rejected descriptor would have bound, so that its
// data records are not attributed to an earlier pass. Both slots are cleared
// when the declared type cannot be read.
func (b *builder) unbind(payload []byte) {
	t, ok := declaredType(payload)
	switch {
	case !ok:
		b.open = [2]*LogPass{}
	case int(t) < len(b.open):
		b.open[t] = nil
	}
}

// declaredType finds entry 1 of a possibly malformed descriptor.
func declaredType(b []byte) (uint8, bool) {
	for off := 0; off+3 <= len(b); {
		typ, size := b[off], int(b[off+1])
		if typ == entryTerminator || off+3+size > len(b) {
			return 0, false
		}
		if typ == entryIFLRType && size == 1 {
			return b[off+3], true
		}
		off += 3 + size
	}
	return 0, false
}

func (b *builder) data(h framing.Header, rt types.RecordType) error {
	p := b.open[rt]
	if p == nil {
		return nil
	}
	n, truncated, err := p.accumulate(b.r, h.Tell, b.opts.Framing.BestEffort)
	if err != nil {
		return err
	}
	if truncated {
		b.logger.Record(zapcore.WarnLevel, "truncated data record", h, map[string]any{
			"frames": n,
		})
	}
	if n > 0 {
		b.metrics.AddFrames(int(n))
	}
	return nil
}

func (b *builder) drainWarnings() {
	ws := b.r.Warnings()
	if len(ws) == 0 {
		return
	}
	b.metrics.AddFramingWarnings(len(ws))
	for _, w := range ws {
		b.logger.Warn("framing irregularity absorbed", map[string]any{
			"kind":  w.Kind.String(),
			"tell":  w.Tell,
			"bytes": w.Bytes,
		})
	}
	b.warnings = append(b.warnings, ws...)
}

// fatal records and logs an error that ends the scan. Framing errors bypass
// the policy's skip path but are still counted.
func (b *builder) fatal(h *framing.Header, err error) error {
	if h == nil {
		b.policy.Decide(err)
		b.logger.Error("scan failed", map[string]any{
			"error":  err.Error(),
			"offset": b.r.Offset(),
		})
		return err
	}
	b.logger.Record(zapcore.ErrorLevel, "scan failed", *h, map[string]any{
		"error": err.Error(),
		"class": string(policy.Classify(err)),
	})
	return err
}

func countLogPasses(entries []Entry) int {
	n := 0
	for _, e := range entries {
		if _, ok := e.(*LogPass); ok {
			n++
		}
	}
	return n
}
