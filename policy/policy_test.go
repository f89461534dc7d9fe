package policy_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/justapithecus/strata/frameset"
	"github.com/justapithecus/strata/framing"
	"github.com/justapithecus/strata/policy"
)

var (
	errUnhandled  = fmt.Errorf("type 140 at 512: %w", policy.ErrUnhandled)
	errArithmetic = &frameset.NonIntegralFrameCountError{Length: 17, FrameSize: 16, Data: 17, Remainder: 1}
	errFraming    = &framing.Error{Kind: framing.ErrorSuccessor, Tell: 64, Msg: "bad bits"}
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want policy.Class
	}{
		{errUnhandled, policy.ClassUnhandled},
		{errArithmetic, policy.ClassArithmetic},
		{fmt.Errorf("record at 10: %w", errArithmetic), policy.ClassArithmetic},
		{errFraming, policy.ClassOther},
		{errors.New("boom"), policy.ClassOther},
	}
	for _, tt := range tests {
		if got := policy.Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestStrictPolicy_Decide(t *testing.T) {
	pol := policy.NewStrict()

	if d := pol.Decide(errUnhandled); d != policy.Skip {
		t.Errorf("unhandled: %s, want skip", d)
	}
	if d := pol.Decide(errArithmetic); d != policy.Fail {
		t.Errorf("arithmetic: %s, want fail", d)
	}
	if d := pol.Decide(errFraming); d != policy.Fail {
		t.Errorf("framing: %s, want fail", d)
	}

	stats := pol.Stats()
	if stats.RecordsSkipped != 1 || stats.FatalErrors != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.SkippedByClass[policy.ClassUnhandled] != 1 {
		t.Errorf("SkippedByClass = %v", stats.SkippedByClass)
	}
	if stats.Summary() != "1 records skipped, 2 fatal errors" {
		t.Errorf("Summary() = %q", stats.Summary())
	}
}

func TestKeepGoingPolicy_Decide(t *testing.T) {
	pol := policy.NewKeepGoing()

	if d := pol.Decide(errUnhandled); d != policy.Skip {
		t.Errorf("unhandled: %s, want skip", d)
	}
	if d := pol.Decide(errArithmetic); d != policy.Skip {
		t.Errorf("arithmetic: %s, want skip", d)
	}
	if d := pol.Decide(errFraming); d != policy.Fail {
		t.Errorf("framing: %s, want fail", d)
	}

	stats := pol.Stats()
	if stats.RecordsSkipped != 2 || stats.FatalErrors != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.SkippedByClass[policy.ClassArithmetic] != 1 {
		t.Errorf("SkippedByClass = %v", stats.SkippedByClass)
	}
}

func TestStats_SnapshotIsCopy(t *testing.T) {
	pol := policy.NewKeepGoing()
	pol.Decide(errArithmetic)

	s := pol.Stats()
	s.SkippedByClass[policy.ClassArithmetic] = 99
	if pol.Stats().SkippedByClass[policy.ClassArithmetic] != 1 {
		t.Error("mutating a snapshot changed the policy stats")
	}
}

// TestStats_ConcurrentDecide verifies Decide and Stats are safe under
// concurrent use. Run with -race.
func TestStats_ConcurrentDecide(t *testing.T) {
	pol := policy.NewKeepGoing()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				pol.Decide(errArithmetic)
				_ = pol.Stats()
			}
		}()
	}
	wg.Wait()

	if got := pol.Stats().RecordsSkipped; got != 400 {
		t.Errorf("RecordsSkipped = %d, want 400", got)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"", policy.StrictName},
		{"strict", policy.StrictName},
		{"keep_going", policy.KeepGoingName},
	}
	for _, tt := range tests {
		pol, err := policy.New(tt.name)
		if err != nil {
			t.Fatalf("New(%q) failed: %v", tt.name, err)
		}
		if pol.Name() != tt.want {
			t.Errorf("New(%q).Name() = %q, want %q", tt.name, pol.Name(), tt.want)
		}
	}
	if _, err := policy.New("lenient"); err == nil {
		t.Error("New(lenient) expected error")
	}
}
