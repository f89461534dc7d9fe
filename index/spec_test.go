package index_test

import (
	"errors"
	"testing"

	"github.com/justapithecus/strata/frameset"
	"github.com/justapithecus/strata/index"
	"github.com/justapithecus/strata/listest"
	"github.com/justapithecus/strata/repcode"
)

func TestParseSpec(t *testing.T) {
	payload := listest.DFSR{
		IFLRType:  1,
		Indirect:  true,
		DepthCode: repcode.I32,
		Spacing:   0.5,
		Down:      true,
		FrameSize: 16,
		Channels:  threeChannels,
	}.Payload()

	s, err := index.ParseSpec(payload)
	if err != nil {
		t.Fatalf("ParseSpec failed: %v", err)
	}

	if s.IFLRType != 1 || s.FrameSize != 16 || s.Direction != index.DirectionDown {
		t.Errorf("entries = %+v", s)
	}
	if s.Spacing != 0.5 || s.SpacingUnits != ".1IN" || s.Step() != 0.5 {
		t.Errorf("spacing = %v %q step %v", s.Spacing, s.SpacingUnits, s.Step())
	}
	if !s.HasAbsent || s.Absent != -999.25 {
		t.Errorf("absent = %v (%v)", s.Absent, s.HasAbsent)
	}
	if !s.Indirect() || s.DepthUnits != "FT" || s.DepthCode != repcode.I32 || s.IndirectSize() != 4 {
		t.Errorf("depth = mode %d units %q code %d", s.DepthMode, s.DepthUnits, s.DepthCode)
	}

	if len(s.Channels) != 3 {
		t.Fatalf("got %d channels, want 3", len(s.Channels))
	}
	res := s.Channels[2]
	if res.Mnemonic != "RES" || res.Units != "OHMM" || res.Size != 8 || res.Samples != 2 || res.Code != repcode.F32 {
		t.Errorf("channel 2 = %+v", res)
	}
	if res.ServiceID != "TOOL" || res.ServiceOrder != "12345678" || res.FileNumber != 1 {
		t.Errorf("channel 2 service fields = %+v", res)
	}
	if got := s.Mnemonics(); len(got) != 3 || got[0] != "DEPT" || got[1] != "GR" {
		t.Errorf("Mnemonics = %v", got)
	}

	plan, err := s.Plan()
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if plan.FrameSize() != 16 || plan.Indirect() != 4 || plan.NumChannels() != 3 {
		t.Errorf("plan = %v", plan)
	}
}

func TestParseSpec_Defaults(t *testing.T) {
	s, err := index.ParseSpec(listest.DFSR{Channels: threeChannels[:1]}.Payload())
	if err != nil {
		t.Fatalf("ParseSpec failed: %v", err)
	}
	if s.Indirect() || s.IndirectSize() != 0 || s.DepthCode != repcode.F32 {
		t.Errorf("depth defaults = %+v", s)
	}
	if s.Step() != 0 {
		t.Errorf("Step = %v, want 0", s.Step())
	}
}

func TestParseSpec_Errors(t *testing.T) {
	valid := listest.DFSR{Channels: threeChannels}.Payload()
	terminator := len(valid) - 3*40

	tests := []struct {
		name    string
		payload []byte
	}{
		{"empty", nil},
		{"unterminated", valid[:terminator-3]},
		{"entry overruns", []byte{1, 9, 66, 0}},
		{"no channels", valid[:terminator]},
		{"partial datum spec block", valid[:len(valid)-1]},
		{"non-numeric depth code", []byte{15, 1, 66, 65, 0, 0, 66}},
		{"undecodable entry", []byte{1, 1, 65, 0, 0, 0, 66}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := index.ParseSpec(tt.payload)
			var specErr *index.SpecError
			if !errors.As(err, &specErr) {
				t.Fatalf("err = %v, want *SpecError", err)
			}
			if !errors.Is(err, frameset.ErrArithmetic) {
				t.Error("SpecError does not classify as arithmetic")
			}
		})
	}
}

func TestSpec_PlanFrameSizeMismatch(t *testing.T) {
	s, err := index.ParseSpec(listest.DFSR{FrameSize: 12, Channels: threeChannels}.Payload())
	if err != nil {
		t.Fatalf("ParseSpec failed: %v", err)
	}
	if _, err := s.Plan(); !errors.Is(err, frameset.ErrArithmetic) {
		t.Errorf("Plan err = %v, want ErrArithmetic", err)
	}
}
