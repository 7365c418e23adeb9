package signals

import (
	"testing"

	"github.com/matthewbaird/signify/internal/types"
)

func signalsWith(keys ...types.SignalKey) types.SignalSet {
	var s types.SignalSet
	for _, k := range keys {
		s.Toggle(k)
	}
	return s
}

func TestClassifySignalCount_Thresholds(t *testing.T) {
	tests := []struct {
		count int
		want  types.RiskCategory
	}{
		{0, types.RiskGreen},
		{1, types.RiskAmber},
		{2, types.RiskAmber},
		{3, types.RiskRed},
		{4, types.RiskRed},
		{7, types.RiskRed},
	}
	for _, tt := range tests {
		if got := ClassifySignalCount(tt.count); got != tt.want {
			t.Errorf("ClassifySignalCount(%d) = %q, want %q", tt.count, got, tt.want)
		}
	}
}

func TestClassifyBySignals_Monotonic(t *testing.T) {
	// Setting signals one at a time must never lower the category.
	var s types.SignalSet
	prev := ClassifyBySignals(s)
	if prev != types.RiskGreen {
		t.Fatalf("empty set = %q, want green", prev)
	}
	for _, k := range types.SignalKeys {
		s.Toggle(k)
		got := ClassifyBySignals(s)
		if got.Less(prev) {
			t.Errorf("after setting %s category dropped from %q to %q", k, prev, got)
		}
		prev = got
	}
	if prev != types.RiskRed {
		t.Errorf("all signals set = %q, want red", prev)
	}
}

func TestClassifyBySignals_ToggleReclassifiesImmediately(t *testing.T) {
	s := signalsWith(types.SignalCareStatus, types.SignalYouthJustice)
	if got := ClassifyBySignals(s); got != types.RiskAmber {
		t.Fatalf("two signals = %q, want amber", got)
	}
	s.Toggle(types.SignalEducationStatus)
	if got := ClassifyBySignals(s); got != types.RiskRed {
		t.Errorf("three signals = %q, want red", got)
	}
	s.Toggle(types.SignalEducationStatus)
	if got := ClassifyBySignals(s); got != types.RiskAmber {
		t.Errorf("toggled back = %q, want amber", got)
	}
}

func TestClassifyBySignals_ClearIsGreen(t *testing.T) {
	s := signalsWith(types.SignalKeys...)
	s.Clear()
	if got := ClassifyBySignals(s); got != types.RiskGreen {
		t.Errorf("cleared set = %q, want green", got)
	}
}

func TestClassifyBySignals_UnknownToggleIsNoop(t *testing.T) {
	s := signalsWith(types.SignalCareStatus)
	if s.Toggle("not_a_signal") {
		t.Error("expected toggle of unknown key to report false")
	}
	if got := ClassifyBySignals(s); got != types.RiskAmber {
		t.Errorf("category = %q, want amber", got)
	}
}

func TestClassifyByCumulativeImpact_Thresholds(t *testing.T) {
	tests := []struct {
		cumulative int
		want       types.RiskCategory
	}{
		{-1000, types.RiskGreen},
		{-5, types.RiskGreen},
		{0, types.RiskGreen},
		{1, types.RiskAmber},
		{2, types.RiskAmber},
		{3, types.RiskRed},
		{10, types.RiskRed},
		{1 << 30, types.RiskRed},
	}
	for _, tt := range tests {
		if got := ClassifyByCumulativeImpact(tt.cumulative); got != tt.want {
			t.Errorf("ClassifyByCumulativeImpact(%d) = %q, want %q", tt.cumulative, got, tt.want)
		}
	}
}

func TestClassifyByCumulativeImpact_Monotonic(t *testing.T) {
	prev := ClassifyByCumulativeImpact(-20)
	for c := -19; c <= 20; c++ {
		got := ClassifyByCumulativeImpact(c)
		if got.Less(prev) {
			t.Errorf("category dropped at %d: %q -> %q", c, prev, got)
		}
		prev = got
	}
}
