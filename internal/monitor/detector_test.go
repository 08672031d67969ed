package monitor

import (
	"reflect"
	"testing"

	"poolWatch/internal/model"
)

func baselineSnap(tvl, targetAmount float64) model.PoolSnapshot {
	return model.PoolSnapshot{
		PoolAddress:       "0xpool",
		PoolName:          "Monsterra MCH/WBNB",
		TotalTVLUSD:       tvl,
		TargetToken:       "MCH",
		TargetTokenAmount: targetAmount,
	}
}

func TestComputeDelta(t *testing.T) {
	tests := []struct {
		name     string
		oldValue float64
		newValue float64
		want     model.Delta
	}{
		{"drop", 200, 150, model.Delta{Pct: 25, Defined: true, Increase: false}},
		{"rise", 100, 125, model.Delta{Pct: 25, Defined: true, Increase: true}},
		{"drained", 100, 0, model.Delta{Pct: 100, Defined: true, Increase: false}},
		{"both zero", 0, 0, model.Delta{Pct: 0, Defined: true, Increase: false}},
		{"zero baseline", 0, 5, model.Delta{Pct: 0, Defined: false, Increase: true}},
	}
	for _, tt := range tests {
		if got := ComputeDelta(tt.oldValue, tt.newValue); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: ComputeDelta(%v, %v) = %+v, want %+v",
				tt.name, tt.oldValue, tt.newValue, got, tt.want)
		}
	}
}

func TestDetectFiresPastThreshold(t *testing.T) {
	det := NewDetector(5.0)

	if _, fired := det.Detect(baselineSnap(1000, 100), baselineSnap(1051, 100)); !fired {
		t.Fatalf("5.1%% move must fire at threshold 5")
	}
	if _, fired := det.Detect(baselineSnap(1000, 100), baselineSnap(1040, 100)); fired {
		t.Fatalf("4%% move must not fire at threshold 5")
	}
}

func TestDetectExactThresholdFires(t *testing.T) {
	det := NewDetector(25.0)

	// 200 to 150 is exactly a 25% move; the comparison is inclusive.
	change, fired := det.Detect(baselineSnap(200, 100), baselineSnap(150, 100))
	if !fired {
		t.Fatalf("move exactly at the threshold must fire")
	}
	if change.TVLSeverity != model.SeverityNotice {
		t.Fatalf("TVLSeverity = %q, want notice", change.TVLSeverity)
	}

	// Just under stays quiet: 200 to 150.5 is 24.75%.
	if _, fired := det.Detect(baselineSnap(200, 100), baselineSnap(150.5, 100)); fired {
		t.Fatalf("move under the threshold must not fire")
	}
}

func TestDetectTargetMetricAlone(t *testing.T) {
	det := NewDetector(5.0)

	change, fired := det.Detect(baselineSnap(1000, 100), baselineSnap(1000, 80))
	if !fired {
		t.Fatalf("20%% target move must fire")
	}
	if change.TVLSeverity != model.SeverityNone {
		t.Fatalf("tvl severity = %q, want none for a flat tvl", change.TVLSeverity)
	}
	if change.TargetSeverity != model.SeverityCritical {
		t.Fatalf("target severity = %q, want critical for a 4x-threshold move", change.TargetSeverity)
	}
	if change.MaxSeverity() != model.SeverityCritical {
		t.Fatalf("max severity = %q, want critical", change.MaxSeverity())
	}
}

func TestDetectZeroBaselines(t *testing.T) {
	det := NewDetector(5.0)

	// Two zero observations are no change at all.
	if _, fired := det.Detect(baselineSnap(0, 0), baselineSnap(0, 0)); fired {
		t.Fatalf("zero to zero must not fire")
	}

	// Zero to nonzero has no percentage but is always worth an alert.
	change, fired := det.Detect(baselineSnap(0, 0), baselineSnap(500, 50))
	if !fired {
		t.Fatalf("zero to nonzero must fire")
	}
	if change.TVLDelta.Defined {
		t.Fatalf("delta off a zero baseline must be undefined")
	}
	if change.TVLSeverity != model.SeverityCritical {
		t.Fatalf("severity = %q, want critical for an undefined delta", change.TVLSeverity)
	}
}

func TestSeverityTiers(t *testing.T) {
	det := NewDetector(5.0)

	tests := []struct {
		delta model.Delta
		want  model.Severity
	}{
		{model.Delta{Pct: 4.9, Defined: true}, model.SeverityNone},
		{model.Delta{Pct: 6, Defined: true}, model.SeverityNotice},
		{model.Delta{Pct: 10, Defined: true}, model.SeverityWarning},
		{model.Delta{Pct: 14.9, Defined: true}, model.SeverityWarning},
		{model.Delta{Pct: 15, Defined: true}, model.SeverityCritical},
		{model.Delta{Pct: 80, Defined: true}, model.SeverityCritical},
		{model.Delta{Defined: false}, model.SeverityCritical},
	}
	for _, tt := range tests {
		if got := det.SeverityFor(tt.delta); got != tt.want {
			t.Errorf("SeverityFor(%+v) = %q, want %q", tt.delta, got, tt.want)
		}
	}
}
