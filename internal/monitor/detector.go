package monitor

import (
	"math"

	"poolWatch/internal/model"
)

// ComputeDelta compares a baseline value against a new observation,
// reporting magnitude and direction separately. A zero baseline with a
// nonzero new value has no meaningful percentage and comes back
// undefined; two zeros are no change at all.
func ComputeDelta(oldValue, newValue float64) model.Delta {
	if oldValue == 0 {
		if newValue == 0 {
			return model.Delta{Defined: true}
		}
		return model.Delta{Defined: false, Increase: newValue > 0}
	}
	pct := (newValue - oldValue) / oldValue * 100
	return model.Delta{
		Pct:      math.Abs(pct),
		Defined:  true,
		Increase: pct > 0,
	}
}

// Detector decides whether the move between two consecutive snapshots
// of a pool is worth an alert.
type Detector struct {
	threshold float64
}

// NewDetector builds a detector that fires on moves whose magnitude
// reaches threshold percent.
func NewDetector(threshold float64) *Detector {
	return &Detector{threshold: threshold}
}

// Detect compares consecutive snapshots of one pool. The returned
// change always carries both deltas and their severities; fired
// reports whether either metric moved past the threshold.
func (d *Detector) Detect(prev, curr model.PoolSnapshot) (change model.PoolChange, fired bool) {
	change = model.PoolChange{
		Prev:        prev,
		Curr:        curr,
		TVLDelta:    ComputeDelta(prev.TotalTVLUSD, curr.TotalTVLUSD),
		TargetDelta: ComputeDelta(prev.TargetTokenAmount, curr.TargetTokenAmount),
	}
	change.TVLSeverity = d.SeverityFor(change.TVLDelta)
	change.TargetSeverity = d.SeverityFor(change.TargetDelta)
	return change, d.exceeds(change.TVLDelta) || d.exceeds(change.TargetDelta)
}

// SeverityFor grades a delta against the threshold. An undefined delta
// is graded critical: the pool moved off a zero baseline and the size
// of that move is unknown.
func (d *Detector) SeverityFor(delta model.Delta) model.Severity {
	if !delta.Defined {
		return model.SeverityCritical
	}
	switch ratio := delta.Pct / d.threshold; {
	case ratio >= 3:
		return model.SeverityCritical
	case ratio >= 2:
		return model.SeverityWarning
	case ratio >= 1:
		return model.SeverityNotice
	default:
		return model.SeverityNone
	}
}

func (d *Detector) exceeds(delta model.Delta) bool {
	if !delta.Defined {
		return true
	}
	return delta.Pct >= d.threshold
}
