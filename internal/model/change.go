package model

// Severity labels how far past the alert threshold a metric moved. It
// only affects how the alert is rendered, never whether it fires.
type Severity string

const (
	SeverityNone     Severity = ""
	SeverityNotice   Severity = "notice"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Delta is a percentage change with direction tracked separately from
// magnitude. Defined is false when the baseline was zero and the new
// value was not, in which case Pct carries no meaning.
type Delta struct {
	Pct      float64 `json:"pct"`
	Defined  bool    `json:"defined"`
	Increase bool    `json:"increase"`
}

// PoolChange pairs two consecutive snapshots of a pool with the deltas
// computed between them.
type PoolChange struct {
	Prev           PoolSnapshot `json:"prev"`
	Curr           PoolSnapshot `json:"curr"`
	TVLDelta       Delta        `json:"tvl_delta"`
	TargetDelta    Delta        `json:"target_delta"`
	TVLSeverity    Severity     `json:"tvl_severity"`
	TargetSeverity Severity     `json:"target_severity"`
}

// MaxSeverity returns the higher of the two metric severities.
func (c PoolChange) MaxSeverity() Severity {
	return maxSeverity(c.TVLSeverity, c.TargetSeverity)
}

var severityRank = map[Severity]int{
	SeverityNone:     0,
	SeverityNotice:   1,
	SeverityWarning:  2,
	SeverityCritical: 3,
}

func maxSeverity(a, b Severity) Severity {
	if severityRank[a] >= severityRank[b] {
		return a
	}
	return b
}
