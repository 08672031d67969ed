package monitor

import (
	"fmt"
	"math"
	"strings"

	"poolWatch/internal/model"
)

// Builder renders a detected pool change into the alert message body.
type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

// Build renders one alert. Both metrics always appear so the reader
// sees the full picture even when only one of them fired. Undefined
// deltas render as "n/a", which keeps a pool coming off a zero
// baseline visibly different from a 100% move.
func (b *Builder) Build(change model.PoolChange) string {
	prev, curr := change.Prev, change.Curr
	severity := change.MaxSeverity()

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s TVL ALERT [%s]: %s\n", severityEmoji(severity), severity, curr.PoolName)
	fmt.Fprintf(&sb, "Pool: %s\n\n", curr.PoolAddress)
	fmt.Fprintf(&sb, "TVL: $%s → $%s (%s)\n",
		formatNum(prev.TotalTVLUSD), formatNum(curr.TotalTVLUSD), formatDelta(change.TVLDelta))
	fmt.Fprintf(&sb, "%s amount: %s → %s (%s)\n\n",
		curr.TargetToken,
		formatNum(prev.TargetTokenAmount), formatNum(curr.TargetTokenAmount), formatDelta(change.TargetDelta))
	writeLegLine(&sb, prev.Token0, curr.Token0)
	writeLegLine(&sb, prev.Token1, curr.Token1)
	fmt.Fprintf(&sb, "\n%s price: $%s\n", curr.TargetToken, formatNum(curr.TargetTokenPrice))
	fmt.Fprintf(&sb, "Observed: %s", curr.TakenAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	return sb.String()
}

// writeLegLine renders one side of the pool: amount movement first,
// USD value movement second, each with its own percentage.
func writeLegLine(sb *strings.Builder, prev, curr model.TokenLeg) {
	fmt.Fprintf(sb, "%s: %s → %s (%s) | $%s → $%s (%s)\n",
		curr.Symbol,
		formatNum(prev.Amount), formatNum(curr.Amount),
		formatDelta(ComputeDelta(prev.Amount, curr.Amount)),
		formatNum(prev.ValueUSD), formatNum(curr.ValueUSD),
		formatDelta(ComputeDelta(prev.ValueUSD, curr.ValueUSD)))
}

func severityEmoji(s model.Severity) string {
	switch s {
	case model.SeverityCritical:
		return "🚨"
	case model.SeverityWarning:
		return "⚠️"
	default:
		return "🔔"
	}
}

func formatDelta(d model.Delta) string {
	arrow := "↓"
	if d.Increase {
		arrow = "↑"
	}
	if !d.Defined {
		return arrow + " n/a"
	}
	return fmt.Sprintf("%s %.2f%%", arrow, d.Pct)
}

func formatNum(v float64) string {
	if v >= 1_000_000 {
		return fmt.Sprintf("%.2fM", v/1_000_000)
	}
	if v >= 1_000 {
		return addCommas(fmt.Sprintf("%.2f", math.Round(v*100)/100))
	}
	return fmt.Sprintf("%.4f", v)
}

func addCommas(s string) string {
	parts := strings.SplitN(s, ".", 2)
	intPart := parts[0]
	n := len(intPart)
	if n <= 3 {
		return s
	}
	var out []byte
	for i := 0; i < n; i++ {
		if i > 0 && (n-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, intPart[i])
	}
	if len(parts) == 2 {
		return string(out) + "." + parts[1]
	}
	return string(out)
}
