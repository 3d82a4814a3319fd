package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/spec-kit/shopfloor-issues/internal/domain"
)

// Narrative thresholds.
const (
	resolutionWarnHours     = 48.0
	resolutionModerateHours = 24.0
	concentrationPercent    = 40.0
	escalationHighRate      = 30.0
	escalationModerateRate  = 15.0
)

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Percentage returns count/total as a percentage rounded to two decimals; zero when
// total is zero.
func Percentage(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*10000) / 100
}

// ResolutionTimesReport rounds the latency figures and writes the summary.
// Thresholds apply to the unrounded average.
func ResolutionTimesReport(stats domain.ResolutionStats) (domain.ResolutionStats, string) {
	avg := stats.AvgHours
	stats.AvgHours = Round2(stats.AvgHours)
	stats.MinHours = Round2(stats.MinHours)
	stats.MaxHours = Round2(stats.MaxHours)

	if stats.TotalResolved == 0 {
		return stats, "No issues were resolved in the selected period."
	}

	summary := fmt.Sprintf("%d issues resolved with an average resolution time of %.2f hours (fastest %.2f hours, slowest %.2f hours). ",
		stats.TotalResolved, stats.AvgHours, stats.MinHours, stats.MaxHours)
	switch {
	case avg > resolutionWarnHours:
		summary += "Average resolution time exceeds 48 hours; process improvement is needed to shorten the response cycle."
	case avg > resolutionModerateHours:
		summary += "Average resolution time is moderate (24 to 48 hours); watch for issues that stall between tiers."
	default:
		summary += "Average resolution time is acceptable (within 24 hours)."
	}
	return stats, summary
}

// CategoryBreakdownReport orders categories by count and attaches their shares.
func CategoryBreakdownReport(counts []domain.CategoryCount) (domain.CategoryBreakdown, string) {
	sorted := make([]domain.CategoryCount, len(counts))
	copy(sorted, counts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Count != sorted[j].Count {
			return sorted[i].Count > sorted[j].Count
		}
		return sorted[i].CategoryName < sorted[j].CategoryName
	})

	total := 0
	for _, c := range sorted {
		total += c.Count
	}

	breakdown := domain.CategoryBreakdown{
		TotalIssues: total,
		Categories:  make([]domain.CategoryShare, 0, len(sorted)),
	}
	for _, c := range sorted {
		breakdown.Categories = append(breakdown.Categories, domain.CategoryShare{
			CategoryCount: c,
			Percentage:    Percentage(c.Count, total),
		})
	}

	if total == 0 {
		return breakdown, "No issues were reported in the selected period."
	}

	top := breakdown.Categories[0]
	summary := fmt.Sprintf("%d issues across %d categories. %q is the most frequent category with %d issues (%.2f%%). ",
		total, len(breakdown.Categories), top.CategoryName, top.Count, top.Percentage)
	if top.Percentage > concentrationPercent {
		summary += "Issues are concentrated in this category; focus improvement efforts there first."
	} else {
		summary += "Issues show a balanced distribution across categories."
	}
	return breakdown, summary
}

// EscalationAnalysisReport computes the escalation rate and orders transitions by
// frequency.
func EscalationAnalysisReport(totalEscalations, totalIssues int, transitions []domain.TransitionCount) (domain.EscalationAnalysis, string) {
	sorted := make([]domain.TransitionCount, len(transitions))
	copy(sorted, transitions)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.FromLevel != b.FromLevel {
			return a.FromLevel < b.FromLevel
		}
		return a.ToLevel < b.ToLevel
	})

	analysis := domain.EscalationAnalysis{
		TotalEscalations: totalEscalations,
		TotalIssues:      totalIssues,
		EscalationRate:   Percentage(totalEscalations, totalIssues),
		Transitions:      sorted,
	}

	summary := fmt.Sprintf("%d escalations against %d issues (escalation rate %.2f%%). ",
		totalEscalations, totalIssues, analysis.EscalationRate)
	if len(sorted) > 0 {
		summary += fmt.Sprintf("Most common path is level %d to level %d (%d times). ",
			sorted[0].FromLevel, sorted[0].ToLevel, sorted[0].Count)
	}
	switch {
	case analysis.EscalationRate > escalationHighRate:
		summary += "Escalation rate is high; review level 1 problem-solving capability and authority."
	case analysis.EscalationRate > escalationModerateRate:
		summary += "Escalation rate is moderate; look for recurring patterns in escalated issues."
	default:
		summary += "Escalation rate is healthy."
	}
	return analysis, summary
}
