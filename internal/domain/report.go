package domain

import "time"

// ReportType selects a report aggregation.
type ReportType string

const (
	ReportResolutionTimes    ReportType = "resolution-times"
	ReportCategoryBreakdown  ReportType = "category-breakdown"
	ReportEscalationAnalysis ReportType = "escalation-analysis"
)

// ReportTypes lists the supported report kinds in display order.
var ReportTypes = []ReportType{ReportResolutionTimes, ReportCategoryBreakdown, ReportEscalationAnalysis}

// Valid reports whether t is a supported report type.
func (t ReportType) Valid() bool {
	for _, known := range ReportTypes {
		if t == known {
			return true
		}
	}
	return false
}

// DateRange holds optional inclusive bounds.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// Report is a generated narrative report.
type Report struct {
	Type        ReportType `json:"report_type"`
	GeneratedAt time.Time  `json:"generated_at"`
	FromDate    *time.Time `json:"from_date"`
	ToDate      *time.Time `json:"to_date"`
	Summary     string     `json:"summary"`
	Data        any        `json:"data"`
}

// ResolutionStats aggregates resolution latency in hours.
type ResolutionStats struct {
	TotalResolved int     `json:"total_resolved"`
	AvgHours      float64 `json:"avg_resolution_hours"`
	MinHours      float64 `json:"min_resolution_hours"`
	MaxHours      float64 `json:"max_resolution_hours"`
}

// CategoryCount is a raw per-category issue count.
type CategoryCount struct {
	CategoryID   *string `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Count        int     `json:"count"`
}

// CategoryShare is a category count with its share of the total.
type CategoryShare struct {
	CategoryCount
	Percentage float64 `json:"percentage"`
}

// CategoryBreakdown is the data block of a category-breakdown report.
type CategoryBreakdown struct {
	TotalIssues int             `json:"total_issues"`
	Categories  []CategoryShare `json:"categories"`
}

// TransitionCount counts escalations for one level pair.
type TransitionCount struct {
	FromLevel int `json:"from_level"`
	ToLevel   int `json:"to_level"`
	Count     int `json:"count"`
}

// EscalationAnalysis is the data block of an escalation-analysis report.
type EscalationAnalysis struct {
	TotalEscalations int               `json:"total_escalations"`
	TotalIssues      int               `json:"total_issues"`
	EscalationRate   float64           `json:"escalation_rate"`
	Transitions      []TransitionCount `json:"transitions"`
}
