package analytics

import (
	"strings"

	"github.com/spec-kit/shopfloor-issues/internal/domain"
)

// SuggestionRule maps any of its keywords to a remediation suggestion.
type SuggestionRule struct {
	Name       string
	Keywords   []string
	Suggestion string
	// MinLevel is the lowest tier the suggestion recommends handling at.
	MinLevel int
}

func (r SuggestionRule) matches(text string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Suggestion is the classifier output attached to a new issue.
type Suggestion struct {
	Rule           string
	Reason         string
	SuggestedLevel int
	Confidence     float64
}

const fallbackSuggestion = "Review the issue details with the area team and assign an owner for root-cause analysis."

// DefaultSuggestionRules is evaluated in order; the first match wins.
var DefaultSuggestionRules = []SuggestionRule{
	{
		Name:       "equipment",
		Keywords:   []string{"machine", "equipment", "breakdown"},
		Suggestion: "Equipment issue detected. Contact maintenance to inspect the machine and check the preventive maintenance schedule.",
		MinLevel:   2,
	},
	{
		Name:       "quality",
		Keywords:   []string{"quality", "defect", "reject"},
		Suggestion: "Quality issue detected. Quarantine affected parts and involve quality control to verify the process parameters.",
		MinLevel:   2,
	},
	{
		Name:       "safety",
		Keywords:   []string{"safety", "hazard", "accident", "injury"},
		Suggestion: "Safety concern detected. Secure the area immediately and notify the safety officer before work resumes.",
		MinLevel:   3,
	},
	{
		Name:       "flow",
		Keywords:   []string{"delay", "late", "slow", "bottleneck"},
		Suggestion: "Flow issue detected. Review line balancing and identify the bottleneck station with the shift lead.",
		MinLevel:   1,
	},
	{
		Name:       "material",
		Keywords:   []string{"material", "supply", "stock", "inventory"},
		Suggestion: "Material issue detected. Check inventory levels with logistics and confirm supplier delivery status.",
		MinLevel:   2,
	},
	{
		Name:       "training",
		Keywords:   []string{"training", "skill", "knowledge"},
		Suggestion: "Skill gap detected. Schedule on-the-job training and update the skills matrix for the team.",
		MinLevel:   1,
	},
}

// SuggestionClassifier evaluates an ordered rule table against issue text.
type SuggestionClassifier struct {
	rules []SuggestionRule
}

// NewSuggestionClassifier copies rules so later changes to the slice do not leak in.
func NewSuggestionClassifier(rules []SuggestionRule) *SuggestionClassifier {
	copied := make([]SuggestionRule, len(rules))
	copy(copied, rules)
	return &SuggestionClassifier{rules: copied}
}

// Classify returns the suggestion of the first rule whose keywords appear in
// title, description or category name. level is the issue's current tier.
func (c *SuggestionClassifier) Classify(title, description string, category *string, level int) Suggestion {
	parts := []string{title, description}
	if category != nil {
		parts = append(parts, *category)
	}
	text := strings.ToLower(strings.Join(parts, " "))

	for _, rule := range c.rules {
		if !rule.matches(text) {
			continue
		}
		suggested := level
		if rule.MinLevel > suggested {
			suggested = rule.MinLevel
		}
		return Suggestion{
			Rule:           rule.Name,
			Reason:         rule.Suggestion,
			SuggestedLevel: suggested,
			Confidence:     domain.SuggestionConfidence,
		}
	}
	return Suggestion{
		Rule:           "fallback",
		Reason:         fallbackSuggestion,
		SuggestedLevel: level,
		Confidence:     domain.SuggestionConfidence,
	}
}
