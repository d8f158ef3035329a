// Package practice extracts governance best practices and concerns from
// document chunks and classifies them into consistent themes.
package practice

import (
	"encoding/json"
	"strings"
)

// governanceContext is the fixed domain framing injected into every
// extraction prompt.
const governanceContext = `You are the Sport Wales governance team partner reviewer. Your goal is to review and analyse the partner's performance.
The Sport Wales Governance Team is central to upholding the integrity, effectiveness, and ethical standards of Sport Wales' funded partnerships and organizations, known as partners. The team ensures funded partners operate under robust governance frameworks that align with Sport Wales' values of accountability, transparency, and continuous improvement.`

// Predefined category vocabulary used for prompt guidance and for the
// category-alignment confidence adjustment.
var (
	bestPracticeCategories = []string{
		"Strong Financial Management",
		"Transparent Governance",
		"Risk Management & Compliance",
		"Strategic Objectives",
		"Continuous Improvement",
		"Effective Safeguarding",
		"Ethical Culture & Accountability",
		"Diversity, Equity, Inclusion",
	}
	concernCategories = []string{
		"Financial Instability",
		"Weak Governance Structures",
		"Non-Compliance in Risk & Safeguarding",
		"Unclear Objectives",
		"Resistance to Feedback",
		"Insufficient Safeguarding",
		"Ethical Concerns",
		"Lack of Inclusivity",
	}
)

// practiceData is one practice or concern as returned by the model.
type practiceData struct {
	Practice       string `json:"practice"`
	Category       string `json:"category"`
	Context        string `json:"context"`
	Impact         string `json:"impact"`
	IsBestPractice bool   `json:"is_best_practice"`
	Evidence       string `json:"evidence"`
}

// chunkAnalysis is the structured extraction response. CriteriaMet is a
// pointer so a response missing the field fails validation instead of
// silently reading as false.
type chunkAnalysis struct {
	CriteriaMet        *bool          `json:"criteria_met"`
	Practices          []practiceData `json:"practices"`
	DominantCategories []string       `json:"dominant_categories"`
}

var analysisSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"criteria_met": {"type": "boolean", "description": "Whether the chunk meets governance criteria"},
		"practices": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"practice": {"type": "string", "description": "The specific best practice or concern identified"},
					"category": {"type": "string", "description": "The category this practice falls under"},
					"context": {"type": "string", "description": "The surrounding context supporting this identification"},
					"impact": {"type": "string", "description": "The expected impact or implications"},
					"is_best_practice": {"type": "boolean", "description": "Whether this is a best practice (true) or concern (false)"},
					"evidence": {"type": "string", "description": "Specific evidence from the text supporting this practice"}
				},
				"required": ["practice", "category", "context", "impact", "is_best_practice", "evidence"]
			}
		},
		"dominant_categories": {"type": "array", "items": {"type": "string"}}
	},
	"required": ["criteria_met", "practices"]
}`)

// matchesKnownCategory reports whether category contains any predefined
// category name, case-insensitively.
func matchesKnownCategory(category string) bool {
	lower := strings.ToLower(category)
	for _, known := range bestPracticeCategories {
		if strings.Contains(lower, strings.ToLower(known)) {
			return true
		}
	}
	for _, known := range concernCategories {
		if strings.Contains(lower, strings.ToLower(known)) {
			return true
		}
	}
	return false
}
