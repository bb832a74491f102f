package analysis

import (
	"regexp"
	"strings"
)

// Recommendation categories.
const (
	RecCategoryMeasurement  = "measurement"
	RecCategoryEnergy       = "energy"
	RecCategoryMaterial     = "material"
	RecCategoryInstallation = "installation"
	RecCategoryMaintenance  = "maintenance"
	RecCategoryGeneral      = "general"
)

// Recommendation priorities.
const (
	RecPriorityHigh   = "high"
	RecPriorityMedium = "medium"
	RecPriorityLow    = "low"
)

const (
	minRecommendationLen = 20
	maxRecommendations   = 7
)

var recommendationsHeading = regexp.MustCompile(`(?i)recommendations?\s*:?`)

var recCategoryKeywords = []struct {
	category string
	keywords []string
}{
	{RecCategoryMeasurement, []string{"measure", "measurement", "dimensions", "exact size", "tape"}},
	{RecCategoryEnergy, []string{"energy", "insulat", "draft", "low-e", "double pane", "triple pane", "efficiency", "thermal"}},
	{RecCategoryMaterial, []string{"vinyl", "wood", "aluminum", "fiberglass", "composite", "frame material", "upgrade to"}},
	{RecCategoryInstallation, []string{"install", "installer", "professional", "contractor", "replace", "replacement"}},
	{RecCategoryMaintenance, []string{"maintain", "maintenance", "clean", "repaint", "caulk", "seal", "lubricate", "weatherstrip"}},
}

var recHighPriorityKeywords = []string{"immediately", "urgent", "as soon as", "safety", "hazard", "leak", "rot", "mold"}
var recMediumPriorityKeywords = []string{"should", "recommend", "replace", "consider upgrading", "soon"}

// extractRecommendations pulls sentence-like fragments out of a best-effort
// "recommendations" section, filters short fragments, and tags each with a
// coarse category and priority via keyword matching.
func extractRecommendations(text string) []Recommendation {
	section := recommendationSection(text)
	if section == "" {
		return nil
	}

	fragments := splitFragments(section)
	out := make([]Recommendation, 0, len(fragments))
	for _, fragment := range fragments {
		if len(fragment) < minRecommendationLen {
			continue
		}
		out = append(out, Recommendation{
			Text:     fragment,
			Category: recommendationCategory(fragment),
			Priority: recommendationPriority(fragment),
		})
		if len(out) == maxRecommendations {
			break
		}
	}
	return out
}

func recommendationSection(text string) string {
	loc := recommendationsHeading.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	return strings.TrimSpace(text[loc[1]:])
}

func splitFragments(section string) []string {
	raw := strings.FieldsFunc(section, func(r rune) bool {
		switch r {
		case '.', ';', '\n', '•', '!':
			return true
		}
		return false
	})
	out := make([]string, 0, len(raw))
	for _, fragment := range raw {
		trimmed := strings.TrimSpace(strings.TrimLeft(fragment, "-*0123456789) "))
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func recommendationCategory(fragment string) string {
	lower := strings.ToLower(fragment)
	for _, entry := range recCategoryKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.category
			}
		}
	}
	return RecCategoryGeneral
}

func recommendationPriority(fragment string) string {
	lower := strings.ToLower(fragment)
	for _, kw := range recHighPriorityKeywords {
		if strings.Contains(lower, kw) {
			return RecPriorityHigh
		}
	}
	for _, kw := range recMediumPriorityKeywords {
		if strings.Contains(lower, kw) {
			return RecPriorityMedium
		}
	}
	return RecPriorityLow
}
