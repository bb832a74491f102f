package analysis

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Extraction is rule-table driven: for each field the first matching rule in
// priority order wins, and no match leaves the field unknown. Keeping the
// tables as data makes the priority order a testable artifact.
type extractionRule struct {
	pattern *regexp.Regexp
	value   string
}

var categoryRules = []extractionRule{
	{regexp.MustCompile(`(?i)double[\s-]?hung`), CategoryDoubleHung},
	{regexp.MustCompile(`(?i)casement`), CategoryCasement},
	{regexp.MustCompile(`(?i)slid(?:ing|er)`), CategorySliding},
	{regexp.MustCompile(`(?i)\bbay\b`), CategoryBay},
	{regexp.MustCompile(`(?i)\bbow\b`), CategoryBow},
	{regexp.MustCompile(`(?i)awning`), CategoryAwning},
	{regexp.MustCompile(`(?i)picture|fixed window`), CategoryPicture},
}

var materialRules = []extractionRule{
	{regexp.MustCompile(`(?i)vinyl|pvc`), MaterialVinyl},
	{regexp.MustCompile(`(?i)fibergl?ass`), MaterialFiberglass},
	{regexp.MustCompile(`(?i)composite`), MaterialComposite},
	{regexp.MustCompile(`(?i)alumini?um|metal frame`), MaterialAluminum},
	{regexp.MustCompile(`(?i)\bwood(?:en)?\b|timber`), MaterialWood},
}

var conditionRules = []extractionRule{
	{regexp.MustCompile(`(?i)excellent|like new|pristine`), ConditionExcellent},
	{regexp.MustCompile(`(?i)\bpoor\b|rotted|rotting|severely damaged|broken|failing`), ConditionPoor},
	{regexp.MustCompile(`(?i)\bfair\b|worn|aging|moderate wear|some damage`), ConditionFair},
	{regexp.MustCompile(`(?i)\bgood\b|well[\s-]maintained|minor wear`), ConditionGood},
}

// Dimension patterns in priority order. Each must capture width then height.
var dimensionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:"|''|in(?:ches)?\.?)?\s*[x×]\s*(\d+(?:\.\d+)?)\s*(?:"|''|in(?:ches)?\.?)?`),
	regexp.MustCompile(`(?i)width:?\s*(\d+(?:\.\d+)?)\s*(?:"|in(?:ches)?)?[,;\s]+height:?\s*(\d+(?:\.\d+)?)`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:"|in(?:ches)?)?\s*wide\W+(\d+(?:\.\d+)?)\s*(?:"|in(?:ches)?)?\s*(?:tall|high)`),
}

// Plausibility ranges in inches. Values outside are discarded, not clamped.
const (
	minPlausibleWidth  = 6
	maxPlausibleWidth  = 120
	minPlausibleHeight = 6
	maxPlausibleHeight = 144
)

var explicitConfidencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)confidence\D{0,10}(\d{1,3})`),
	regexp.MustCompile(`(\d{1,3})\s*%`),
}

// Confidence scoring when the text carries no explicit figure.
const (
	confidenceBase          = 40
	confidenceBonusCategory = 10
	confidenceBonusMaterial = 10
	confidenceBonusCond     = 10
	confidenceBonusDims     = 15
	confidenceBonusRecs     = 10
	confidenceCap           = 95
)

// Normalize reduces one provider's raw response to the canonical field set with
// a confidence score. It is a pure function: the same raw input always yields
// the same result.
func Normalize(providerID, raw string) NormalizedResult {
	text := flattenIfJSON(raw)

	result := NormalizedResult{
		Provider:  providerID,
		Category:  CategoryUnknown,
		Material:  MaterialUnknown,
		Condition: ConditionUnknown,
	}

	if val, ok := matchFirst(categoryRules, text); ok {
		result.Category = val
	}
	if val, ok := matchFirst(materialRules, text); ok {
		result.Material = val
	}
	if val, ok := matchFirst(conditionRules, text); ok {
		result.Condition = val
	}
	result.Dimensions = extractDimensions(text)
	result.Recommendations = extractRecommendations(text)
	result.Confidence = scoreConfidence(text, result)
	return result
}

func matchFirst(rules []extractionRule, text string) (string, bool) {
	for _, rule := range rules {
		if rule.pattern.MatchString(text) {
			return rule.value, true
		}
	}
	return "", false
}

func extractDimensions(text string) *Dimensions {
	for _, pattern := range dimensionPatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		width, err1 := strconv.ParseFloat(m[1], 64)
		height, err2 := strconv.ParseFloat(m[2], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		if width < minPlausibleWidth || width > maxPlausibleWidth {
			continue
		}
		if height < minPlausibleHeight || height > maxPlausibleHeight {
			continue
		}
		return &Dimensions{Width: width, Height: height}
	}
	return nil
}

func scoreConfidence(text string, result NormalizedResult) int {
	if figures := explicitConfidenceFigures(text); len(figures) > 0 {
		sum := 0
		for _, f := range figures {
			sum += f
		}
		return clampConfidence(sum / len(figures))
	}

	score := confidenceBase
	if result.HasCategory() {
		score += confidenceBonusCategory
	}
	if result.HasMaterial() {
		score += confidenceBonusMaterial
	}
	if result.HasCondition() {
		score += confidenceBonusCond
	}
	if result.HasDimensions() {
		score += confidenceBonusDims
	}
	if result.HasRecommendations() {
		score += confidenceBonusRecs
	}
	if score > confidenceCap {
		score = confidenceCap
	}
	return score
}

func explicitConfidenceFigures(text string) []int {
	var out []int
	for _, pattern := range explicitConfidencePatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			val, err := strconv.Atoi(m[1])
			if err != nil || val > 100 {
				continue
			}
			out = append(out, val)
		}
		if len(out) > 0 {
			return out
		}
	}
	return out
}

func clampConfidence(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// flattenIfJSON joins the string leaf values of a JSON document so the rule
// tables can run over semi-structured responses the same way as free text.
func flattenIfJSON(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return raw
	}
	var doc any
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		return raw
	}
	var parts []string
	collectStrings(doc, &parts)
	if len(parts) == 0 {
		return raw
	}
	return strings.Join(parts, "\n")
}

func collectStrings(node any, out *[]string) {
	switch v := node.(type) {
	case string:
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			*out = append(*out, trimmed)
		}
	case []any:
		for _, item := range v {
			collectStrings(item, out)
		}
	case map[string]any:
		// Walk keys deterministically so normalization stays idempotent.
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			collectStrings(v[k], out)
		}
	}
}
