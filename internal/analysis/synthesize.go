package analysis

import (
	"sort"
	"time"
)

// Synthesize merges per-provider normalized results into one consensus result.
// Merging is deterministic regardless of input order: results are ranked by the
// configured provider priority, and for each categorical field the first
// provider reporting a non-unknown value wins and is recorded as provenance.
// Dimensions go to the highest-confidence result, ties broken by priority.
func Synthesize(results []NormalizedResult, priority []string) (Result, error) {
	if len(results) == 0 {
		return Result{}, ErrAllProvidersFailed
	}

	ranked := make([]NormalizedResult, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		ri, rj := priorityRank(priority, ranked[i].Provider), priorityRank(priority, ranked[j].Provider)
		if ri != rj {
			return ri < rj
		}
		return ranked[i].Provider < ranked[j].Provider
	})

	out := Result{
		Category:    CategoryUnknown,
		Material:    MaterialUnknown,
		Condition:   ConditionUnknown,
		CompletedAt: time.Now().UTC(),
	}

	for _, r := range ranked {
		if out.Category == CategoryUnknown && r.HasCategory() {
			out.Category = r.Category
			out.CategorySource = r.Provider
		}
		if out.Material == MaterialUnknown && r.HasMaterial() {
			out.Material = r.Material
			out.MaterialSource = r.Provider
		}
		if out.Condition == ConditionUnknown && r.HasCondition() {
			out.Condition = r.Condition
			out.ConditionSource = r.Provider
		}
		if out.Recommendations == nil && r.HasRecommendations() {
			out.Recommendations = r.Recommendations
			out.RecommendationsSource = r.Provider
		}
	}

	for _, r := range ranked {
		if !r.HasDimensions() {
			continue
		}
		if out.Dimensions == nil || r.Confidence > dimensionsConfidence(ranked, out.DimensionsSource) {
			out.Dimensions = r.Dimensions
			out.DimensionsSource = r.Provider
		}
	}

	// Aggregate confidence averages every provider that reported a score; a
	// result with unknown fields still carries weight through its confidence.
	sum, count := 0, 0
	for _, r := range ranked {
		out.Contributing = append(out.Contributing, r.Provider)
		if r.Confidence > 0 {
			sum += r.Confidence
			count++
		}
	}
	if count > 0 {
		out.Confidence = sum / count
	}

	return out, nil
}

func priorityRank(priority []string, provider string) int {
	for i, p := range priority {
		if p == provider {
			return i
		}
	}
	return len(priority)
}

func dimensionsConfidence(ranked []NormalizedResult, provider string) int {
	for _, r := range ranked {
		if r.Provider == provider {
			return r.Confidence
		}
	}
	return -1
}
