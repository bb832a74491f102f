package analysis

import "testing"

func TestExtractRecommendationsMissingSection(t *testing.T) {
	if recs := extractRecommendations("Nice window, no advice here."); recs != nil {
		t.Fatalf("expected nil without a recommendations section, got %+v", recs)
	}
}

func TestExtractRecommendationsFiltersShortFragments(t *testing.T) {
	text := "Recommendations: Caulk it. Replace the weatherstripping seal around the entire frame."
	recs := extractRecommendations(text)
	if len(recs) != 1 {
		t.Fatalf("expected 1 recommendation after filtering, got %d: %+v", len(recs), recs)
	}
}

func TestExtractRecommendationsStripsBullets(t *testing.T) {
	text := `Recommendations:
- Measure the rough opening before ordering the replacement unit
- Hire a professional installer for the structural bay window work`
	recs := extractRecommendations(text)
	if len(recs) != 2 {
		t.Fatalf("expected 2 recommendations, got %d: %+v", len(recs), recs)
	}
	if recs[0].Text[0] == '-' {
		t.Fatalf("bullet markers should be stripped, got %q", recs[0].Text)
	}
}

func TestRecommendationCategories(t *testing.T) {
	cases := []struct {
		fragment string
		category string
	}{
		{"Measure the opening with a tape before ordering", RecCategoryMeasurement},
		{"Upgrade to low-e double pane glass for efficiency", RecCategoryEnergy},
		{"Switch the frame to fiberglass for durability", RecCategoryMaterial},
		{"Have a professional contractor handle the work", RecCategoryInstallation},
		{"Caulk and repaint the sill every other year", RecCategoryMaintenance},
		{"Get several quotes before you commit to anything", RecCategoryGeneral},
	}
	for _, tc := range cases {
		if got := recommendationCategory(tc.fragment); got != tc.category {
			t.Fatalf("%q: expected category %s, got %s", tc.fragment, tc.category, got)
		}
	}
}

func TestRecommendationPriorities(t *testing.T) {
	cases := []struct {
		fragment string
		priority string
	}{
		{"Address the rot immediately before it spreads", RecPriorityHigh},
		{"You should replace the sash cords", RecPriorityMedium},
		{"A fresh coat of paint would look nice", RecPriorityLow},
	}
	for _, tc := range cases {
		if got := recommendationPriority(tc.fragment); got != tc.priority {
			t.Fatalf("%q: expected priority %s, got %s", tc.fragment, tc.priority, got)
		}
	}
}

func TestExtractRecommendationsCapped(t *testing.T) {
	text := "Recommendations: " +
		"First piece of advice about the window frame goes here. " +
		"Second piece of advice about the window frame goes here. " +
		"Third piece of advice about the window frame goes here. " +
		"Fourth piece of advice about the window frame goes here. " +
		"Fifth piece of advice about the window frame goes here. " +
		"Sixth piece of advice about the window frame goes here. " +
		"Seventh piece of advice about the window frame goes here. " +
		"Eighth piece of advice about the window frame goes here."
	recs := extractRecommendations(text)
	if len(recs) != maxRecommendations {
		t.Fatalf("expected cap of %d, got %d", maxRecommendations, len(recs))
	}
}
