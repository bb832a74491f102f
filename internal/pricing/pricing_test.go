package pricing

import (
	"testing"

	"window-backend/internal/analysis"
)

func TestEstimateBaseCase(t *testing.T) {
	result := analysis.Result{
		RequestID:  "req-1",
		Category:   analysis.CategoryDoubleHung,
		Material:   analysis.MaterialVinyl,
		Condition:  analysis.ConditionGood,
		Confidence: 95,
	}

	q := Estimate(result)
	if q.RequestID != "req-1" || q.Currency != "USD" {
		t.Fatalf("unexpected quote %+v", q)
	}
	// 650 * 1.0 * 1.0 with a 10% spread at full confidence.
	if q.Low != 600 || q.High != 700 {
		t.Fatalf("expected 600-700, got %v-%v", q.Low, q.High)
	}
	if len(q.Notes) != 1 {
		t.Fatalf("expected a dimensions note, got %v", q.Notes)
	}
}

func TestEstimateMaterialAndConditionMultiply(t *testing.T) {
	vinyl := Estimate(analysis.Result{Category: analysis.CategoryCasement, Material: analysis.MaterialVinyl, Condition: analysis.ConditionGood, Confidence: 90})
	wood := Estimate(analysis.Result{Category: analysis.CategoryCasement, Material: analysis.MaterialWood, Condition: analysis.ConditionPoor, Confidence: 90})

	if wood.High <= vinyl.High || wood.Low <= vinyl.Low {
		t.Fatalf("expected wood in poor condition to cost more: %+v vs %+v", wood, vinyl)
	}
}

func TestEstimateAreaScalesPrice(t *testing.T) {
	small := Estimate(analysis.Result{
		Category:   analysis.CategoryPicture,
		Dimensions: &analysis.Dimensions{Width: 24, Height: 36},
		Confidence: 90,
	})
	large := Estimate(analysis.Result{
		Category:   analysis.CategoryPicture,
		Dimensions: &analysis.Dimensions{Width: 60, Height: 80},
		Confidence: 90,
	})

	if large.High <= small.High {
		t.Fatalf("expected the larger window to cost more: %+v vs %+v", large, small)
	}
	if len(small.Notes) != 0 {
		t.Fatalf("expected no dimension note when dimensions are known, got %v", small.Notes)
	}
}

func TestEstimateSpreadWidensWithLowConfidence(t *testing.T) {
	confident := Estimate(analysis.Result{Category: analysis.CategorySliding, Confidence: 95})
	uncertain := Estimate(analysis.Result{Category: analysis.CategorySliding, Confidence: 40})

	confidentSpread := confident.High - confident.Low
	uncertainSpread := uncertain.High - uncertain.Low
	if uncertainSpread <= confidentSpread {
		t.Fatalf("expected wider spread at low confidence: %v vs %v", uncertainSpread, confidentSpread)
	}
}

func TestEstimateUnknownCategoryFallsBack(t *testing.T) {
	q := Estimate(analysis.Result{Category: analysis.CategoryUnknown, Partial: true, Confidence: 50})
	if q.Low <= 0 || q.High <= q.Low {
		t.Fatalf("expected a usable range, got %+v", q)
	}
	if len(q.Notes) != 3 {
		t.Fatalf("expected notes for dimensions, unknown type and partial, got %v", q.Notes)
	}
}
