package pricing

import (
	"math"

	"window-backend/internal/analysis"
)

// Quote is a rough replacement-cost estimate derived from an analysis result.
// Numbers are USD and intentionally coarse; the range widens when the analysis
// had low confidence or missing fields.
type Quote struct {
	RequestID  string   `json:"requestId"`
	Low        float64  `json:"low"`
	High       float64  `json:"high"`
	Currency   string   `json:"currency"`
	Confidence int      `json:"confidence"`
	Notes      []string `json:"notes,omitempty"`
}

// Base install price per window category.
var basePrice = map[string]float64{
	analysis.CategoryDoubleHung: 650,
	analysis.CategoryCasement:   700,
	analysis.CategorySliding:    600,
	analysis.CategoryBay:        1900,
	analysis.CategoryBow:        2300,
	analysis.CategoryAwning:     650,
	analysis.CategoryPicture:    800,
	analysis.CategoryUnknown:    700,
}

var materialMultiplier = map[string]float64{
	analysis.MaterialVinyl:      1.0,
	analysis.MaterialAluminum:   1.1,
	analysis.MaterialComposite:  1.35,
	analysis.MaterialWood:       1.5,
	analysis.MaterialFiberglass: 1.45,
	analysis.MaterialUnknown:    1.1,
}

// Poor condition usually means frame repair on top of the unit itself.
var conditionMultiplier = map[string]float64{
	analysis.ConditionExcellent: 1.0,
	analysis.ConditionGood:      1.0,
	analysis.ConditionFair:      1.1,
	analysis.ConditionPoor:      1.3,
	analysis.ConditionUnknown:   1.05,
}

// Reference area for the base price, in square inches (roughly 32x54).
const referenceAreaSqIn = 1728

// Estimate derives a quote from a resolved analysis. The spread between Low
// and High grows as confidence drops.
func Estimate(result analysis.Result) Quote {
	base := basePrice[result.Category]
	if base == 0 {
		base = basePrice[analysis.CategoryUnknown]
	}

	price := base * multiplierOr(materialMultiplier, result.Material, 1.1) * multiplierOr(conditionMultiplier, result.Condition, 1.05)

	var notes []string
	if result.Dimensions != nil {
		area := result.Dimensions.Width * result.Dimensions.Height
		price *= math.Max(0.75, math.Min(2.0, area/referenceAreaSqIn))
	} else {
		notes = append(notes, "dimensions estimated from a standard unit size")
	}
	if result.Category == analysis.CategoryUnknown {
		notes = append(notes, "window type could not be determined from the photo")
	}
	if result.Partial {
		notes = append(notes, "estimate based on a partial analysis")
	}

	// 10% spread at confidence 95, widening to 45% at confidence 0.
	confidence := result.Confidence
	if confidence > 95 {
		confidence = 95
	}
	spread := 0.10 + 0.35*(1-float64(confidence)/95)

	return Quote{
		RequestID:  result.RequestID,
		Low:        round50(price * (1 - spread)),
		High:       round50(price * (1 + spread)),
		Currency:   "USD",
		Confidence: confidence,
		Notes:      notes,
	}
}

func multiplierOr(m map[string]float64, key string, fallback float64) float64 {
	if v, ok := m[key]; ok {
		return v
	}
	return fallback
}

func round50(v float64) float64 {
	return math.Round(v/50) * 50
}
