package leads

import "time"

// Lead is a homeowner contact captured after an analysis, used to hand the
// conversation to an installer.
type Lead struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	Zip        string    `json:"zip,omitempty"`
	Note       string    `json:"note,omitempty"`
	PhotoKey   string    `json:"photoKey,omitempty"`
	AnalysisID string    `json:"analysisId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
