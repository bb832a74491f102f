package analysis

import "time"

// Window category values. Extraction that matches no rule leaves Unknown.
const (
	CategoryDoubleHung = "double_hung"
	CategoryCasement   = "casement"
	CategorySliding    = "sliding"
	CategoryBay        = "bay"
	CategoryBow        = "bow"
	CategoryAwning     = "awning"
	CategoryPicture    = "picture"
	CategoryUnknown    = "unknown"
)

// Frame material values.
const (
	MaterialVinyl      = "vinyl"
	MaterialWood       = "wood"
	MaterialAluminum   = "aluminum"
	MaterialFiberglass = "fiberglass"
	MaterialComposite  = "composite"
	MaterialUnknown    = "unknown"
)

// Condition values.
const (
	ConditionExcellent = "excellent"
	ConditionGood      = "good"
	ConditionFair      = "fair"
	ConditionPoor      = "poor"
	ConditionUnknown   = "unknown"
)

// Request represents one logical "analyze this image" request. It is immutable
// once created.
type Request struct {
	ID             string        `json:"id"`
	PhotoKey       string        `json:"photoKey"`
	Providers      []string      `json:"providers"`
	SessionID      string        `json:"sessionId,omitempty"`
	Locale         string        `json:"locale,omitempty"`
	PromptOverride string        `json:"promptOverride,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	Deadline       time.Duration `json:"-"`
}

// Attempt outcomes.
const (
	OutcomeSuccess          = "success"
	OutcomeTransientFailure = "transient_failure"
	OutcomePermanentFailure = "permanent_failure"
	OutcomeTimeout          = "timeout"
	OutcomeRateLimited      = "rate_limited"
	OutcomeExhausted        = "exhausted"
)

// CallAttempt records a single call to one provider. Attempts are appended by
// the retry executor only.
type CallAttempt struct {
	Provider    string        `json:"provider"`
	Attempt     int           `json:"attempt"`
	StartedAt   time.Time     `json:"startedAt"`
	Outcome     string        `json:"outcome"`
	Latency     time.Duration `json:"latency"`
	RawResponse string        `json:"rawResponse,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// Dimensions are window measurements in inches.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Recommendation is one extracted suggestion with a coarse category and priority.
type Recommendation struct {
	Text     string `json:"text"`
	Category string `json:"category"`
	Priority string `json:"priority"`
}

// NormalizedResult is one provider's response reduced to the canonical field set.
type NormalizedResult struct {
	Provider        string           `json:"provider"`
	Category        string           `json:"category"`
	Material        string           `json:"material"`
	Dimensions      *Dimensions      `json:"dimensions,omitempty"`
	Condition       string           `json:"condition"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
	Confidence      int              `json:"confidence"`
}

// HasCategory reports whether the category field was extracted.
func (r NormalizedResult) HasCategory() bool { return r.Category != "" && r.Category != CategoryUnknown }

// HasMaterial reports whether the material field was extracted.
func (r NormalizedResult) HasMaterial() bool { return r.Material != "" && r.Material != MaterialUnknown }

// HasCondition reports whether the condition field was extracted.
func (r NormalizedResult) HasCondition() bool {
	return r.Condition != "" && r.Condition != ConditionUnknown
}

// HasDimensions reports whether plausible dimensions were extracted.
func (r NormalizedResult) HasDimensions() bool { return r.Dimensions != nil }

// HasRecommendations reports whether at least one recommendation was extracted.
func (r NormalizedResult) HasRecommendations() bool { return len(r.Recommendations) > 0 }

// Contributed reports whether the result carries at least one extracted field.
func (r NormalizedResult) Contributed() bool {
	return r.HasCategory() || r.HasMaterial() || r.HasCondition() || r.HasDimensions() || r.HasRecommendations()
}

// Result is the consensus produced for one request. Source fields record the
// provider whose value was selected (provenance).
type Result struct {
	RequestID string `json:"requestId"`

	Category       string `json:"category"`
	CategorySource string `json:"categorySource,omitempty"`

	Material       string `json:"material"`
	MaterialSource string `json:"materialSource,omitempty"`

	Dimensions       *Dimensions `json:"dimensions,omitempty"`
	DimensionsSource string      `json:"dimensionsSource,omitempty"`

	Condition       string `json:"condition"`
	ConditionSource string `json:"conditionSource,omitempty"`

	Recommendations       []Recommendation `json:"recommendations,omitempty"`
	RecommendationsSource string           `json:"recommendationsSource,omitempty"`

	Confidence   int       `json:"confidence"`
	Contributing []string  `json:"contributingProviders"`
	Failed       []string  `json:"failedProviders,omitempty"`
	Partial      bool      `json:"partial"`
	CompletedAt  time.Time `json:"completedAt"`
}

// QueuedRequest is a request buffered by the offline queue.
type QueuedRequest struct {
	Request    Request
	EnqueuedAt time.Time
	Attempts   int
}

// Request statuses reported by GetStatus.
const (
	StatusPending  = "pending"
	StatusResolved = "resolved"
	StatusFailed   = "failed"
)
