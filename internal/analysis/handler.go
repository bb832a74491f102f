package analysis

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"window-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the analysis service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyses", h.submitAnalysis)
	rg.GET("/analyses/:id", h.getAnalysis)
	rg.GET("/analyses/:id/status", h.getStatus)
	rg.POST("/analyses/replay", h.replayQueued)
}

type submitRequest struct {
	RequestID      string   `json:"requestId"`
	PhotoKey       string   `json:"photoKey"`
	ImageB64       string   `json:"imageBase64"`
	Providers      []string `json:"providers"`
	SessionID      string   `json:"sessionId"`
	Locale         string   `json:"locale"`
	PromptOverride string   `json:"prompt"`
}

func (h *Handler) submitAnalysis(c *gin.Context) {
	var body submitRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if body.PhotoKey == "" && body.ImageB64 == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "photoKey or imageBase64 is required", []map[string]string{
			{"field": "photoKey", "issue": "required"},
		})
		return
	}

	result, err := h.Svc.Submit(c.Request.Context(), SubmitInput{
		RequestID:      body.RequestID,
		PhotoKey:       body.PhotoKey,
		ImageB64:       body.ImageB64,
		Providers:      body.Providers,
		SessionID:      body.SessionID,
		Locale:         body.Locale,
		PromptOverride: body.PromptOverride,
	})
	switch {
	case err == nil:
		respond.OK(c, result)
	case errors.Is(err, ErrQueued):
		respond.JSON(c, http.StatusAccepted, gin.H{
			"requestId": result.RequestID,
			"status":    StatusPending,
			"queued":    true,
		})
	case errors.Is(err, ErrAllProvidersFailed):
		respond.JSON(c, http.StatusBadGateway, gin.H{
			"requestId": result.RequestID,
			"status":    StatusFailed,
			"failed":    result.Failed,
		})
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to run analysis", nil)
	}
}

func (h *Handler) getAnalysis(c *gin.Context) {
	requestID := c.Param("id")
	if requestID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "request id is required", nil)
		return
	}

	status, result, err := h.Svc.GetStatus(c.Request.Context(), requestID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "analysis not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch analysis", nil)
		}
		return
	}
	if status == StatusPending {
		respond.JSON(c, http.StatusAccepted, gin.H{"requestId": requestID, "status": status})
		return
	}
	respond.OK(c, result)
}

func (h *Handler) getStatus(c *gin.Context) {
	requestID := c.Param("id")
	status, _, err := h.Svc.GetStatus(c.Request.Context(), requestID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "analysis not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch status", nil)
		}
		return
	}
	respond.OK(c, gin.H{"requestId": requestID, "status": status})
}

func (h *Handler) replayQueued(c *gin.Context) {
	replayed, dropped := h.Svc.ReplayQueued(c.Request.Context())
	respond.OK(c, gin.H{
		"replayed":  replayed,
		"dropped":   dropped,
		"remaining": h.Svc.QueueDepth(),
	})
}
