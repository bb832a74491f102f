package pricing

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"window-backend/internal/analysis"
	"window-backend/internal/shared/server/respond"
)

// Handler serves quote estimates for resolved analyses.
type Handler struct {
	Svc *analysis.Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *analysis.Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches pricing routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/analyses/:id/quote", h.getQuote)
}

func (h *Handler) getQuote(c *gin.Context) {
	requestID := c.Param("id")

	status, result, err := h.Svc.GetStatus(c.Request.Context(), requestID)
	if err != nil {
		switch {
		case errors.Is(err, analysis.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "analysis not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch analysis", nil)
		}
		return
	}
	if status != analysis.StatusResolved {
		respond.Error(c, http.StatusConflict, "not_resolved", "analysis has not resolved yet", []map[string]string{
			{"field": "status", "issue": status},
		})
		return
	}

	respond.OK(c, Estimate(*result))
}
