package leads

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"window-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the leads service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches lead routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/leads", h.createLead)
	rg.GET("/leads", h.listLeads)
	rg.GET("/leads/:id", h.getLead)
}

type createLeadRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Zip        string `json:"zip"`
	Note       string `json:"note"`
	PhotoKey   string `json:"photoKey"`
	AnalysisID string `json:"analysisId"`
}

func (h *Handler) createLead(c *gin.Context) {
	var body createLeadRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	lead, err := h.Svc.Create(c.Request.Context(), CreateInput{
		Name:       body.Name,
		Email:      body.Email,
		Phone:      body.Phone,
		Zip:        body.Zip,
		Note:       body.Note,
		PhotoKey:   body.PhotoKey,
		AnalysisID: body.AnalysisID,
	})
	if err != nil {
		if strings.Contains(err.Error(), "required") || strings.Contains(err.Error(), "invalid email") {
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create lead", nil)
		return
	}

	respond.JSON(c, http.StatusCreated, lead)
}

func (h *Handler) getLead(c *gin.Context) {
	lead, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "lead not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch lead", nil)
		}
		return
	}
	respond.OK(c, lead)
}

func (h *Handler) listLeads(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	out, err := h.Svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list leads", nil)
		return
	}
	if out == nil {
		out = []Lead{}
	}
	respond.OK(c, gin.H{"leads": out})
}
