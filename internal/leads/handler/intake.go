package handler

import (
	"errors"
	"net/http"

	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/service"
	"leadflow_backend/internal/leads/transport"
	"leadflow_backend/platform/httpkit"
	"leadflow_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// IntakeHandler handles unauthenticated lead intake from external channels:
// scanner bots and partner feeds. Mounted behind the webhook rate limiter;
// manual entry stays on the authenticated API.
type IntakeHandler struct {
	svc *service.Service
	val *validator.Validator
}

func NewIntakeHandler(svc *service.Service, val *validator.Validator) *IntakeHandler {
	return &IntakeHandler{svc: svc, val: val}
}

// RegisterRoutes registers intake routes under /public/leads.
func (h *IntakeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.SubmitLead)
}

func (h *IntakeHandler) SubmitLead(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	if req.Source == domain.SourceManual {
		httpkit.Error(c, http.StatusBadRequest, "manual leads go through the authenticated API", nil)
		return
	}

	lead, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		// No lead ids for anonymous callers, just the fact of the clash.
		var dup *domain.DuplicateLeadError
		if errors.As(err, &dup) {
			httpkit.Error(c, http.StatusConflict, "a lead with this contact already exists", nil)
			return
		}
		respondError(c, err)
		return
	}

	httpkit.JSON(c, http.StatusCreated, gin.H{"id": lead.ID, "stage": lead.Stage})
}
