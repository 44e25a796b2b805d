package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/lifecycle"
	"leadflow_backend/internal/leads/service"
	"leadflow_backend/internal/leads/transport"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/httpkit"
	"leadflow_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes adds the lead endpoints to the given group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/check-duplicate", h.CheckDuplicate)
	rg.GET("/:id", h.GetByID)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/restore", h.Restore)
	rg.POST("/:id/transition", h.TransitionStage)
	rg.POST("/:id/rollback", h.RollbackStage)
	rg.POST("/:id/messages", h.RecordMessages)
	rg.PUT("/:id/assign", h.Assign)
	rg.POST("/:id/analyze", h.Analyze)
	rg.GET("/:id/scores", h.ScoreHistory)
	rg.POST("/:id/transfer", h.Transfer)
	rg.GET("/:id/sale", h.GetSaleForLead)
	rg.GET("/:id/history", h.History)
	rg.GET("/:id/notes", h.ListNotes)
	rg.POST("/:id/notes", h.AddNote)
}

// RegisterSaleRoutes adds the sale endpoints to the given group.
func (h *Handler) RegisterSaleRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id", h.GetSale)
	rg.POST("/:id/advance", h.AdvanceSale)
	rg.GET("/:id/history", h.SaleHistory)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	httpkit.JSON(c, http.StatusCreated, lead)
}

func (h *Handler) List(c *gin.Context) {
	var req transport.ListLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.List(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	httpkit.OK(c, result)
}

// CheckDuplicate answers whether an email or phone already belongs to an
// active lead, without creating anything.
func (h *Handler) CheckDuplicate(c *gin.Context) {
	email := c.Query("email")
	phoneNumber := c.Query("phone")
	if email == "" && phoneNumber == "" {
		httpkit.Error(c, http.StatusBadRequest, "email or phone parameter required", nil)
		return
	}

	result, err := h.svc.CheckDuplicate(c.Request.Context(), email, phoneNumber)
	if err != nil {
		respondError(c, err)
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lead, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	httpkit.OK(c, gin.H{"message": "lead deleted"})
}

func (h *Handler) Restore(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lead, err := h.svc.Restore(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) TransitionStage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.TransitionStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	req.Actor = fillActor(c, req.Actor)

	lead, err := h.svc.TransitionStage(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) RollbackStage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.RollbackStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	req.Actor = fillActor(c, req.Actor)

	lead, err := h.svc.RollbackStage(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) RecordMessages(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.RecordMessagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.RecordMessages(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) Assign(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.AssignLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	req.Actor = fillActor(c, req.Actor)

	lead, err := h.svc.Assign(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	httpkit.OK(c, lead)
}

// Analyze scores a lead. ?force=true bypasses the cache.
func (h *Handler) Analyze(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	force := c.Query("force") == "true"

	result, err := h.svc.Analyze(c.Request.Context(), id, force)
	if err != nil {
		respondError(c, err)
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) ScoreHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.ScoreHistory(c.Request.Context(), id, queryInt(c, "limit"), queryInt(c, "offset"))
	if err != nil {
		respondError(c, err)
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) Transfer(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	// The body is optional: a bare POST transfers as the caller, or System.
	var req transport.TransferLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	req.Actor = fillActor(c, req.Actor)

	result, err := h.svc.Transfer(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) GetSaleForLead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	sale, err := h.svc.GetSaleForLead(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	httpkit.OK(c, sale)
}

func (h *Handler) History(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.History(c.Request.Context(), domain.EntityLead, id, queryInt(c, "limit"), queryInt(c, "offset"))
	if err != nil {
		respondError(c, err)
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) GetSale(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	sale, err := h.svc.GetSale(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	httpkit.OK(c, sale)
}

func (h *Handler) AdvanceSale(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.AdvanceSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	req.Actor = fillActor(c, req.Actor)

	sale, err := h.svc.AdvanceSale(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	httpkit.OK(c, sale)
}

func (h *Handler) SaleHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.History(c.Request.Context(), domain.EntitySale, id, queryInt(c, "limit"), queryInt(c, "offset"))
	if err != nil {
		respondError(c, err)
		return
	}

	httpkit.OK(c, result)
}

func respondError(c *gin.Context, err error) {
	httpkit.HandleError(c, toAppError(err))
}

// toAppError classifies facade errors for the HTTP layer. Stage, gate, and
// reason rejections are well-formed requests the entity state refuses
// (422); duplicates, capacity, and lost races conflict with current state
// (409); quota and transition ceilings are 429. A feature validation
// failure is a defect in our own enum handling and surfaces as 500.
func toAppError(err error) error {
	switch {
	case errors.Is(err, service.ErrLeadNotFound),
		errors.Is(err, service.ErrSaleNotFound),
		errors.Is(err, service.ErrAttachmentNotFound):
		return apperr.NotFound(err.Error())
	case errors.Is(err, lifecycle.ErrReasonRequired),
		errors.Is(err, lifecycle.ErrRollbackReasonTooShort):
		return apperr.Unprocessable(err.Error())
	case errors.Is(err, service.ErrConcurrentUpdate):
		return apperr.Conflict(err.Error())
	case errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrInvalidNote),
		errors.Is(err, service.ErrUploadRejected):
		return apperr.Validation(err.Error())
	}

	var transitionErr *domain.StageTransitionError
	if errors.As(err, &transitionErr) {
		return apperr.Unprocessable(transitionErr.Error())
	}
	var saleGateErr *domain.SaleGateError
	if errors.As(err, &saleGateErr) {
		return apperr.Unprocessable(saleGateErr.Error())
	}
	var gateErr *domain.TransferGateError
	if errors.As(err, &gateErr) {
		return apperr.Unprocessable(gateErr.Error()).WithDetails(gin.H{"missing": gateErr.Missing})
	}
	var dupErr *domain.DuplicateLeadError
	if errors.As(err, &dupErr) {
		return apperr.Conflict(dupErr.Error()).WithDetails(gin.H{"existingId": dupErr.ExistingID, "field": dupErr.Field})
	}
	var capErr *domain.CapacityExceededError
	if errors.As(err, &capErr) {
		return apperr.Conflict(capErr.Error())
	}
	var quotaErr *domain.QuotaExceededError
	if errors.As(err, &quotaErr) {
		return apperr.TooManyRequests(quotaErr.Error())
	}
	var rateErr *domain.TransitionRateError
	if errors.As(err, &rateErr) {
		return apperr.TooManyRequests(rateErr.Error())
	}
	var featErr *domain.FeatureValidationError
	if errors.As(err, &featErr) {
		return apperr.Internal(featErr.Error())
	}

	return apperr.Internal(err.Error())
}

func queryInt(c *gin.Context, name string) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return value
}

// fillActor resolves who performed the action: an explicit actor in the
// request wins, then the authenticated caller's id. Empty means the facade
// attributes the action to System.
func fillActor(c *gin.Context, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if id := httpkit.GetIdentity(c); id.IsAuthenticated() {
		return id.UserID().String()
	}
	return ""
}
