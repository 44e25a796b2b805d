package handler

import (
	"net/http"

	"leadflow_backend/internal/leads/service"
	"leadflow_backend/internal/leads/transport"
	"leadflow_backend/platform/httpkit"
	"leadflow_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AttachmentsHandler handles HTTP requests for lead attachments. Separate
// from the main Handler so deployments without object storage skip wiring it.
type AttachmentsHandler struct {
	svc *service.Service
	val *validator.Validator
}

func NewAttachmentsHandler(svc *service.Service, val *validator.Validator) *AttachmentsHandler {
	return &AttachmentsHandler{svc: svc, val: val}
}

// RegisterRoutes adds attachment routes to a lead-scoped router group.
// Expected mount point: /leads/:id/attachments
func (h *AttachmentsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/presign", h.GetPresignedUploadURL)
	rg.POST("", h.ConfirmUpload)
	rg.GET("", h.ListAttachments)
	rg.GET("/:attachmentId", h.GetAttachment)
	rg.GET("/:attachmentId/download", h.GetDownloadURL)
	rg.DELETE("/:attachmentId", h.DeleteAttachment)
}

// GetPresignedUploadURL hands the client a short-lived PUT URL. The client
// uploads straight to storage and then confirms with POST "".
func (h *AttachmentsHandler) GetPresignedUploadURL(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.PresignedUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	presigned, err := h.svc.PresignUpload(c.Request.Context(), leadID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	httpkit.OK(c, presigned)
}

// ConfirmUpload records the attachment row after a successful upload.
func (h *AttachmentsHandler) ConfirmUpload(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.CreateAttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	req.UploadedBy = fillActor(c, req.UploadedBy)

	att, err := h.svc.ConfirmAttachment(c.Request.Context(), leadID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	httpkit.JSON(c, http.StatusCreated, att)
}

func (h *AttachmentsHandler) ListAttachments(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.ListAttachments(c.Request.Context(), leadID)
	if err != nil {
		respondError(c, err)
		return
	}

	httpkit.OK(c, result)
}

func (h *AttachmentsHandler) GetAttachment(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	attachmentID, err := uuid.Parse(c.Param("attachmentId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	att, err := h.svc.GetAttachment(c.Request.Context(), leadID, attachmentID)
	if err != nil {
		respondError(c, err)
		return
	}

	httpkit.OK(c, att)
}

func (h *AttachmentsHandler) GetDownloadURL(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	attachmentID, err := uuid.Parse(c.Param("attachmentId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	presigned, err := h.svc.PresignDownload(c.Request.Context(), leadID, attachmentID)
	if err != nil {
		respondError(c, err)
		return
	}

	httpkit.OK(c, presigned)
}

func (h *AttachmentsHandler) DeleteAttachment(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	attachmentID, err := uuid.Parse(c.Param("attachmentId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if err := h.svc.DeleteAttachment(c.Request.Context(), leadID, attachmentID); err != nil {
		respondError(c, err)
		return
	}

	httpkit.OK(c, gin.H{"message": "attachment deleted"})
}
