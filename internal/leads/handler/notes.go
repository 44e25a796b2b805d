package handler

import (
	"net/http"

	"leadflow_backend/internal/leads/transport"
	"leadflow_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h *Handler) ListNotes(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.ListNotes(c.Request.Context(), id, queryInt(c, "limit"), queryInt(c, "offset"))
	if err != nil {
		respondError(c, err)
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) AddNote(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	req.Author = fillActor(c, req.Author)

	created, err := h.svc.AddNote(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	httpkit.JSON(c, http.StatusCreated, created)
}
