package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bartuchat.app/server/internal/http/dto"
	"bartuchat.app/server/internal/http/middleware"
	"bartuchat.app/server/internal/model"
	"bartuchat.app/server/internal/service"
	"bartuchat.app/server/internal/store"
)

type AttachmentHandler struct {
	attachments service.AttachmentService
}

func NewAttachmentHandler(attachments service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachments: attachments}
}

func (h *AttachmentHandler) Upload(c *gin.Context) {
	ctx := c.Request.Context()
	owner := middleware.GetOwner(ctx)

	var req dto.UploadAttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	att := &model.Attachment{
		OwnerID:  owner.OwnerID,
		FileName: req.FileName,
		FileType: req.FileType,
		FileSize: req.FileSize,
		URL:      req.URL,
	}
	if req.Content != "" {
		att.Content = &req.Content
	}

	if err := h.attachments.Upload(ctx, att); err != nil {
		slog.ErrorContext(ctx, "failed to upload attachment", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, dto.ToAttachmentResponse(*att))
}

func (h *AttachmentHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	owner := middleware.GetOwner(ctx)

	atts, err := h.attachments.List(ctx, owner.OwnerID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list attachments", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list attachments"})
		return
	}

	out := make([]dto.AttachmentResponse, 0, len(atts))
	for _, att := range atts {
		out = append(out, dto.ToAttachmentResponse(att))
	}
	c.JSON(http.StatusOK, out)
}

func (h *AttachmentHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	owner := middleware.GetOwner(ctx)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid attachment id"})
		return
	}

	if err := h.attachments.Delete(ctx, owner.OwnerID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "attachment not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to delete attachment", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete attachment"})
		return
	}

	c.Status(http.StatusNoContent)
}
