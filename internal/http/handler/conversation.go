package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"bartuchat.app/server/internal/http/dto"
	"bartuchat.app/server/internal/http/middleware"
	"bartuchat.app/server/internal/service"
	"bartuchat.app/server/internal/store"
)

type ConversationHandler struct {
	conversations service.ConversationService
}

func NewConversationHandler(conversations service.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

func (h *ConversationHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	owner := middleware.GetOwner(ctx)

	convs, err := h.conversations.List(ctx, owner.OwnerID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list conversations", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list conversations"})
		return
	}

	out := make([]dto.ConversationResponse, 0, len(convs))
	for _, conv := range convs {
		out = append(out, dto.ToConversationResponse(conv))
	}
	c.JSON(http.StatusOK, out)
}

func (h *ConversationHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	owner := middleware.GetOwner(ctx)

	view, err := h.conversations.GetByURL(ctx, owner.OwnerID, c.Param("url"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to load conversation", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversation"})
		return
	}

	c.JSON(http.StatusOK, dto.ToConversationDetailResponse(view))
}

func (h *ConversationHandler) Rename(c *gin.Context) {
	ctx := c.Request.Context()
	owner := middleware.GetOwner(ctx)

	var req dto.RenameConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conv, err := h.conversations.Rename(ctx, owner.OwnerID, c.Param("url"), req.Name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to rename conversation", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rename conversation"})
		return
	}

	c.JSON(http.StatusOK, dto.ToConversationResponse(*conv))
}

func (h *ConversationHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	owner := middleware.GetOwner(ctx)

	if err := h.conversations.Delete(ctx, owner.OwnerID, c.Param("url")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to delete conversation", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete conversation"})
		return
	}

	c.Status(http.StatusNoContent)
}
