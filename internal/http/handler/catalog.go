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

type CatalogHandler struct {
	catalog service.CatalogService
}

func NewCatalogHandler(catalog service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func (h *CatalogHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	owner := middleware.GetOwner(ctx)

	models, err := h.catalog.List(ctx, owner.OwnerID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list models", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list models"})
		return
	}

	out := make([]dto.ModelResponse, 0, len(models))
	for _, m := range models {
		out = append(out, dto.ToModelResponse(m))
	}
	c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) Register(c *gin.Context) {
	ctx := c.Request.Context()
	owner := middleware.GetOwner(ctx)

	var req dto.RegisterModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m := &model.CatalogModel{
		Name:        req.Name,
		DisplayName: req.DisplayName,
		OwnerID:     owner.OwnerID,
		APIURL:      req.APIURL,
		APIKey:      req.APIKey,
	}

	if err := h.catalog.Register(ctx, m); err != nil {
		if errors.Is(err, service.ErrModelNameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "a model with this name already exists"})
			return
		}
		slog.ErrorContext(ctx, "failed to register model", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register model"})
		return
	}

	c.JSON(http.StatusCreated, dto.ToModelResponse(*m))
}

func (h *CatalogHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	owner := middleware.GetOwner(ctx)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid model id"})
		return
	}

	var req dto.UpdateModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m := &model.CatalogModel{
		ID:          id,
		Name:        req.Name,
		DisplayName: req.DisplayName,
		OwnerID:     owner.OwnerID,
		APIURL:      req.APIURL,
		APIKey:      req.APIKey,
	}

	if err := h.catalog.Update(ctx, m); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "model not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to update model", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update model"})
		return
	}

	c.JSON(http.StatusOK, dto.ToModelResponse(*m))
}

func (h *CatalogHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	owner := middleware.GetOwner(ctx)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid model id"})
		return
	}

	if err := h.catalog.Delete(ctx, owner.OwnerID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "model not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to delete model", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete model"})
		return
	}

	c.Status(http.StatusNoContent)
}
