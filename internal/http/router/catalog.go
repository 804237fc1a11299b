package router

import (
	"github.com/gin-gonic/gin"

	"bartuchat.app/server/internal/http/handler"
)

func CatalogRouter(rg *gin.RouterGroup, h *handler.CatalogHandler) {
	rg.GET("", h.List)
	rg.POST("", h.Register)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
}
