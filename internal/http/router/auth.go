package router

import (
	"github.com/gin-gonic/gin"

	"bartuchat.app/server/internal/http/handler"
)

func AuthRouter(rg *gin.RouterGroup, h *handler.AuthHandler) {
	rg.GET("/login", h.Login)
	rg.GET("/callback", h.Callback)
	rg.POST("/logout", h.Logout)
}
