package router

import (
	"github.com/gin-gonic/gin"

	"relaybot.app/relay/internal/http/handler"
)

func SetupRoutes(router *gin.Engine) {
	keepAlive := handler.NewKeepAliveHandler()

	router.GET("/", keepAlive.Alive)
	router.HEAD("/", keepAlive.Alive)
	router.GET("/health", keepAlive.Health)
}
