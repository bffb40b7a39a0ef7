package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const AliveText = "Bot is alive ✅"

// KeepAliveHandler answers hosting-platform and uptime-monitor probes.
// It has no link to the bot pipeline.
type KeepAliveHandler struct{}

func NewKeepAliveHandler() *KeepAliveHandler {
	return &KeepAliveHandler{}
}

func (h *KeepAliveHandler) Alive(c *gin.Context) {
	c.String(http.StatusOK, AliveText)
}

func (h *KeepAliveHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
