package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chimed/internal/alert"
)

type AlarmHandler struct {
	player *alert.Player
	logger *zap.Logger
}

func NewAlarmHandler(player *alert.Player, logger *zap.Logger) *AlarmHandler {
	return &AlarmHandler{player: player, logger: logger}
}

// Status reports whether an alert session is ringing and in which mode.
func (h *AlarmHandler) Status(c *gin.Context) {
	ringing, mode := h.player.Ringing()
	c.JSON(http.StatusOK, gin.H{"ringing": ringing, "mode": mode})
}

// Stop forcibly silences the active alert session. Safe when idle.
func (h *AlarmHandler) Stop(c *gin.Context) {
	h.player.Stop()
	h.logger.Info("Alarm stopped by user")
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
