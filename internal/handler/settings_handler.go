package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chimed/internal/model"
	"chimed/internal/store"
)

type SettingsHandler struct {
	settings *store.SettingsStore
	logger   *zap.Logger
}

func NewSettingsHandler(settings *store.SettingsStore, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{settings: settings, logger: logger}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.settings.Get())
}

func (h *SettingsHandler) Put(c *gin.Context) {
	var next model.AlertSettings
	if err := c.ShouldBindJSON(&next); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.settings.Set(next)
	h.logger.Info("Alert settings updated",
		zap.String("sound_mode", next.SoundMode),
		zap.Float64("volume", next.Volume),
		zap.Int("audio_duration", next.AudioDuration),
		zap.Bool("audio_loop", next.AudioLoop),
	)
	c.JSON(http.StatusOK, h.settings.Get())
}
