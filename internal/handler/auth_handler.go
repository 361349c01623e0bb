package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chimed/pkg/util"
)

// AuthHandler exchanges the configured sync passphrase for a device token.
type AuthHandler struct {
	passwordHash string
	jwtSecret    string
	logger       *zap.Logger
}

func NewAuthHandler(passwordHash, jwtSecret string, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		passwordHash: passwordHash,
		jwtSecret:    jwtSecret,
		logger:       logger,
	}
}

type loginRequest struct {
	DeviceID string `json:"device_id" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !util.CheckPassword(req.Password, h.passwordHash) {
		h.logger.Warn("Login rejected",
			zap.String("device_id", req.DeviceID),
			zap.String("client_ip", c.ClientIP()),
		)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid passphrase"})
		return
	}

	token, err := util.GenerateJWT(req.DeviceID, h.jwtSecret)
	if err != nil {
		h.logger.Error("Failed to generate token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	h.logger.Info("Device logged in", zap.String("device_id", req.DeviceID))
	c.JSON(http.StatusOK, gin.H{"token": token})
}
