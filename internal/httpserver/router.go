package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"chimed/internal/handler"
	"chimed/pkg/metrics"
	"chimed/pkg/util"
)

// NewRouter wires the device-facing API: health endpoints, prometheus
// metrics, login, and the authenticated task/settings/alarm surface.
func NewRouter(
	taskHandler *handler.TaskHandler,
	settingsHandler *handler.SettingsHandler,
	alarmHandler *handler.AlarmHandler,
	authHandler *handler.AuthHandler,
	jwtSecret string,
	logger *zap.Logger,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLog(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})
	r.GET("/readyz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/auth/login", authHandler.Login)

	api := r.Group("/", RequireAuth(jwtSecret))
	{
		api.GET("/tasks", taskHandler.ListTasks)
		api.POST("/tasks", taskHandler.CreateTask)
		api.PATCH("/tasks/:id", taskHandler.PatchTask)
		api.DELETE("/tasks/:id", taskHandler.DeleteTask)
		api.POST("/tasks/:id/toggle", taskHandler.ToggleTask)
		api.PUT("/tasks/order", taskHandler.ReorderTasks)

		api.GET("/settings", settingsHandler.Get)
		api.PUT("/settings", settingsHandler.Put)

		api.GET("/alarm", alarmHandler.Status)
		api.POST("/alarm/stop", alarmHandler.Stop)
	}

	return r
}

// requestLog 请求日志 + 延迟指标中间件
func requestLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		metrics.RecordHTTPRequestDuration(c.Request.Method, path, strconv.Itoa(status), latency)
		logger.Info("HTTP Request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// RequireAuth 中间件：校验设备 token
func RequireAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := util.ExtractToken(c.Request)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		deviceID, err := util.ParseJWT(token, jwtSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set("device_id", deviceID)
		c.Next()
	}
}
