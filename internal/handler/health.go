package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type ClientCounter interface {
	ConnectedClientCount() int
}

type HealthHandler struct {
	// DB is optional; readiness only checks it when configured.
	DB     *gorm.DB
	Cache  Pinger
	Stream ClientCounter
}

func (h *HealthHandler) Register(r gin.IRouter) {
	r.GET("/healthz", h.health)
	r.GET("/readyz", h.ready)
	r.GET("/api/health", h.status)
}

// @Summary Health check
// @Tags health
// @Success 200 {object} map[string]string
// @Router /healthz [get]
func (h *HealthHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary Readiness check
// @Tags health
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /readyz [get]
func (h *HealthHandler) ready(c *gin.Context) {
	if h.cacheStatus(c.Request.Context()) != "connected" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "cache_unreachable"})
		return
	}
	if h.DB != nil {
		sqlDB, err := h.DB.DB()
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_error"})
			return
		}
		if err := sqlDB.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_unreachable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// @Summary Service status
// @Tags health
// @Success 200 {object} map[string]any
// @Failure 503 {object} map[string]any
// @Router /api/health [get]
func (h *HealthHandler) status(c *gin.Context) {
	cacheStatus := h.cacheStatus(c.Request.Context())
	ws := gin.H{"connected": 0, "status": "not initialized"}
	if h.Stream != nil {
		ws = gin.H{"connected": h.Stream.ConnectedClientCount(), "status": "running"}
	}
	code := http.StatusOK
	status := "ok"
	if cacheStatus != "connected" {
		code = http.StatusServiceUnavailable
		status = "degraded"
	}
	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"services": gin.H{
			"cache":     cacheStatus,
			"websocket": ws,
		},
	})
}

func (h *HealthHandler) cacheStatus(ctx context.Context) string {
	if h.Cache == nil {
		return "disconnected"
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := h.Cache.Ping(ctx); err != nil {
		return "error"
	}
	return "connected"
}
