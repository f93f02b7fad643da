package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"crm-api/internal/search"
)

const serviceName = "crm-api"

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	db     *gorm.DB
	redis  *redis.Client
	search search.Index
}

// NewHealthHandler creates a new HealthHandler. redis and index may be nil.
func NewHealthHandler(db *gorm.DB, redisClient *redis.Client, index search.Index) *HealthHandler {
	return &HealthHandler{
		db:     db,
		redis:  redisClient,
		search: index,
	}
}

// Health godoc
// @Summary      Liveness probe
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": serviceName,
	})
}

// Ready godoc
// @Summary      Readiness probe
// @Description  Fails when the database or a configured redis is unreachable. Search is reported but optional.
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Failure      503 {object} map[string]interface{}
// @Router       /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if h.db == nil {
		notReady(c, "database not initialized")
		return
	}
	sqlDB, err := h.db.DB()
	if err != nil {
		notReady(c, "database error")
		return
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		notReady(c, "database not reachable")
		return
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			notReady(c, "redis not reachable")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ready",
		"service": serviceName,
		"search":  h.search != nil && h.search.Healthy(),
	})
}

func notReady(c *gin.Context, reason string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"status":  "not ready",
		"service": serviceName,
		"error":   reason,
	})
}
