package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ticket-ops/catalog-sync-go/internal/cache"
	"github.com/ticket-ops/catalog-sync-go/internal/outbox"
	"github.com/ticket-ops/catalog-sync-go/internal/warehouse"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	gateway     *warehouse.Gateway
	publisher   *outbox.Publisher
	invalidator *cache.Invalidator
}

// NewHealthHandler creates a new HealthHandler instance.
func NewHealthHandler(gateway *warehouse.Gateway, publisher *outbox.Publisher, invalidator *cache.Invalidator) *HealthHandler {
	return &HealthHandler{
		gateway:     gateway,
		publisher:   publisher,
		invalidator: invalidator,
	}
}

// LivenessProbe checks if the application is running.
func (h *HealthHandler) LivenessProbe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "UP",
		"time":   time.Now(),
	})
}

// ReadinessProbe checks if the application is ready to serve traffic.
func (h *HealthHandler) ReadinessProbe(c *gin.Context) {
	ctx := c.Request.Context()

	// Check warehouse connectivity
	if err := h.gateway.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "DOWN",
			"warehouse": "unhealthy",
			"error":     err.Error(),
			"time":      time.Now(),
		})
		return
	}

	// Check RabbitMQ connectivity
	if !h.publisher.IsHealthy() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "DOWN",
			"rabbitmq": "unhealthy",
			"time":     time.Now(),
		})
		return
	}

	// Check cache connectivity
	if err := h.invalidator.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "DOWN",
			"cache":  "unhealthy",
			"error":  err.Error(),
			"time":   time.Now(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "UP",
		"warehouse": "healthy",
		"rabbitmq":  "healthy",
		"cache":     "healthy",
		"time":      time.Now(),
	})
}
