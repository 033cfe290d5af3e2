package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ticket-ops/catalog-sync-go/internal/middleware"
	"github.com/ticket-ops/catalog-sync-go/internal/models"
	"github.com/ticket-ops/catalog-sync-go/internal/service"
)

// AutopricingHandler handles autopricing config HTTP requests.
type AutopricingHandler struct {
	autopricingService *service.AutopricingService
}

// NewAutopricingHandler creates a new AutopricingHandler instance.
func NewAutopricingHandler(autopricingService *service.AutopricingService) *AutopricingHandler {
	return &AutopricingHandler{
		autopricingService: autopricingService,
	}
}

// Register mounts the autopricing routes on the given group. Writes are
// restricted to operator roles.
func (h *AutopricingHandler) Register(g *gin.RouterGroup) {
	g.GET("", h.GetAll)
	g.GET("/history", h.GetHistory)
	g.POST("", middleware.RequireRoles("admin", "shadows-lead"), h.Upsert)
}

// GetAll returns every live config entry.
func (h *AutopricingHandler) GetAll(c *gin.Context) {
	entries, err := h.autopricingService.GetAll(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(entries),
		"items": entries,
	})
}

// GetHistory returns the config change history, newest first.
func (h *AutopricingHandler) GetHistory(c *gin.Context) {
	entries, err := h.autopricingService.GetHistory(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(entries),
		"items": entries,
	})
}

// Upsert writes one config key and reports any fan-out outcome.
func (h *AutopricingHandler) Upsert(c *gin.Context) {
	var req models.ConfigUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request payload: "+err.Error())
		return
	}

	report, err := h.autopricingService.UpsertConfig(c.Request.Context(), req.Key, req.Value, middleware.ActingUser(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	resp := gin.H{
		"key":   req.Key,
		"value": req.Value,
	}
	if report != nil {
		resp["fanout"] = report
	}
	c.JSON(http.StatusOK, resp)
}
