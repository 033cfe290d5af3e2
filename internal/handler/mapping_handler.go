package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ticket-ops/catalog-sync-go/internal/middleware"
	"github.com/ticket-ops/catalog-sync-go/internal/models"
	"github.com/ticket-ops/catalog-sync-go/internal/service"
)

// MappingHandler handles event-mapping HTTP requests for one marketplace.
type MappingHandler struct {
	mappingService *service.MappingService
}

// NewMappingHandler creates a new MappingHandler instance.
func NewMappingHandler(mappingService *service.MappingService) *MappingHandler {
	return &MappingHandler{
		mappingService: mappingService,
	}
}

// Register mounts the mapping routes on the given group.
func (h *MappingHandler) Register(g *gin.RouterGroup) {
	g.GET("", h.Unmapped)
	g.POST("/mapped-events", h.SearchMapped)
	g.POST("/update-event-id", h.UpdateEventID)
	g.POST("/update-ignore", h.UpdateIgnore)
	g.POST("/remove-mapping", h.RemoveMapping)
}

// Unmapped returns one page of events with no secondary identifier.
func (h *MappingHandler) Unmapped(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		badRequest(c, "page must be an integer")
		return
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "500"))
	if err != nil {
		badRequest(c, "page_size must be an integer")
		return
	}

	events, err := h.mappingService.UnmappedEvents(c.Request.Context(), page, pageSize)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(events),
		"items": events,
	})
}

// SearchMapped returns mapped events filtered by name or canonical code.
func (h *MappingHandler) SearchMapped(c *gin.Context) {
	var search models.MappedEventSearch
	if err := c.ShouldBindJSON(&search); err != nil {
		badRequest(c, "invalid request payload: "+err.Error())
		return
	}

	events, err := h.mappingService.SearchMapped(c.Request.Context(), search)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(events),
		"items": events,
	})
}

// UpdateEventID sets the secondary-marketplace identifier for an event.
func (h *MappingHandler) UpdateEventID(c *gin.Context) {
	var req models.UpdateMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request payload: "+err.Error())
		return
	}

	if err := h.mappingService.SetMapping(c.Request.Context(), req, middleware.ActingUser(c)); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// UpdateIgnore marks or unmarks an event as not-to-be-mapped.
func (h *MappingHandler) UpdateIgnore(c *gin.Context) {
	var req models.UpdateIgnoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request payload: "+err.Error())
		return
	}

	if err := h.mappingService.SetIgnore(c.Request.Context(), req, middleware.ActingUser(c)); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// RemoveMapping clears the secondary-marketplace identifier.
func (h *MappingHandler) RemoveMapping(c *gin.Context) {
	var req models.RemoveMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request payload: "+err.Error())
		return
	}

	if err := h.mappingService.RemoveMapping(c.Request.Context(), req, middleware.ActingUser(c)); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}
