package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ticket-ops/catalog-sync-go/internal/middleware"
	"github.com/ticket-ops/catalog-sync-go/internal/models"
	"github.com/ticket-ops/catalog-sync-go/internal/service"
)

// BlacklistHandler handles blacklist HTTP requests.
type BlacklistHandler struct {
	blacklistService *service.BlacklistService
}

// NewBlacklistHandler creates a new BlacklistHandler instance.
func NewBlacklistHandler(blacklistService *service.BlacklistService) *BlacklistHandler {
	return &BlacklistHandler{
		blacklistService: blacklistService,
	}
}

// Register mounts the blacklist routes on the given group.
func (h *BlacklistHandler) Register(g *gin.RouterGroup) {
	g.GET("", h.List)
	g.POST("/ticketmaster-id", h.createWith(models.CriteriaTicketmasterID))
	g.POST("/event-code", h.createWith(models.CriteriaEventCode))
	g.POST("/listing-id", h.createWith(models.CriteriaListingID))
	g.POST("/listing-section", h.createWith(models.CriteriaListingSection))
	g.DELETE("", h.Delete)
}

// List returns one page of blacklist entries.
func (h *BlacklistHandler) List(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		badRequest(c, "page must be an integer")
		return
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	if err != nil {
		badRequest(c, "page_size must be an integer")
		return
	}
	search := c.Query("search")

	result, err := h.blacklistService.List(c.Request.Context(), page, pageSize, search)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *BlacklistHandler) createWith(criteria models.BlacklistCriteria) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CreateBlacklistRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request payload: "+err.Error())
			return
		}
		req.Criteria = criteria

		entry, err := h.blacklistService.Create(c.Request.Context(), req, middleware.ActingUser(c))
		if err != nil {
			handleServiceError(c, err)
			return
		}
		c.JSON(http.StatusCreated, entry)
	}
}

// Delete removes one blacklist entry.
func (h *BlacklistHandler) Delete(c *gin.Context) {
	var req models.DeleteBlacklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request payload: "+err.Error())
		return
	}

	entry, err := h.blacklistService.Delete(c.Request.Context(), req, middleware.ActingUser(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}
