// Package handler exposes the sync engine's REST surface.
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ticket-ops/catalog-sync-go/internal/models"
	"github.com/ticket-ops/catalog-sync-go/internal/service"
	"github.com/ticket-ops/catalog-sync-go/pkg/logger"
)

// handleServiceError maps the service error taxonomy onto HTTP statuses:
// validation 400, not-found 404, already-blocked 409, store failures 500.
func handleServiceError(c *gin.Context, err error) {
	switch err.(type) {
	case *service.ValidationError:
		logger.Log.Warn("Validation error",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
		)
		respond(c, http.StatusBadRequest, "Bad Request", err.Error())
	case *service.NotFoundError:
		logger.Log.Warn("Not found",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
		)
		respond(c, http.StatusNotFound, "Not Found", err.Error())
	case *service.AlreadyBlockedError:
		logger.Log.Warn("Already blocked",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
		)
		respond(c, http.StatusConflict, "Conflict", err.Error())
	case *service.StoreWriteError:
		logger.Log.Error("Store write error",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
		)
		respond(c, http.StatusInternalServerError, "Internal Server Error", "warehouse write failed")
	default:
		logger.Log.Error("Unexpected error",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
		)
		respond(c, http.StatusInternalServerError, "Internal Server Error", "an unexpected error occurred")
	}
}

func respond(c *gin.Context, status int, errName, message string) {
	c.JSON(status, models.ErrorResponse{
		Status:    status,
		Error:     errName,
		Message:   message,
		Timestamp: time.Now(),
		Path:      c.Request.URL.Path,
	})
}

func badRequest(c *gin.Context, message string) {
	respond(c, http.StatusBadRequest, "Bad Request", message)
}
