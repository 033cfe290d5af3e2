// Package middleware provides HTTP middleware for the sync engine's REST
// surface.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ticket-ops/catalog-sync-go/internal/models"
	"github.com/ticket-ops/catalog-sync-go/pkg/logger"
)

const (
	headerAPIKey     = "X-API-Key"
	headerAuth       = "Authorization"
	headerActingUser = "X-Acting-User"
	bearerPrefix     = "Bearer "

	ctxRolesKey = "auth.roles"
	ctxUserKey  = "auth.user"
)

// APIKeyAuth authenticates callers by API key and attaches the roles the key
// carries. Keys come from configuration; automation accounts and operators
// each get their own key.
type APIKeyAuth struct {
	keyRoles map[string][]string
}

// NewAPIKeyAuth creates the middleware from a key -> roles map. With no keys
// configured every request is rejected.
func NewAPIKeyAuth(keyRoles map[string][]string) *APIKeyAuth {
	cleaned := make(map[string][]string, len(keyRoles))
	for key, roles := range keyRoles {
		if key != "" {
			cleaned[key] = roles
		}
	}
	return &APIKeyAuth{keyRoles: cleaned}
}

// Middleware validates the API key from X-API-Key or Authorization: Bearer
// and stores the caller's roles and acting-user name on the request context.
func (a *APIKeyAuth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := a.extractAPIKey(c)
		roles, ok := a.lookup(apiKey)
		if !ok {
			logger.Log.Warn("Unauthorized request",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Status:    http.StatusUnauthorized,
				Error:     "Unauthorized",
				Message:   "invalid or missing API key",
				Timestamp: time.Now(),
				Path:      c.Request.URL.Path,
			})
			return
		}

		user := c.GetHeader(headerActingUser)
		if user == "" {
			user = "system"
		}

		c.Set(ctxRolesKey, roles)
		c.Set(ctxUserKey, user)
		c.Next()
	}
}

// RequireRoles aborts with 403 unless the authenticated key carries at least
// one of the given roles.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		granted, _ := c.Get(ctxRolesKey)
		grantedRoles, _ := granted.([]string)
		for _, want := range roles {
			for _, have := range grantedRoles {
				if want == have {
					c.Next()
					return
				}
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{
			Status:    http.StatusForbidden,
			Error:     "Forbidden",
			Message:   "caller lacks the required role",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
	}
}

// ActingUser returns the caller identity recorded by the auth middleware.
func ActingUser(c *gin.Context) string {
	if user, ok := c.Get(ctxUserKey); ok {
		if s, ok := user.(string); ok && s != "" {
			return s
		}
	}
	return "system"
}

func (a *APIKeyAuth) extractAPIKey(c *gin.Context) string {
	if key := c.GetHeader(headerAPIKey); key != "" {
		return key
	}
	auth := c.GetHeader(headerAuth)
	if strings.HasPrefix(auth, bearerPrefix) {
		return strings.TrimPrefix(auth, bearerPrefix)
	}
	return ""
}

func (a *APIKeyAuth) lookup(apiKey string) ([]string, bool) {
	if apiKey == "" {
		return nil, false
	}
	// Constant-time comparison against every configured key
	var matched []string
	found := false
	for key, roles := range a.keyRoles {
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1 {
			matched = roles
			found = true
		}
	}
	return matched, found
}
