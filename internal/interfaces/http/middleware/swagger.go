package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/config"
)

// SwaggerProtection returns the middleware chain for the API docs routes:
// a 404 when docs are disabled, otherwise authChain when RequireAuth is set.
func SwaggerProtection(cfg config.SwaggerConfig, authChain ...gin.HandlerFunc) []gin.HandlerFunc {
	if !cfg.Enabled {
		return []gin.HandlerFunc{func(c *gin.Context) {
			abortWithError(c, shared.CodeNotFound, "API documentation is not available")
		}}
	}
	if cfg.RequireAuth {
		return authChain
	}
	return nil
}
