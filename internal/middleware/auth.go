package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/candemir/movie-catalog-service/internal/token"
)

// ContextClaimsKey is the key under which the verified access-token claims are
// stored in the Gin context.
const ContextClaimsKey = "accessClaims"

// Auth verifies the bearer token on the Authorization header. Access tokens
// are self-contained, so this never touches storage: signature and expiry
// decide everything.
func Auth(issuer *token.Issuer, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer <token>"})
			return
		}

		claims, err := issuer.Parse(parts[1])
		if err != nil {
			logger.Warn("access token parse failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired access token"})
			return
		}

		c.Set(ContextClaimsKey, claims)
		c.Next()
	}
}

// RequireRole gates a route group on the role claim. Must run after Auth.
func RequireRole(requiredRole string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if claims.Role != requiredRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// CurrentClaims returns the verified claims set by Auth, if any.
func CurrentClaims(c *gin.Context) (*token.AccessClaims, bool) {
	raw, exists := c.Get(ContextClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := raw.(*token.AccessClaims)
	return claims, ok
}

// CurrentUserID returns the authenticated user's numeric identifier.
func CurrentUserID(c *gin.Context) (uint, bool) {
	claims, ok := CurrentClaims(c)
	if !ok {
		return 0, false
	}
	id, err := claims.UserID()
	if err != nil {
		return 0, false
	}
	return id, true
}
