package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/KevinKickass/mtconnect-core/internal/types"
)

const (
	permissionsKey = "permissions"
	subjectKey     = "subject"
)

var allPermissions = []Permission{PermRead, PermIngest, PermAdmin}

// AuthMiddleware validates bearer tokens and stores the caller's permissions
// in the gin context.
func (a *AuthService) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.enabled {
			c.Set(permissionsKey, allPermissions)
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				types.NewErrorResponse("AUTH_401", "missing authorization header", nil))
			return
		}

		// "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				types.NewErrorResponse("AUTH_401", "invalid authorization header format", nil))
			return
		}

		subject, permissions, err := a.ValidateToken(parts[1])
		if err != nil {
			a.logger.Warn("Token rejected",
				zap.String("client_ip", c.ClientIP()),
				zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				types.NewErrorResponse("AUTH_401", "invalid or expired token", nil))
			return
		}

		c.Set(subjectKey, subject)
		c.Set(permissionsKey, permissions)
		c.Next()
	}
}

// RequirePermission aborts with 403 unless the caller holds required.
func RequirePermission(required Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !HasPermission(c, required) {
			c.AbortWithStatusJSON(http.StatusForbidden,
				types.NewErrorResponse("AUTH_403", "insufficient permissions", gin.H{"required": string(required)}))
			return
		}
		c.Next()
	}
}

func HasPermission(c *gin.Context, required Permission) bool {
	perms, ok := c.Get(permissionsKey)
	if !ok {
		return false
	}
	permissions, ok := perms.([]Permission)
	if !ok {
		return false
	}
	for _, p := range permissions {
		if p == required {
			return true
		}
	}
	return false
}

// Subject returns the token subject of the request, if any.
func Subject(c *gin.Context) string {
	return c.GetString(subjectKey)
}
