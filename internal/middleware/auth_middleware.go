package middleware

import (
	"net/http"
	"strings"

	"github.com/anangai/civic-portal-backend/internal/app/service"
	apperrors "github.com/anangai/civic-portal-backend/internal/errors"
	"github.com/gin-gonic/gin"
)

// AdminVerifier reports whether a bearer token belongs to an admin
type AdminVerifier interface {
	VerifyAdmin(token string) bool
}

type AuthMiddleware struct {
	admins AdminVerifier
}

func NewAuthMiddleware(admins AdminVerifier) *AuthMiddleware {
	return &AuthMiddleware{admins: admins}
}

// RequireAdmin accepts "Authorization: Bearer <token>" where the token is
// the static admin token or a signed admin session. Websocket upgrades may
// pass ?token= instead.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" && c.IsWebsocket() {
			if token := c.Query("token"); token != "" {
				authHeader = "Bearer " + token
			}
		}
		if authHeader == "" {
			log.Warn("Missing authorization header", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			apperrors.Unauthorized(c, "Admin token required")
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			log.Warn("Invalid authorization header format", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "Authorization header must be a Bearer token")
			c.Abort()
			return
		}

		if !m.admins.VerifyAdmin(parts[1]) {
			log.Warn("Admin token rejected", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			apperrors.Respond(c, service.ErrInvalidAdminToken, "verify admin token")
			c.Abort()
			return
		}

		c.Next()
	}
}
