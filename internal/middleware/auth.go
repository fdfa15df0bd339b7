package middleware

import (
	"strings"

	"excos_backend/internal/auth"
	"excos_backend/internal/logger"
	"excos_backend/internal/models"
	"excos_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

const sessionClaimsKey = "session_claims"

// extractToken pulls the session token from the cookie or, as a fallback
// for API clients, the Authorization header.
func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(auth.SessionCookieName); err == nil && cookie != "" {
		return cookie
	}

	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}

	return ""
}

// AuthMiddleware requires a valid session and places its claims in the
// context.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			apperrors.HandleError(c, apperrors.NewUnauthorizedError("Not authenticated"))
			c.Abort()
			return
		}

		claims, err := auth.ParseSessionToken(token, secret)
		if err != nil {
			logger.CtxWarn(c.Request.Context(), "rejected invalid session token", "ip", c.ClientIP())
			apperrors.HandleError(c, apperrors.NewUnauthorizedError("Invalid or expired session"))
			c.Abort()
			return
		}

		setSession(c, claims)
		c.Next()
	}
}

// OptionalAuthMiddleware attaches claims when a valid session is present
// but lets anonymous requests through. The public submission and tracking
// endpoints use it.
func OptionalAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token != "" {
			if claims, err := auth.ParseSessionToken(token, secret); err == nil {
				setSession(c, claims)
			}
		}
		c.Next()
	}
}

// RequireAdmin rejects non-admin sessions. Must run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetSessionClaims(c)
		if claims == nil || claims.Role != models.UserRoleAdmin {
			apperrors.HandleError(c, apperrors.NewForbiddenError("Admin access required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func setSession(c *gin.Context, claims *auth.SessionClaims) {
	c.Set(sessionClaimsKey, claims)
	ctx := logger.WithUserID(c.Request.Context(), claims.UserID)
	c.Request = c.Request.WithContext(ctx)
}

// GetSessionClaims returns the claims set by the auth middleware, or nil.
func GetSessionClaims(c *gin.Context) *auth.SessionClaims {
	val, ok := c.Get(sessionClaimsKey)
	if !ok {
		return nil
	}
	claims, ok := val.(*auth.SessionClaims)
	if !ok {
		return nil
	}
	return claims
}
