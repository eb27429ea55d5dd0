package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/fgts-api/internal/models"
	"github.com/nexconsult/fgts-api/internal/services"
	"github.com/sirupsen/logrus"
)

const userKey = "user"

// Authenticator resolves a bearer token into a user with its role
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

// Auth requires a valid bearer token and stores the caller in the context
func Auth(auth Authenticator, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			abortWith(c, http.StatusUnauthorized, "No token provided", models.ErrorCodeUnauthorized)
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, services.ErrUnauthorized) {
				abortWith(c, http.StatusUnauthorized, "Invalid or expired token", models.ErrorCodeUnauthorized)
				return
			}

			logger.WithFields(logrus.Fields{
				"request_id": c.GetString("request_id"),
				"error":      err.Error(),
			}).Error("Authentication failed")

			if services.IsConfigurationError(err) {
				abortWith(c, http.StatusInternalServerError, "Authentication is not configured", models.ErrorCodeConfiguration)
				return
			}
			abortWith(c, http.StatusServiceUnavailable, "Authentication unavailable", models.ErrorCodeInternal)
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// RequireRole rejects callers whose role is not listed
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			abortWith(c, http.StatusUnauthorized, "No token provided", models.ErrorCodeUnauthorized)
			return
		}

		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}

		abortWith(c, http.StatusForbidden, "Access denied", models.ErrorCodeForbidden)
	}
}

// CurrentUser returns the authenticated caller, or nil
func CurrentUser(c *gin.Context) *models.User {
	value, exists := c.Get(userKey)
	if !exists {
		return nil
	}
	user, _ := value.(*models.User)
	return user
}

func bearerToken(header string) string {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func abortWith(c *gin.Context, status int, message, code string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Error:     message,
		Code:      code,
		Timestamp: time.Now(),
		Path:      c.Request.URL.Path,
	})
}
