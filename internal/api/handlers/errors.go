package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/fgts-api/internal/models"
	"github.com/nexconsult/fgts-api/internal/services"
	"github.com/sirupsen/logrus"
)

// respondError writes an ErrorResponse
func respondError(c *gin.Context, status int, message, detail, code string) {
	c.JSON(status, models.ErrorResponse{
		Error:     message,
		Message:   detail,
		Code:      code,
		Timestamp: time.Now(),
		Path:      c.Request.URL.Path,
	})
}

// handleServiceError maps a service error onto an HTTP status and body
func handleServiceError(c *gin.Context, logger *logrus.Logger, err error) {
	var (
		providerErr *services.InvalidProviderError
		cfgErr      *services.ConfigurationError
		tokenErr    *services.TokenFetchError
		dispatchErr *services.ConsultationDispatchError
		identityErr *services.IdentityError
	)

	switch {
	case errors.Is(err, services.ErrDocumentRequired):
		respondError(c, http.StatusBadRequest, err.Error(), "", models.ErrorCodeDocumentRequired)
	case errors.As(err, &providerErr):
		respondError(c, http.StatusBadRequest, err.Error(), "", models.ErrorCodeInvalidProvider)
	case errors.Is(err, services.ErrNoDocuments),
		errors.Is(err, services.ErrInvalidFile),
		errors.Is(err, services.ErrFileRequired),
		errors.Is(err, services.ErrInvalidRole):
		respondError(c, http.StatusBadRequest, err.Error(), "", models.ErrorCodeInvalidRequest)
	case errors.Is(err, services.ErrUnauthorized):
		respondError(c, http.StatusUnauthorized, "Invalid or expired token", "", models.ErrorCodeUnauthorized)
	case errors.Is(err, services.ErrForbidden):
		respondError(c, http.StatusForbidden, "Access denied", "", models.ErrorCodeForbidden)
	case errors.Is(err, services.ErrNotFound):
		respondError(c, http.StatusNotFound, "Not found", "", models.ErrorCodeNotFound)
	case errors.Is(err, services.ErrShuttingDown):
		respondError(c, http.StatusServiceUnavailable, "Service unavailable", err.Error(), models.ErrorCodeUnavailable)
	case errors.As(err, &cfgErr):
		logServiceError(c, logger, err)
		respondError(c, http.StatusInternalServerError, err.Error(), "", models.ErrorCodeConfiguration)
	case errors.As(err, &tokenErr):
		logServiceError(c, logger, err)
		respondError(c, http.StatusInternalServerError, err.Error(), "", models.ErrorCodeTokenFetch)
	case errors.As(err, &dispatchErr):
		logServiceError(c, logger, err)
		respondError(c, http.StatusInternalServerError, dispatchErr.Message, "", models.ErrorCodeDispatch)
	case errors.As(err, &identityErr):
		logServiceError(c, logger, err)
		if identityErr.StatusCode >= 400 && identityErr.StatusCode < 500 {
			respondError(c, http.StatusBadRequest, identityErr.Message, "", models.ErrorCodeInvalidRequest)
			return
		}
		respondError(c, http.StatusBadGateway, "Identity provider unavailable", identityErr.Message, models.ErrorCodeInternal)
	default:
		logServiceError(c, logger, err)
		respondError(c, http.StatusInternalServerError, "Internal server error",
			"An unexpected error occurred while processing your request", models.ErrorCodeInternal)
	}
}

func logServiceError(c *gin.Context, logger *logrus.Logger, err error) {
	logger.WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"path":       c.Request.URL.Path,
		"error":      err.Error(),
	}).Error("Request failed")
}
