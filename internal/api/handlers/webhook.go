package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/fgts-api/internal/models"
	"github.com/nexconsult/fgts-api/internal/services"
	"github.com/sirupsen/logrus"
)

const maxWebhookBody = 1 << 20

// WebhookHandler receives provider callbacks
type WebhookHandler struct {
	webhooks services.WebhookServiceInterface
	logger   *logrus.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(webhooks services.WebhookServiceInterface, logger *logrus.Logger) *WebhookHandler {
	return &WebhookHandler{
		webhooks: webhooks,
		logger:   logger,
	}
}

// Receive acknowledges a provider callback. The provider always gets 200 so
// it does not retry payloads that can never match.
// @Summary Provider webhook
// @Description Receive the asynchronous result of a balance consultation
// @Tags Webhook
// @Accept json
// @Produce json
// @Param payload body object true "Provider callback"
// @Success 200 {object} models.WebhookAck
// @Router /webhook [post]
func (h *WebhookHandler) Receive(c *gin.Context) {
	logger := h.logger.WithField("request_id", c.GetString("request_id"))

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		logger.WithError(err).Warn("Failed to read webhook body")
		c.JSON(http.StatusOK, models.WebhookAck{Received: true})
		return
	}

	var payload map[string]interface{}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil || payload == nil {
		logger.WithField("size", len(body)).Warn("Malformed webhook payload dropped")
		c.JSON(http.StatusOK, models.WebhookAck{Received: true})
		return
	}

	h.webhooks.HandleCallback(c.Request.Context(), payload)
	c.JSON(http.StatusOK, models.WebhookAck{Received: true})
}
