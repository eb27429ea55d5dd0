package services

import (
	"context"
	"sync/atomic"

	"github.com/nexconsult/fgts-api/internal/utils"
	"github.com/sirupsen/logrus"
)

// WebhookService resolves correlation entries from provider callbacks
type WebhookService struct {
	store  CorrelationStore
	logger *logrus.Logger

	received atomic.Int64
	matched  atomic.Int64
}

// NewWebhookService creates a new webhook service
func NewWebhookService(store CorrelationStore, logger *logrus.Logger) *WebhookService {
	return &WebhookService{
		store:  store,
		logger: logger,
	}
}

// HandleCallback resolves the entry named by the payload's documentNumber with
// the remaining fields. It reports whether a pending consultation matched.
// Unknown documents and malformed payloads are logged and dropped.
func (s *WebhookService) HandleCallback(ctx context.Context, payload map[string]interface{}) bool {
	s.received.Add(1)

	documentNumber := utils.NormalizeDocument(payload["documentNumber"])
	logger := s.logger.WithField("document_number", documentNumber)

	if documentNumber == "" {
		logger.WithField("payload_keys", len(payload)).Warn("Webhook without documentNumber dropped")
		return false
	}

	result := make(map[string]interface{}, len(payload))
	for key, value := range payload {
		if key != "documentNumber" {
			result[key] = value
		}
	}

	matched, err := s.store.Resolve(ctx, documentNumber, result)
	if err != nil {
		logger.WithError(err).Error("Failed to resolve consultation from webhook")
		return false
	}
	if matched {
		s.matched.Add(1)
		logger.Info("Webhook matched pending consultation")
	}
	return matched
}

// Stats returns callback counters
func (s *WebhookService) Stats() map[string]interface{} {
	return map[string]interface{}{
		"received": s.received.Load(),
		"matched":  s.matched.Load(),
	}
}
