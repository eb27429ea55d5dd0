package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nexconsult/fgts-api/internal/config"
	"github.com/nexconsult/fgts-api/internal/models"
	"github.com/nexconsult/fgts-api/internal/utils"
	"github.com/sirupsen/logrus"
)

// ConsultationService runs one consultation end to end: mark pending, dispatch,
// then poll the correlation store until the webhook resolves the entry.
type ConsultationService struct {
	provider     ProviderServiceInterface
	store        CorrelationStore
	logger       *logrus.Logger
	pollInterval time.Duration
	maxAttempts  int

	total     atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	timedOut  atomic.Int64
	failures  atomic.Int64
}

// NewConsultationService creates a new consultation service
func NewConsultationService(cfg config.ProviderConfig, provider ProviderServiceInterface, store CorrelationStore, logger *logrus.Logger) *ConsultationService {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	attempts := cfg.MaxPollAttempts
	if attempts <= 0 {
		attempts = 20
	}

	return &ConsultationService{
		provider:     provider,
		store:        store,
		logger:       logger,
		pollInterval: interval,
		maxAttempts:  attempts,
	}
}

// Consult dispatches a consultation and waits for its webhook. A provider
// failure or a missing callback is reported in the result, not as an error.
func (s *ConsultationService) Consult(ctx context.Context, documentNumber, provider string) (*models.ConsultationResult, error) {
	documentNumber = strings.TrimSpace(documentNumber)
	if documentNumber == "" {
		return nil, ErrDocumentRequired
	}

	provider, err := s.provider.ValidateProvider(provider)
	if err != nil {
		return nil, err
	}

	s.total.Add(1)
	logger := s.logger.WithFields(logrus.Fields{
		"document_number": documentNumber,
		"provider":        provider,
	})

	if err := s.store.MarkPending(ctx, documentNumber); err != nil {
		s.failures.Add(1)
		return nil, fmt.Errorf("mark pending: %w", err)
	}

	if err := s.provider.SendConsultation(ctx, documentNumber, provider); err != nil {
		s.failures.Add(1)
		return nil, err
	}

	entry, err := s.poll(ctx, documentNumber)
	if err != nil {
		s.failures.Add(1)
		return nil, err
	}

	result := interpret(documentNumber, provider, entry)
	switch result.Outcome {
	case models.OutcomeSucceeded:
		s.succeeded.Add(1)
	case models.OutcomeFailed:
		s.failed.Add(1)
	case models.OutcomeTimedOut:
		s.timedOut.Add(1)
	}

	logger.WithField("outcome", result.Outcome).Info("Consultation completed")
	return result, nil
}

// poll returns the finished entry, or nil when attempts run out
func (s *ConsultationService) poll(ctx context.Context, documentNumber string) (*models.ConsultationEntry, error) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		entry, err := s.store.Get(ctx, documentNumber)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			s.logger.WithError(err).WithField("document_number", documentNumber).Warn("Correlation lookup failed")
			continue
		}
		if entry.IsFinished() {
			return entry, nil
		}
	}

	return nil, nil
}

func interpret(documentNumber, provider string, entry *models.ConsultationEntry) *models.ConsultationResult {
	result := &models.ConsultationResult{
		DocumentNumber: documentNumber,
		Provider:       provider,
	}

	if entry == nil {
		result.Outcome = models.OutcomeTimedOut
		result.Error = models.NoResponseMessage
		return result
	}

	if balance, ok := entry.Result["balance"]; ok && !utils.IsBlankBalance(balance) {
		result.Outcome = models.OutcomeSucceeded
		result.Balance = balance
		return result
	}

	result.Outcome = models.OutcomeFailed
	result.Error = models.NoResponseMessage
	for _, key := range []string{"errorMessage", "error"} {
		if msg := messageText(entry.Result[key]); msg != "" {
			result.Error = msg
			break
		}
	}
	return result
}

func messageText(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case bool:
		if !v {
			return ""
		}
	}
	return fmt.Sprint(value)
}

// Status returns the correlation entry for a document number
func (s *ConsultationService) Status(ctx context.Context, documentNumber string) (*models.ConsultationEntry, error) {
	documentNumber = strings.TrimSpace(documentNumber)
	if documentNumber == "" {
		return nil, ErrDocumentRequired
	}
	return s.store.Get(ctx, documentNumber)
}

// ValidateProvider returns the canonical provider name or an InvalidProviderError
func (s *ConsultationService) ValidateProvider(provider string) (string, error) {
	return s.provider.ValidateProvider(provider)
}

// AllowedProviders returns the configured provider allow-list
func (s *ConsultationService) AllowedProviders() []string {
	return s.provider.AllowedProviders()
}

// Metrics returns outcome counters
func (s *ConsultationService) Metrics() models.ConsultationMetrics {
	return models.ConsultationMetrics{
		Total:     s.total.Load(),
		Succeeded: s.succeeded.Load(),
		Failed:    s.failed.Load(),
		TimedOut:  s.timedOut.Load(),
		Errors:    s.failures.Load(),
	}
}

// Health returns service health status
func (s *ConsultationService) Health() map[string]interface{} {
	return map[string]interface{}{
		"status":            "healthy",
		"poll_interval":     s.pollInterval.String(),
		"max_poll_attempts": s.maxAttempts,
		"correlation":       s.store.Health(),
	}
}
