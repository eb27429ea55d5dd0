package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nexconsult/fgts-api/internal/config"
	"github.com/sirupsen/logrus"
)

// TokenSource yields bearer tokens for the provider API
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// ProviderClient sends balance consultations to the external provider. The
// provider answers later through the webhook.
type ProviderClient struct {
	config  config.ProviderConfig
	tokens  TokenSource
	client  *http.Client
	logger  *logrus.Logger
	allowed map[string]struct{}
}

type consultaPayload struct {
	DocumentNumber string `json:"documentNumber"`
	Provider       string `json:"provider"`
	Webhook        string `json:"webhook"`
}

// NewProviderClient creates a new provider client
func NewProviderClient(cfg config.ProviderConfig, tokens TokenSource, client *http.Client, logger *logrus.Logger) *ProviderClient {
	allowed := make(map[string]struct{}, len(cfg.AllowedProviders))
	for _, p := range cfg.AllowedProviders {
		allowed[strings.ToLower(p)] = struct{}{}
	}

	return &ProviderClient{
		config:  cfg,
		tokens:  tokens,
		client:  client,
		logger:  logger,
		allowed: allowed,
	}
}

// ValidateProvider returns the canonical provider name or an InvalidProviderError
func (p *ProviderClient) ValidateProvider(provider string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(provider))
	if _, ok := p.allowed[normalized]; !ok || normalized == "" {
		return "", &InvalidProviderError{Provider: provider, Allowed: p.config.AllowedProviders}
	}
	return normalized, nil
}

// AllowedProviders returns the configured allow-list
func (p *ProviderClient) AllowedProviders() []string {
	return p.config.AllowedProviders
}

// SendConsultation dispatches one consultation. It returns once the provider
// accepted the request.
func (p *ProviderClient) SendConsultation(ctx context.Context, documentNumber, provider string) error {
	provider, err := p.ValidateProvider(provider)
	if err != nil {
		return err
	}

	if names := missing("CONSULTA_API_URL", p.config.ConsultaURL, "WEBHOOK_URL", p.config.WebhookURL); len(names) > 0 {
		return &ConfigurationError{Missing: names}
	}

	token, err := p.tokens.Token(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(consultaPayload{
		DocumentNumber: documentNumber,
		Provider:       provider,
		Webhook:        p.config.WebhookURL,
	})
	if err != nil {
		return fmt.Errorf("encode consultation: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.ConsultaURL, bytes.NewReader(body))
	if err != nil {
		return &ConsultationDispatchError{Message: err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	logger := p.logger.WithFields(logrus.Fields{
		"document_number": documentNumber,
		"provider":        provider,
	})
	logger.Debug("Dispatching consultation")

	resp, err := p.client.Do(req)
	if err != nil {
		logger.WithError(err).Warn("Consultation dispatch failed")
		return &ConsultationDispatchError{Message: fmt.Sprintf("Falha na consulta: %v", err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		dispatchErr := &ConsultationDispatchError{
			StatusCode: resp.StatusCode,
			Body:       string(raw),
			Message:    dispatchMessage(raw, resp.Status),
		}
		logger.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"error":  dispatchErr.Message,
		}).Warn("Provider rejected consultation")
		return dispatchErr
	}

	io.Copy(io.Discard, resp.Body)
	logger.Info("Consultation dispatched")
	return nil
}

// dispatchMessage prefers the provider's "error" field, then "message", then
// the raw body.
func dispatchMessage(body []byte, status string) string {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"error", "message"} {
			if msg, ok := payload[key].(string); ok && msg != "" {
				return msg
			}
		}
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		return fmt.Sprintf("Falha na consulta: %s", status)
	}
	return text
}
