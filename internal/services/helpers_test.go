package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/nexconsult/fgts-api/internal/config"
	"github.com/nexconsult/fgts-api/internal/logger"
	"github.com/nexconsult/fgts-api/internal/models"
)

var testLogger = logger.Discard()

// fakeProvider accepts every dispatch and lets tests play the provider's
// webhook through onSend
type fakeProvider struct {
	allowed []string
	onSend  func(ctx context.Context, documentNumber, provider string) error

	mu   sync.Mutex
	sent []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{allowed: []string{"bms", "qi", "cartos"}}
}

func (p *fakeProvider) ValidateProvider(provider string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(provider))
	for _, allowed := range p.allowed {
		if normalized == allowed {
			return normalized, nil
		}
	}
	return "", &InvalidProviderError{Provider: provider, Allowed: p.allowed}
}

func (p *fakeProvider) SendConsultation(ctx context.Context, documentNumber, provider string) error {
	p.mu.Lock()
	p.sent = append(p.sent, documentNumber)
	p.mu.Unlock()

	if p.onSend != nil {
		return p.onSend(ctx, documentNumber, provider)
	}
	return nil
}

func (p *fakeProvider) AllowedProviders() []string {
	return p.allowed
}

func (p *fakeProvider) Sent() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.sent...)
}

func fastProviderConfig() config.ProviderConfig {
	return config.ProviderConfig{
		AllowedProviders: []string{"bms", "qi", "cartos"},
		PollInterval:     5 * time.Millisecond,
		MaxPollAttempts:  20,
	}
}

// failingStorage rejects every write
type failingStorage struct{}

func (failingStorage) Put(context.Context, string, []byte, string) error {
	return errors.New("bucket unavailable")
}

func (failingStorage) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("bucket unavailable")
}

func (failingStorage) Health(context.Context) map[string]interface{} {
	return map[string]interface{}{"status": "unhealthy"}
}

var (
	testUser  = &models.User{ID: "user-1", Email: "ana@example.com", Role: models.RoleUser}
	otherUser = &models.User{ID: "user-2", Email: "bruno@example.com", Role: models.RoleUser}
	testAdmin = &models.User{ID: "admin-1", Email: "admin@example.com", Role: models.RoleAdmin}
)
