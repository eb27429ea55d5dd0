package services

import (
	"context"
	"io"

	"github.com/nexconsult/fgts-api/internal/models"
)

// ProviderServiceInterface defines the interface for the balance provider client
type ProviderServiceInterface interface {
	// ValidateProvider returns the canonical provider name or an InvalidProviderError
	ValidateProvider(provider string) (string, error)

	// SendConsultation dispatches one consultation; the answer arrives on the webhook
	SendConsultation(ctx context.Context, documentNumber, provider string) error

	// AllowedProviders returns the provider allow-list
	AllowedProviders() []string
}

// ConsultationServiceInterface defines the interface for single-item consultations
type ConsultationServiceInterface interface {
	// Consult dispatches a consultation and waits for its outcome
	Consult(ctx context.Context, documentNumber, provider string) (*models.ConsultationResult, error)

	// Status returns the correlation entry for a document number
	Status(ctx context.Context, documentNumber string) (*models.ConsultationEntry, error)

	// ValidateProvider returns the canonical provider name or an InvalidProviderError
	ValidateProvider(provider string) (string, error)

	// Metrics returns outcome counters
	Metrics() models.ConsultationMetrics

	// Health returns service health status
	Health() map[string]interface{}
}

// BatchServiceInterface defines the interface for spreadsheet batches
type BatchServiceInterface interface {
	// Submit accepts an upload and starts processing it in the background
	Submit(ctx context.Context, user *models.User, fileName, provider string, file io.Reader) (*models.Batch, error)

	// List returns batches visible to user, most recent first
	List(ctx context.Context, user *models.User) ([]models.Batch, error)

	// Get returns one batch visible to user
	Get(ctx context.Context, user *models.User, batchID string) (*models.Batch, error)

	// Result returns the workbook of a finished batch
	Result(ctx context.Context, user *models.User, batchID string) (*models.BatchResultFile, error)

	// Wait blocks until running batches finish or ctx ends
	Wait(ctx context.Context) error

	// Drain refuses new batches and waits for the running ones
	Drain(ctx context.Context) error

	// Metrics returns batch counters
	Metrics() models.BatchMetrics

	// Health returns service health status
	Health() map[string]interface{}
}

// WebhookServiceInterface defines the interface for provider callbacks
type WebhookServiceInterface interface {
	// HandleCallback resolves a pending consultation from a callback payload
	HandleCallback(ctx context.Context, payload map[string]interface{}) bool

	// Stats returns callback counters
	Stats() map[string]interface{}
}

// IdentityProviderInterface defines the interface for the external auth API
type IdentityProviderInterface interface {
	VerifyToken(ctx context.Context, accessToken string) (*IdentityUser, error)
	CreateUser(ctx context.Context, email, password string) (*IdentityUser, error)
	GetUser(ctx context.Context, id string) (*IdentityUser, error)
	DeleteUser(ctx context.Context, id string) error
	Health() map[string]interface{}
}

// UserServiceInterface defines the interface for accounts and roles
type UserServiceInterface interface {
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
	Create(ctx context.Context, req models.CreateUserRequest) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
	UpdateRole(ctx context.Context, id, role string) (*models.User, error)
	Delete(ctx context.Context, id string) error
	Role(ctx context.Context, requester *models.User, userID string) (string, error)
	Health() map[string]interface{}
}
