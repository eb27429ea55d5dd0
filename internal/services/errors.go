package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nexconsult/fgts-api/internal/repository"
)

var (
	// ErrNotFound is returned when a batch, consultation or profile does not exist
	ErrNotFound = repository.ErrNotFound

	// ErrForbidden is returned when a user reads another user's batch
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthorized is returned when a bearer token is missing, invalid or expired
	ErrUnauthorized = errors.New("invalid or expired token")

	// ErrDocumentRequired is returned when a consultation has no document number
	ErrDocumentRequired = errors.New("documentNumber é obrigatório")

	// ErrNoDocuments is returned when an uploaded file holds no document number
	ErrNoDocuments = errors.New("Nenhum número de documento encontrado no arquivo.")

	// ErrInvalidFile is returned when an uploaded file is not a readable workbook
	ErrInvalidFile = errors.New("Arquivo Excel inválido")

	// ErrInvalidRole is returned when a role is neither admin nor user
	ErrInvalidRole = errors.New("Role must be admin or user")

	// ErrFileRequired is returned when an upload carries no file
	ErrFileRequired = errors.New("Arquivo Excel não enviado")

	// ErrShuttingDown is returned when a batch arrives while the server drains
	ErrShuttingDown = errors.New("server is shutting down")
)

// ConfigurationError reports missing credentials or URLs
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing configuration: %s", strings.Join(e.Missing, ", "))
}

// InvalidProviderError reports a provider outside the allow-list
type InvalidProviderError struct {
	Provider string
	Allowed  []string
}

func (e *InvalidProviderError) Error() string {
	return fmt.Sprintf("Provedor inválido ou ausente. Os valores permitidos são: %s", strings.Join(e.Allowed, ", "))
}

// TokenFetchError reports a rejected or failed token request
type TokenFetchError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TokenFetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("Falha ao obter token (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("Falha ao obter token: %s", e.Message)
}

func (e *TokenFetchError) Unwrap() error {
	return e.Err
}

// ConsultationDispatchError reports a failed outbound consultation request
type ConsultationDispatchError struct {
	StatusCode int
	Body       string
	Message    string
	Err        error
}

func (e *ConsultationDispatchError) Error() string {
	return e.Message
}

func (e *ConsultationDispatchError) Unwrap() error {
	return e.Err
}

// IdentityError reports a failed identity provider call
type IdentityError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *IdentityError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("identity provider error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("identity provider error: %s", e.Message)
}

func (e *IdentityError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err is a ConfigurationError
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// IsInvalidProvider reports whether err is an InvalidProviderError
func IsInvalidProvider(err error) bool {
	var providerErr *InvalidProviderError
	return errors.As(err, &providerErr)
}

// missing collects the names whose values are empty, in order
func missing(pairs ...string) []string {
	var names []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			names = append(names, pairs[i])
		}
	}
	return names
}
