package models

import (
	"time"
)

// ConsultationStatus is the correlation state of a consultation
type ConsultationStatus string

const (
	ConsultationPending  ConsultationStatus = "pendente"
	ConsultationFinished ConsultationStatus = "finalizado"
)

// ConsultationEntry is what the correlation store keeps per document number
type ConsultationEntry struct {
	DocumentNumber string                 `json:"documentNumber" example:"12345678909"`
	Status         ConsultationStatus     `json:"status" example:"pendente"`
	Result         map[string]interface{} `json:"result,omitempty"`
	UpdatedAt      time.Time              `json:"updatedAt" example:"2024-01-15T10:30:00Z"`
}

// IsFinished reports whether the provider already called back
func (e *ConsultationEntry) IsFinished() bool {
	return e != nil && e.Status == ConsultationFinished
}

// ConsultationOutcome is the terminal state of a single-item consultation
type ConsultationOutcome string

const (
	OutcomeSucceeded ConsultationOutcome = "succeeded"
	OutcomeFailed    ConsultationOutcome = "failed"
	OutcomeTimedOut  ConsultationOutcome = "timed_out"
)

// NoResponseMessage is reported when the provider never called back
const NoResponseMessage = "Sem resposta"

// ConsultaRequest represents a single consultation request. The document
// number may arrive as a JSON string or number.
type ConsultaRequest struct {
	DocumentNumber interface{} `json:"documentNumber" swaggertype:"string" example:"12345678909"`
	Provider       string      `json:"provider" example:"cartos"`
}

// ConsultationResult is the outcome of one consultation
type ConsultationResult struct {
	DocumentNumber string
	Provider       string
	Balance        interface{}
	Error          string
	Outcome        ConsultationOutcome
}

// Succeeded reports whether a balance was obtained
func (r *ConsultationResult) Succeeded() bool {
	return r.Outcome == OutcomeSucceeded
}

// ConsultaResponse is returned to the client when a balance was obtained
type ConsultaResponse struct {
	DocumentNumber string      `json:"documentNumber" example:"12345678909"`
	Provider       string      `json:"provider" example:"cartos"`
	Balance        interface{} `json:"balance" swaggertype:"number" example:"100.50"`
}

// ConsultaErrorResponse is returned when the provider reported a failure or did not answer
type ConsultaErrorResponse struct {
	Error string `json:"error" example:"Sem resposta"`
}

// WebhookAck is the acknowledgment sent to the provider
type WebhookAck struct {
	Received bool `json:"received" example:"true"`
}
