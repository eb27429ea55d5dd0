package models

import (
	"time"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error" example:"Provedor inválido ou ausente"`
	Message   string    `json:"message,omitempty" example:"Os valores permitidos são: bms, qi, cartos"`
	Code      string    `json:"code,omitempty" example:"INVALID_PROVIDER"`
	Timestamp time.Time `json:"timestamp" example:"2024-01-15T10:30:00Z"`
	Path      string    `json:"path" example:"/api/v1/consultas"`
}

// Error codes used across handlers
const (
	ErrorCodeInvalidRequest   = "INVALID_REQUEST"
	ErrorCodeInvalidProvider  = "INVALID_PROVIDER"
	ErrorCodeDocumentRequired = "DOCUMENT_REQUIRED"
	ErrorCodeUnauthorized     = "UNAUTHORIZED"
	ErrorCodeForbidden        = "FORBIDDEN"
	ErrorCodeNotFound         = "NOT_FOUND"
	ErrorCodeConfiguration    = "CONFIGURATION_ERROR"
	ErrorCodeTokenFetch       = "TOKEN_FETCH_ERROR"
	ErrorCodeDispatch         = "DISPATCH_ERROR"
	ErrorCodeRateLimit        = "RATE_LIMIT_EXCEEDED"
	ErrorCodeInternal         = "INTERNAL_ERROR"
	ErrorCodeUnavailable      = "SERVICE_UNAVAILABLE"
)

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string                 `json:"status" example:"healthy"`
	Timestamp time.Time              `json:"timestamp" example:"2024-01-15T10:30:00Z"`
	Version   string                 `json:"version" example:"1.0.0"`
	Services  map[string]ServiceInfo `json:"services"`
	Uptime    string                 `json:"uptime" example:"2h30m45s"`
}

// ServiceInfo represents individual service health
type ServiceInfo struct {
	Status    string                 `json:"status" example:"healthy"`
	LastCheck time.Time              `json:"last_check" example:"2024-01-15T10:30:00Z"`
	Error     string                 `json:"error,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// MetricsResponse represents metrics response
type MetricsResponse struct {
	Consultations ConsultationMetrics    `json:"consultations"`
	Correlation   map[string]interface{} `json:"correlation"`
	Batches       BatchMetrics           `json:"batches"`
	Webhook       map[string]interface{} `json:"webhook"`
	RateLimit     map[string]interface{} `json:"rate_limit,omitempty"`
	System        SystemMetrics          `json:"system"`
	Timestamp     time.Time              `json:"timestamp" example:"2024-01-15T10:30:00Z"`
}

// ConsultationMetrics counts single-item consultation outcomes
type ConsultationMetrics struct {
	Total     int64 `json:"total" example:"150"`
	Succeeded int64 `json:"succeeded" example:"120"`
	Failed    int64 `json:"failed" example:"20"`
	TimedOut  int64 `json:"timed_out" example:"8"`
	Errors    int64 `json:"errors" example:"2"`
}

// BatchMetrics counts batches by state
type BatchMetrics struct {
	Running  int64 `json:"running" example:"1"`
	Finished int64 `json:"finished" example:"12"`
	Failed   int64 `json:"failed" example:"0"`
}

// SystemMetrics represents system metrics
type SystemMetrics struct {
	MemoryUsage float64 `json:"memory_usage_mb" example:"32.5"`
	Goroutines  int     `json:"goroutines" example:"25"`
}
