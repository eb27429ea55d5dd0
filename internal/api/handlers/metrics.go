package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/fgts-api/internal/models"
	"github.com/nexconsult/fgts-api/internal/services"
	"github.com/sirupsen/logrus"
)

// StatsProvider exposes counters as a plain map
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// MetricsHandler handles metrics requests
type MetricsHandler struct {
	consultations services.ConsultationServiceInterface
	batches       services.BatchServiceInterface
	webhooks      services.WebhookServiceInterface
	store         services.CorrelationStore
	rateLimiter   StatsProvider
	logger        *logrus.Logger
}

// NewMetricsHandler creates a new metrics handler. rateLimiter may be nil.
func NewMetricsHandler(container *services.Container, rateLimiter StatsProvider, logger *logrus.Logger) *MetricsHandler {
	return &MetricsHandler{
		consultations: container.ConsultationService,
		batches:       container.BatchService,
		webhooks:      container.WebhookService,
		store:         container.CorrelationStore,
		rateLimiter:   rateLimiter,
		logger:        logger,
	}
}

// GetMetrics handles metrics request
// @Summary Get application metrics
// @Description Consultation outcomes, batch counters, correlation store and runtime statistics
// @Tags Metrics
// @Produce json
// @Success 200 {object} models.MetricsResponse
// @Router /metrics [get]
func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	h.logger.WithField("request_id", c.GetString("request_id")).Debug("Getting application metrics")

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := models.MetricsResponse{
		Consultations: h.consultations.Metrics(),
		Correlation:   h.store.Stats(c.Request.Context()),
		Batches:       h.batches.Metrics(),
		Webhook:       h.webhooks.Stats(),
		System: models.SystemMetrics{
			MemoryUsage: float64(m.Alloc) / 1024 / 1024,
			Goroutines:  runtime.NumGoroutine(),
		},
		Timestamp: time.Now(),
	}

	if h.rateLimiter != nil {
		response.RateLimit = h.rateLimiter.GetStats()
	}

	c.JSON(http.StatusOK, response)
}
