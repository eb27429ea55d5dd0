package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/fgts-api/internal/models"
	"github.com/nexconsult/fgts-api/internal/services"
	"github.com/nexconsult/fgts-api/internal/utils"
	"github.com/sirupsen/logrus"
)

// ConsultaHandler handles single-item balance consultations
type ConsultaHandler struct {
	consultations services.ConsultationServiceInterface
	logger        *logrus.Logger
}

// NewConsultaHandler creates a new consultation handler
func NewConsultaHandler(consultations services.ConsultationServiceInterface, logger *logrus.Logger) *ConsultaHandler {
	return &ConsultaHandler{
		consultations: consultations,
		logger:        logger,
	}
}

// Consult handles a single balance consultation
// @Summary Consult FGTS balance
// @Description Dispatch a balance consultation and wait for the provider webhook
// @Tags Consultas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.ConsultaRequest true "Document number and provider"
// @Success 200 {object} models.ConsultaResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /consultas [post]
func (h *ConsultaHandler) Consult(c *gin.Context) {
	start := time.Now()
	requestID := c.GetString("request_id")

	var req models.ConsultaRequest
	decoder := json.NewDecoder(c.Request.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, "Invalid request body", err.Error(), models.ErrorCodeInvalidRequest)
		return
	}

	documentNumber := utils.NormalizeDocument(req.DocumentNumber)

	result, err := h.consultations.Consult(c.Request.Context(), documentNumber, req.Provider)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"request_id":      requestID,
		"document_number": result.DocumentNumber,
		"provider":        result.Provider,
		"outcome":         result.Outcome,
		"duration":        time.Since(start),
	}).Info("Consultation answered")

	if !result.Succeeded() {
		c.JSON(http.StatusOK, models.ConsultaErrorResponse{Error: result.Error})
		return
	}

	c.JSON(http.StatusOK, models.ConsultaResponse{
		DocumentNumber: result.DocumentNumber,
		Provider:       result.Provider,
		Balance:        result.Balance,
	})
}

// Status returns the correlation entry of a document number
// @Summary Consultation status
// @Description Get the pending or finished correlation entry of a document number
// @Tags Consultas
// @Produce json
// @Security BearerAuth
// @Param documentNumber path string true "Document number"
// @Success 200 {object} models.ConsultationEntry
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /consultas/{documentNumber}/status [get]
func (h *ConsultaHandler) Status(c *gin.Context) {
	entry, err := h.consultations.Status(c.Request.Context(), c.Param("documentNumber"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Consulta não encontrada", "", models.ErrorCodeNotFound)
			return
		}
		handleServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}
