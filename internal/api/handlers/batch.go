package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/fgts-api/internal/api/middleware"
	"github.com/nexconsult/fgts-api/internal/models"
	"github.com/nexconsult/fgts-api/internal/services"
	"github.com/sirupsen/logrus"
)

// BatchHandler handles spreadsheet batch uploads and their results
type BatchHandler struct {
	batches       services.BatchServiceInterface
	logger        *logrus.Logger
	maxUploadSize int64
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(batches services.BatchServiceInterface, maxUploadSize int64, logger *logrus.Logger) *BatchHandler {
	return &BatchHandler{
		batches:       batches,
		logger:        logger,
		maxUploadSize: maxUploadSize,
	}
}

// Upload accepts a spreadsheet and starts processing it in the background
// @Summary Upload batch
// @Description Upload an .xlsx file whose first column holds document numbers
// @Tags Lotes
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Spreadsheet"
// @Param provider formData string true "Provider" Enums(bms, qi, cartos)
// @Success 202 {object} models.BatchAcceptedResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 413 {object} models.ErrorResponse
// @Router /lotes [post]
func (h *BatchHandler) Upload(c *gin.Context) {
	user := middleware.CurrentUser(c)

	header, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, services.ErrFileRequired.Error(), "", models.ErrorCodeInvalidRequest)
		return
	}

	if h.maxUploadSize > 0 && header.Size > h.maxUploadSize {
		respondError(c, http.StatusRequestEntityTooLarge, "Arquivo muito grande",
			fmt.Sprintf("O limite é de %d MB", h.maxUploadSize>>20), models.ErrorCodeInvalidRequest)
		return
	}

	file, err := header.Open()
	if err != nil {
		handleServiceError(c, h.logger, fmt.Errorf("open upload: %w", err))
		return
	}
	defer file.Close()

	batch, err := h.batches.Submit(c.Request.Context(), user, header.Filename, c.PostForm("provider"), file)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"batch_id":   batch.ID,
		"user_id":    batch.UserID,
		"items":      batch.TotalItems,
	}).Info("Batch accepted")

	c.JSON(http.StatusAccepted, models.BatchAcceptedResponse{
		Message: services.BatchAcceptedMessage,
		LoteID:  batch.ID,
	})
}

// List returns the caller's batches, or every batch for admins
// @Summary List batches
// @Tags Lotes
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Batch
// @Failure 401 {object} models.ErrorResponse
// @Router /lotes [get]
func (h *BatchHandler) List(c *gin.Context) {
	batches, err := h.batches.List(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	if batches == nil {
		batches = []models.Batch{}
	}

	c.JSON(http.StatusOK, batches)
}

// Get returns one batch
// @Summary Get batch
// @Tags Lotes
// @Produce json
// @Security BearerAuth
// @Param loteId path string true "Batch ID"
// @Success 200 {object} models.Batch
// @Failure 404 {object} models.ErrorResponse
// @Router /lotes/{loteId} [get]
func (h *BatchHandler) Get(c *gin.Context) {
	batch, err := h.batches.Get(c.Request.Context(), middleware.CurrentUser(c), c.Param("loteId"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Lote não encontrado", "", models.ErrorCodeNotFound)
			return
		}
		handleServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, batch)
}

// Download streams the result workbook of a finished batch
// @Summary Download batch result
// @Tags Lotes
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param loteId path string true "Batch ID"
// @Success 200 {file} binary
// @Failure 404 {object} models.ErrorResponse
// @Router /lotes/{loteId}/download [get]
func (h *BatchHandler) Download(c *gin.Context) {
	result, err := h.batches.Result(c.Request.Context(), middleware.CurrentUser(c), c.Param("loteId"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Lote não encontrado ou não finalizado", "", models.ErrorCodeNotFound)
			return
		}
		handleServiceError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
