package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/nexconsult/fgts-api/internal/models"
	"github.com/nexconsult/fgts-api/internal/repository"
	"github.com/nexconsult/fgts-api/internal/spreadsheet"
	"github.com/nexconsult/fgts-api/internal/storage"
	"github.com/nexconsult/fgts-api/internal/utils"
	"github.com/sirupsen/logrus"
)

// BatchAcceptedMessage is returned when an upload is accepted
const BatchAcceptedMessage = "Processamento do lote iniciado."

// BatchService accepts spreadsheet uploads and consults every document in the
// background, one at a time, then stores a result workbook.
type BatchService struct {
	consultations ConsultationServiceInterface
	repo          repository.BatchRepository
	storage       storage.ResultStorage
	logger        *logrus.Logger
	now           func() time.Time

	mu       sync.Mutex
	draining bool
	wg       sync.WaitGroup
	running  atomic.Int64
	finished atomic.Int64
	failed   atomic.Int64
}

// NewBatchService creates a new batch service
func NewBatchService(consultations ConsultationServiceInterface, repo repository.BatchRepository, results storage.ResultStorage, logger *logrus.Logger) *BatchService {
	return &BatchService{
		consultations: consultations,
		repo:          repo,
		storage:       results,
		logger:        logger,
		now:           time.Now,
	}
}

// Submit parses the upload, records a processing batch and starts the
// background run. It returns before any document is consulted.
func (s *BatchService) Submit(ctx context.Context, user *models.User, fileName, provider string, file io.Reader) (*models.Batch, error) {
	if user == nil {
		return nil, ErrUnauthorized
	}
	if file == nil {
		return nil, ErrFileRequired
	}

	provider, err := s.consultations.ValidateProvider(provider)
	if err != nil {
		return nil, err
	}

	documents, err := spreadsheet.ParseDocuments(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	if len(documents) == 0 {
		return nil, ErrNoDocuments
	}

	batchID := uuid.New().String()
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		fileName = fmt.Sprintf("lote_%s.xlsx", batchID)
	}

	batch := &models.Batch{
		ID:         batchID,
		UserID:     user.ID,
		FileName:   fileName,
		Provider:   provider,
		Status:     models.BatchProcessing,
		TotalItems: len(documents),
		StartedAt:  s.now().UTC(),
	}
	if err := s.repo.Create(ctx, batch); err != nil {
		return nil, fmt.Errorf("create batch: %w", err)
	}

	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		if failErr := s.repo.Fail(ctx, batch.ID, s.now().UTC(), ErrShuttingDown.Error()); failErr != nil {
			s.logger.WithError(failErr).Error("Failed to record batch failure")
		}
		return nil, ErrShuttingDown
	}
	s.running.Add(1)
	s.wg.Add(1)
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"batch_id":    batch.ID,
		"user_id":     user.ID,
		"provider":    provider,
		"total_items": len(documents),
	}).Info("Batch accepted")

	go s.process(context.WithoutCancel(ctx), *batch, documents)

	return batch, nil
}

func (s *BatchService) process(ctx context.Context, batch models.Batch, documents []string) {
	defer s.wg.Done()
	defer s.running.Add(-1)

	logger := s.logger.WithField("batch_id", batch.ID)
	start := time.Now()

	results := make([]models.BatchItemResult, 0, len(documents))
	for _, documentNumber := range documents {
		results = append(results, s.consultItem(ctx, documentNumber, batch.Provider))
	}

	if err := s.storeResult(ctx, &batch, results); err != nil {
		logger.WithError(err).Error("Batch failed")
		if failErr := s.repo.Fail(ctx, batch.ID, s.now().UTC(), err.Error()); failErr != nil {
			logger.WithError(failErr).Error("Failed to record batch failure")
		}
		s.failed.Add(1)
		return
	}

	s.finished.Add(1)
	logger.WithFields(logrus.Fields{
		"items":    len(results),
		"duration": time.Since(start).String(),
	}).Info("Batch finished")
}

// consultItem turns every outcome of one consultation into a result row
func (s *BatchService) consultItem(ctx context.Context, documentNumber, provider string) models.BatchItemResult {
	item := models.BatchItemResult{
		DocumentNumber: documentNumber,
		Provider:       provider,
	}

	result, err := s.consultations.Consult(ctx, documentNumber, provider)
	if err != nil {
		item.ErrorMessage = err.Error()
		return item
	}
	if result.Succeeded() {
		item.Balance = result.Balance
		return item
	}

	item.ErrorMessage = result.Error
	if item.ErrorMessage == "" {
		item.ErrorMessage = models.NoResponseMessage
	}
	return item
}

func (s *BatchService) storeResult(ctx context.Context, batch *models.Batch, results []models.BatchItemResult) error {
	data, err := spreadsheet.BuildResult(results)
	if err != nil {
		return fmt.Errorf("build result file: %w", err)
	}

	key := ResultKey(batch.UserID, batch.ID)
	if err := s.storage.Put(ctx, key, data, spreadsheet.ContentType); err != nil {
		return fmt.Errorf("store result file: %w", err)
	}

	if err := s.repo.Complete(ctx, batch.ID, s.now().UTC(), ResultLocation(batch.ID), key); err != nil {
		return fmt.Errorf("complete batch: %w", err)
	}
	return nil
}

// ResultKey is the object key of a batch result workbook
func ResultKey(userID, batchID string) string {
	return fmt.Sprintf("%s/%s/resultado.xlsx", userID, batchID)
}

// ResultLocation is the download path of a batch result workbook
func ResultLocation(batchID string) string {
	return fmt.Sprintf("/api/v1/lotes/%s/download", batchID)
}

// List returns the user's batches, or every batch for admins, most recent first
func (s *BatchService) List(ctx context.Context, user *models.User) ([]models.Batch, error) {
	if user == nil {
		return nil, ErrUnauthorized
	}

	owner := user.ID
	if user.IsAdmin() {
		owner = ""
	}

	batches, err := s.repo.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	for i := range batches {
		if batches[i].Status != models.BatchFinished {
			batches[i].ResultLocation = ""
		}
	}
	return batches, nil
}

// Get returns one batch readable by user
func (s *BatchService) Get(ctx context.Context, user *models.User, batchID string) (*models.Batch, error) {
	if user == nil {
		return nil, ErrUnauthorized
	}

	batch, err := s.repo.Get(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch.UserID != user.ID && !user.IsAdmin() {
		return nil, ErrForbidden
	}
	if batch.Status != models.BatchFinished {
		batch.ResultLocation = ""
	}
	return batch, nil
}

// Result returns the result workbook of a finished batch
func (s *BatchService) Result(ctx context.Context, user *models.User, batchID string) (*models.BatchResultFile, error) {
	batch, err := s.Get(ctx, user, batchID)
	if err != nil {
		return nil, err
	}
	if batch.Status != models.BatchFinished || batch.ResultKey == "" {
		return nil, ErrNotFound
	}

	data, err := s.storage.Get(ctx, batch.ResultKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load result file: %w", err)
	}

	return &models.BatchResultFile{
		FileName:    utils.ResultFileName(batch.FileName),
		ContentType: spreadsheet.ContentType,
		Data:        data,
	}, nil
}

// Wait blocks until every running batch reached a terminal state or ctx ends
func (s *BatchService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Drain refuses new batches and waits for the running ones. Callbacks must
// still be reachable while it blocks.
func (s *BatchService) Drain(ctx context.Context) error {
	s.mu.Lock()
	s.draining = true
	s.mu.Unlock()

	if running := s.running.Load(); running > 0 {
		s.logger.WithField("running", running).Info("Waiting for running batches")
	}
	return s.Wait(ctx)
}

// Metrics returns batch counters
func (s *BatchService) Metrics() models.BatchMetrics {
	return models.BatchMetrics{
		Running:  s.running.Load(),
		Finished: s.finished.Load(),
		Failed:   s.failed.Load(),
	}
}

// Health returns service health status
func (s *BatchService) Health() map[string]interface{} {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return map[string]interface{}{
		"status":  "healthy",
		"running": s.running.Load(),
		"storage": s.storage.Health(ctx),
	}
}
