package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nexconsult/fgts-api/internal/models"
)

// MemoryBatchRepository keeps batches in a map guarded by a RWMutex
type MemoryBatchRepository struct {
	mu      sync.RWMutex
	batches map[string]*models.Batch
}

// NewMemoryBatchRepository constructs a MemoryBatchRepository
func NewMemoryBatchRepository() *MemoryBatchRepository {
	return &MemoryBatchRepository{
		batches: make(map[string]*models.Batch),
	}
}

// Create inserts a batch
func (r *MemoryBatchRepository) Create(_ context.Context, batch *models.Batch) error {
	stored := *batch

	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches[batch.ID] = &stored
	return nil
}

// Complete marks a processing batch finished
func (r *MemoryBatchRepository) Complete(_ context.Context, id string, finishedAt time.Time, resultLocation, resultKey string) error {
	return r.finish(id, func(b *models.Batch) {
		b.Status = models.BatchFinished
		b.FinishedAt = &finishedAt
		b.ResultLocation = resultLocation
		b.ResultKey = resultKey
	})
}

// Fail marks a processing batch as failed
func (r *MemoryBatchRepository) Fail(_ context.Context, id string, finishedAt time.Time, message string) error {
	return r.finish(id, func(b *models.Batch) {
		b.Status = models.BatchError
		b.FinishedAt = &finishedAt
		b.ErrorMessage = message
	})
}

func (r *MemoryBatchRepository) finish(id string, apply func(*models.Batch)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	batch, ok := r.batches[id]
	if !ok || batch.Status.IsTerminal() {
		return ErrNotFound
	}
	apply(batch)
	return nil
}

// Get returns a copy of the batch
func (r *MemoryBatchRepository) Get(_ context.Context, id string) (*models.Batch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	batch, ok := r.batches[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *batch
	return &out, nil
}

// List returns batches for userID, or all when userID is empty
func (r *MemoryBatchRepository) List(_ context.Context, userID string) ([]models.Batch, error) {
	r.mu.RLock()
	out := make([]models.Batch, 0, len(r.batches))
	for _, batch := range r.batches {
		if userID == "" || batch.UserID == userID {
			out = append(out, *batch)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out, nil
}
