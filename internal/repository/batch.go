package repository

import (
	"context"
	"time"

	"github.com/nexconsult/fgts-api/internal/models"
)

// BatchRepository persists batch records. A batch is created processing and
// reaches exactly one terminal state through Complete or Fail.
type BatchRepository interface {
	Create(ctx context.Context, batch *models.Batch) error
	Complete(ctx context.Context, id string, finishedAt time.Time, resultLocation, resultKey string) error
	Fail(ctx context.Context, id string, finishedAt time.Time, message string) error
	Get(ctx context.Context, id string) (*models.Batch, error)

	// List returns batches ordered by start time, most recent first. An empty
	// userID lists every batch.
	List(ctx context.Context, userID string) ([]models.Batch, error)
}
