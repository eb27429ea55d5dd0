package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nexconsult/fgts-api/internal/models"
)

// PostgresBatchRepository stores batches in the lotes table
type PostgresBatchRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresBatchRepository constructs a repository
func NewPostgresBatchRepository(pool *pgxpool.Pool) *PostgresBatchRepository {
	return &PostgresBatchRepository{pool: pool}
}

const batchColumns = `id, user_id, file_name, provider, status, total_items, started_at, finished_at, result_location, result_key, error_message`

// Create inserts a batch
func (r *PostgresBatchRepository) Create(ctx context.Context, batch *models.Batch) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO lotes (id, user_id, file_name, provider, status, total_items, started_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, batch.ID, batch.UserID, batch.FileName, batch.Provider, batch.Status, batch.TotalItems, batch.StartedAt)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

// Complete marks a processing batch finished
func (r *PostgresBatchRepository) Complete(ctx context.Context, id string, finishedAt time.Time, resultLocation, resultKey string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE lotes
		SET status=$1, finished_at=$2, result_location=$3, result_key=$4
		WHERE id=$5 AND status=$6
	`, models.BatchFinished, finishedAt, resultLocation, resultKey, id, models.BatchProcessing)
	if err != nil {
		return fmt.Errorf("complete batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Fail marks a processing batch as failed
func (r *PostgresBatchRepository) Fail(ctx context.Context, id string, finishedAt time.Time, message string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE lotes
		SET status=$1, finished_at=$2, error_message=$3
		WHERE id=$4 AND status=$5
	`, models.BatchError, finishedAt, message, id, models.BatchProcessing)
	if err != nil {
		return fmt.Errorf("fail batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Get returns a batch by id
func (r *PostgresBatchRepository) Get(ctx context.Context, id string) (*models.Batch, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+batchColumns+` FROM lotes WHERE id=$1`, id)
	batch, err := scanBatch(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select batch: %w", err)
	}
	return batch, nil
}

// List returns batches for userID, or all when userID is empty
func (r *PostgresBatchRepository) List(ctx context.Context, userID string) ([]models.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM lotes`
	var args []interface{}
	if userID != "" {
		query += ` WHERE user_id=$1`
		args = append(args, userID)
	}
	query += ` ORDER BY started_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	out := []models.Batch{}
	for rows.Next() {
		batch, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		out = append(out, *batch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return out, nil
}

func scanBatch(row pgx.Row) (*models.Batch, error) {
	var (
		batch          models.Batch
		finishedAt     *time.Time
		resultLocation sql.NullString
		resultKey      sql.NullString
		errorMessage   sql.NullString
	)
	if err := row.Scan(&batch.ID, &batch.UserID, &batch.FileName, &batch.Provider, &batch.Status,
		&batch.TotalItems, &batch.StartedAt, &finishedAt, &resultLocation, &resultKey, &errorMessage); err != nil {
		return nil, err
	}
	batch.FinishedAt = finishedAt
	batch.ResultLocation = resultLocation.String
	batch.ResultKey = resultKey.String
	batch.ErrorMessage = errorMessage.String
	return &batch, nil
}
