package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nexconsult/fgts-api/internal/models"
)

// PostgresProfileRepository stores profiles in the profiles table
type PostgresProfileRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresProfileRepository constructs a repository
func NewPostgresProfileRepository(pool *pgxpool.Pool) *PostgresProfileRepository {
	return &PostgresProfileRepository{pool: pool}
}

// Upsert inserts or replaces a profile
func (r *PostgresProfileRepository) Upsert(ctx context.Context, profile *models.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO profiles (id, email, role) VALUES ($1,$2,$3)
		ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, role = EXCLUDED.role
	`, profile.ID, profile.Email, profile.Role)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// Get returns a profile by id
func (r *PostgresProfileRepository) Get(ctx context.Context, id string) (*models.User, error) {
	var profile models.User
	err := r.pool.QueryRow(ctx, `SELECT id, email, role FROM profiles WHERE id=$1`, id).
		Scan(&profile.ID, &profile.Email, &profile.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select profile: %w", err)
	}
	return &profile, nil
}

// List returns every profile ordered by email
func (r *PostgresProfileRepository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, email, role FROM profiles ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	out := []models.User{}
	for rows.Next() {
		var profile models.User
		if err := rows.Scan(&profile.ID, &profile.Email, &profile.Role); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return out, nil
}

// UpdateRole changes a profile role
func (r *PostgresProfileRepository) UpdateRole(ctx context.Context, id, role string) (*models.User, error) {
	var profile models.User
	err := r.pool.QueryRow(ctx, `UPDATE profiles SET role=$1 WHERE id=$2 RETURNING id, email, role`, role, id).
		Scan(&profile.ID, &profile.Email, &profile.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &profile, nil
}

// Delete removes a profile
func (r *PostgresProfileRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM profiles WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
