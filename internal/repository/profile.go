package repository

import (
	"context"

	"github.com/nexconsult/fgts-api/internal/models"
)

// ProfileRepository persists the role attached to each identity provider account
type ProfileRepository interface {
	Upsert(ctx context.Context, profile *models.User) error
	Get(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateRole(ctx context.Context, id, role string) (*models.User, error)
	Delete(ctx context.Context, id string) error
}
