package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/nexconsult/fgts-api/internal/models"
)

// MemoryProfileRepository keeps profiles in a map guarded by a RWMutex
type MemoryProfileRepository struct {
	mu       sync.RWMutex
	profiles map[string]models.User
}

// NewMemoryProfileRepository constructs a MemoryProfileRepository
func NewMemoryProfileRepository() *MemoryProfileRepository {
	return &MemoryProfileRepository{
		profiles: make(map[string]models.User),
	}
}

// Upsert inserts or replaces a profile
func (r *MemoryProfileRepository) Upsert(_ context.Context, profile *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[profile.ID] = *profile
	return nil
}

// Get returns a profile by id
func (r *MemoryProfileRepository) Get(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, ok := r.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &profile, nil
}

// List returns every profile ordered by email
func (r *MemoryProfileRepository) List(_ context.Context) ([]models.User, error) {
	r.mu.RLock()
	out := make([]models.User, 0, len(r.profiles))
	for _, profile := range r.profiles {
		out = append(out, profile)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

// UpdateRole changes a profile role
func (r *MemoryProfileRepository) UpdateRole(_ context.Context, id, role string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	profile, ok := r.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	profile.Role = role
	r.profiles[id] = profile
	return &profile, nil
}

// Delete removes a profile
func (r *MemoryProfileRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.profiles[id]; !ok {
		return ErrNotFound
	}
	delete(r.profiles, id)
	return nil
}
