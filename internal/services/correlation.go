package services

import (
	"context"
	"sync"
	"time"

	"github.com/nexconsult/fgts-api/internal/models"
	"github.com/sirupsen/logrus"
)

// CorrelationStore maps a document number to its pending or finished
// consultation. Entries expire after a TTL.
type CorrelationStore interface {
	// MarkPending inserts or overwrites the entry for documentNumber, clearing any result
	MarkPending(ctx context.Context, documentNumber string) error

	// Resolve finishes an existing entry. It reports false, without error,
	// when no entry exists.
	Resolve(ctx context.Context, documentNumber string, result map[string]interface{}) (bool, error)

	// Get returns the entry or ErrNotFound
	Get(ctx context.Context, documentNumber string) (*models.ConsultationEntry, error)

	// Stats returns store statistics
	Stats(ctx context.Context) map[string]interface{}

	// Health returns store health status
	Health() map[string]interface{}
}

type correlationItem struct {
	entry     models.ConsultationEntry
	expiresAt time.Time
}

// MemoryCorrelationStore keeps entries in a mutex-guarded map
type MemoryCorrelationStore struct {
	ttl    time.Duration
	logger *logrus.Logger
	now    func() time.Time

	mu      sync.RWMutex
	entries map[string]correlationItem
}

// NewMemoryCorrelationStore creates an in-memory correlation store
func NewMemoryCorrelationStore(ttl time.Duration, logger *logrus.Logger) *MemoryCorrelationStore {
	return &MemoryCorrelationStore{
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]correlationItem),
	}
}

// MarkPending inserts or overwrites the entry for documentNumber
func (s *MemoryCorrelationStore) MarkPending(_ context.Context, documentNumber string) error {
	now := s.now()

	s.mu.Lock()
	s.entries[documentNumber] = correlationItem{
		entry: models.ConsultationEntry{
			DocumentNumber: documentNumber,
			Status:         models.ConsultationPending,
			UpdatedAt:      now,
		},
		expiresAt: now.Add(s.ttl),
	}
	s.mu.Unlock()

	s.logger.WithField("document_number", documentNumber).Debug("Consultation marked pending")
	return nil
}

// Resolve finishes the entry for documentNumber when one exists
func (s *MemoryCorrelationStore) Resolve(_ context.Context, documentNumber string, result map[string]interface{}) (bool, error) {
	now := s.now()

	s.mu.Lock()
	item, exists := s.entries[documentNumber]
	if !exists || now.After(item.expiresAt) {
		s.mu.Unlock()
		s.logger.WithField("document_number", documentNumber).Info("Callback for unknown consultation dropped")
		return false, nil
	}

	item.entry.Status = models.ConsultationFinished
	item.entry.Result = result
	item.entry.UpdatedAt = now
	s.entries[documentNumber] = item
	s.mu.Unlock()

	s.logger.WithField("document_number", documentNumber).Debug("Consultation resolved")
	return true, nil
}

// Get returns a copy of the entry for documentNumber
func (s *MemoryCorrelationStore) Get(_ context.Context, documentNumber string) (*models.ConsultationEntry, error) {
	s.mu.RLock()
	item, exists := s.entries[documentNumber]
	s.mu.RUnlock()

	if !exists || s.now().After(item.expiresAt) {
		return nil, ErrNotFound
	}

	entry := item.entry
	return &entry, nil
}

// EvictExpired removes expired entries and returns how many were dropped
func (s *MemoryCorrelationStore) EvictExpired() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for key, item := range s.entries {
		if now.After(item.expiresAt) {
			delete(s.entries, key)
			evicted++
		}
	}

	if evicted > 0 {
		s.logger.WithField("evicted", evicted).Debug("Expired consultations evicted")
	}
	return evicted
}

// Stats returns store statistics
func (s *MemoryCorrelationStore) Stats(_ context.Context) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pending := 0
	for _, item := range s.entries {
		if item.entry.Status == models.ConsultationPending {
			pending++
		}
	}

	return map[string]interface{}{
		"backend": "memory",
		"size":    len(s.entries),
		"pending": pending,
		"ttl":     s.ttl.String(),
	}
}

// Health returns store health status
func (s *MemoryCorrelationStore) Health() map[string]interface{} {
	return map[string]interface{}{
		"status":  "healthy",
		"backend": "memory",
	}
}
