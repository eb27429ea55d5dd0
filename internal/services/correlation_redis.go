package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nexconsult/fgts-api/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	correlationKeyPrefix = "consulta:"
	statsScanCount       = 500
)

// RedisCorrelationStore keeps entries in Redis so that any instance receiving
// the webhook can resolve them
type RedisCorrelationStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

// NewRedisCorrelationStore creates a Redis backed correlation store
func NewRedisCorrelationStore(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *RedisCorrelationStore {
	return &RedisCorrelationStore{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func correlationKey(documentNumber string) string {
	return correlationKeyPrefix + documentNumber
}

// MarkPending overwrites the entry for documentNumber and resets its TTL
func (s *RedisCorrelationStore) MarkPending(ctx context.Context, documentNumber string) error {
	value, err := json.Marshal(models.ConsultationEntry{
		DocumentNumber: documentNumber,
		Status:         models.ConsultationPending,
		UpdatedAt:      time.Now(),
	})
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}

	if err := s.client.Set(ctx, correlationKey(documentNumber), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("mark pending: %w", err)
	}
	return nil
}

// Resolve finishes the entry only if the key still exists, keeping its TTL
func (s *RedisCorrelationStore) Resolve(ctx context.Context, documentNumber string, result map[string]interface{}) (bool, error) {
	value, err := json.Marshal(models.ConsultationEntry{
		DocumentNumber: documentNumber,
		Status:         models.ConsultationFinished,
		Result:         result,
		UpdatedAt:      time.Now(),
	})
	if err != nil {
		return false, fmt.Errorf("encode entry: %w", err)
	}

	err = s.client.SetArgs(ctx, correlationKey(documentNumber), value, redis.SetArgs{
		Mode:    "XX",
		KeepTTL: true,
	}).Err()
	if errors.Is(err, redis.Nil) {
		s.logger.WithField("document_number", documentNumber).Info("Callback for unknown consultation dropped")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("resolve: %w", err)
	}
	return true, nil
}

// Get returns the entry for documentNumber or ErrNotFound
func (s *RedisCorrelationStore) Get(ctx context.Context, documentNumber string) (*models.ConsultationEntry, error) {
	raw, err := s.client.Get(ctx, correlationKey(documentNumber)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}

	var entry models.ConsultationEntry
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&entry); err != nil {
		return nil, fmt.Errorf("decode entry: %w", err)
	}
	return &entry, nil
}

// Stats returns store statistics
func (s *RedisCorrelationStore) Stats(ctx context.Context) map[string]interface{} {
	stats := map[string]interface{}{
		"backend": "redis",
		"ttl":     s.ttl.String(),
	}

	var keys []string
	iter := s.client.Scan(ctx, 0, correlationKeyPrefix+"*", statsScanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		stats["error"] = err.Error()
		return stats
	}

	size, pending := 0, 0
	for start := 0; start < len(keys); start += statsScanCount {
		end := min(start+statsScanCount, len(keys))
		values, err := s.client.MGet(ctx, keys[start:end]...).Result()
		if err != nil {
			stats["error"] = err.Error()
			return stats
		}
		for _, value := range values {
			raw, ok := value.(string)
			if !ok {
				// expired between SCAN and MGET
				continue
			}
			size++
			var entry struct {
				Status models.ConsultationStatus `json:"status"`
			}
			if json.Unmarshal([]byte(raw), &entry) == nil && entry.Status == models.ConsultationPending {
				pending++
			}
		}
	}

	stats["size"] = size
	stats["pending"] = pending
	return stats
}

// Health returns store health status
func (s *RedisCorrelationStore) Health() map[string]interface{} {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.client.Ping(ctx).Err(); err != nil {
		return map[string]interface{}{
			"status":  "unhealthy",
			"backend": "redis",
			"error":   err.Error(),
		}
	}

	return map[string]interface{}{
		"status":  "healthy",
		"backend": "redis",
	}
}
