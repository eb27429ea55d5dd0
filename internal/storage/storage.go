// Package storage holds finished batch workbooks until they are downloaded.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no object exists under a key
var ErrNotFound = errors.New("object not found")

// ResultStorage stores result files by object key
type ResultStorage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Health(ctx context.Context) map[string]interface{}
}
