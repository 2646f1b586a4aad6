// Package storage provides the persistence collaborator: a byte-blob
// key-value store the goal set and pending queue are serialized into.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("key not found")

// Storage defines the interface contract for blob persistence.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}
