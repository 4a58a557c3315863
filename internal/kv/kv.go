package kv

import (
	"context"
	"errors"
)

// Store is the visitor-local durable key-value store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

var ErrNotFound = errors.New("key not found")
