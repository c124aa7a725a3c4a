package core

import (
	"context"

	"github.com/pkg/errors"
)

var ErrCacheMiss = errors.New("cache miss")

// Cache stores JSON encodable values by key. GetJSON returns ErrCacheMiss when key is absent or expired.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}) error
}
