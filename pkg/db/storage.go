package db

import (
	"context"
	"time"

	"github.com/vidatlas/vidatlas/pkg/model"
)

const (
	CurrentVersion = 1
)

// Storage persists the last aggregate snapshot and its refresh timestamp
type Storage interface {
	Close() error

	// Clear removes every stored video row
	Clear(ctx context.Context) error

	// Upsert inserts or replaces videos by their id
	Upsert(ctx context.Context, videos []*model.Video) error

	// All returns every stored video. Scan order is not guaranteed.
	All(ctx context.Context) ([]*model.Video, error)

	// SetLastRefresh records when the snapshot was last rebuilt
	SetLastRefresh(ctx context.Context, ts time.Time) error

	// LastRefresh returns the time of the last successful refresh,
	// or nil if the store was never refreshed
	LastRefresh(ctx context.Context) (*time.Time, error)
}
