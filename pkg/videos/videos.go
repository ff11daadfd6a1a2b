package videos

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/vidatlas/vidatlas/pkg/model"
)

// Builder assembles a fresh snapshot of every configured channel
type Builder interface {
	Build(ctx context.Context, channelIDs []string) ([]*model.Video, error)
}

// Storage keeps the last snapshot between refreshes
type Storage interface {
	Clear(ctx context.Context) error
	Upsert(ctx context.Context, videos []*model.Video) error
	All(ctx context.Context) ([]*model.Video, error)
	SetLastRefresh(ctx context.Context, ts time.Time) error
	LastRefresh(ctx context.Context) (*time.Time, error)
}

// Repository serves the aggregated video list, rebuilding it from the
// upstream APIs only when the local snapshot is older than the refresh
// window or the caller asks for a forced refresh.
type Repository struct {
	builder  Builder
	storage  Storage
	channels []string
	window   time.Duration

	refreshMu sync.Mutex
}

func NewRepository(builder Builder, storage Storage, channels []string, window time.Duration) *Repository {
	if window <= 0 {
		window = model.DefaultRefreshWindow
	}

	return &Repository{
		builder:  builder,
		storage:  storage,
		channels: channels,
		window:   window,
	}
}

// Videos returns every video of the configured channels, newest first.
func (r *Repository) Videos(ctx context.Context, force bool) ([]*model.Video, error) {
	if !force {
		videos, ok, err := r.cached(ctx)
		if err != nil {
			return nil, err
		}

		if ok {
			return videos, nil
		}
	}

	return r.Refresh(ctx)
}

func (r *Repository) cached(ctx context.Context) ([]*model.Video, bool, error) {
	lastRefresh, err := r.storage.LastRefresh(ctx)
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to read last refresh time")
	}

	if lastRefresh == nil {
		return nil, false, nil
	}

	if age := time.Since(*lastRefresh); age >= r.window {
		log.Debugf("snapshot is %s old, refreshing", age)
		return nil, false, nil
	}

	videos, err := r.storage.All(ctx)
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to read cached videos")
	}

	// Scan order is backend dependent, restore newest first
	sort.Slice(videos, func(i, j int) bool {
		return videos[i].PublishedAt.After(videos[j].PublishedAt)
	})

	log.Debugf("serving %d video(s) from the local snapshot", len(videos))

	return videos, true, nil
}

// Refresh rebuilds the snapshot unconditionally and replaces the stored
// one. The cache is left untouched when the rebuild fails. Concurrent
// callers are serialized so two rebuilds never interleave their writes,
// the cron schedule and the refresh endpoint may fire at the same time.
func (r *Repository) Refresh(ctx context.Context) ([]*model.Video, error) {
	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()

	started := time.Now()

	videos, err := r.builder.Build(ctx, r.channels)
	if err != nil {
		return nil, err
	}

	if err := r.storage.Clear(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to clear stale videos")
	}

	if err := r.storage.Upsert(ctx, videos); err != nil {
		return nil, errors.Wrap(err, "failed to save videos")
	}

	if err := r.storage.SetLastRefresh(ctx, time.Now().UTC()); err != nil {
		return nil, errors.Wrap(err, "failed to save last refresh time")
	}

	elapsed := time.Since(started)
	log.Infof("refreshed %d video(s) from %d channel(s) in %s", len(videos), len(r.channels), elapsed)

	return videos, nil
}
