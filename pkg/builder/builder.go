package builder

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vidatlas/vidatlas/pkg/model"
)

// Source provides channel search pages and per-video enrichment payloads
type Source interface {
	SearchPage(ctx context.Context, channelID, pageToken string) ([]*model.Video, string, error)
	VideoDetails(ctx context.Context, ids []string) ([]*model.VideoDetails, error)
}

// Geocoder resolves coordinates to a city/country pair
type Geocoder interface {
	Resolve(ctx context.Context, lat, lon float64) model.Location
}

type Builder struct {
	source   Source
	geocoder Geocoder
}

func New(source Source, geocoder Geocoder) *Builder {
	return &Builder{source: source, geocoder: geocoder}
}

// Build aggregates the given channels into a single list sorted by publish
// date descending. Channels are fetched concurrently, the first channel whose
// search fails aborts the whole build.
func (b *Builder) Build(ctx context.Context, channelIDs []string) ([]*model.Video, error) {
	var (
		mu       sync.Mutex
		combined []*model.Video
	)

	group, ctx := errgroup.WithContext(ctx)

	for _, channelID := range channelIDs {
		channelID := channelID

		group.Go(func() error {
			result, err := b.buildChannel(ctx, channelID)
			if err != nil {
				return err
			}

			for _, err := range result.degraded {
				log.WithFields(log.Fields{
					"channel_id": channelID,
				}).WithError(err).Warn("video details degraded to preliminary data")
			}

			mu.Lock()
			combined = append(combined, result.videos...)
			mu.Unlock()

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(combined, func(i, j int) bool {
		return combined[i].PublishedAt.After(combined[j].PublishedAt)
	})

	return combined, nil
}

// channelResult is the outcome of one channel pipeline. Degraded batch errors
// leave their items with preliminary data instead of failing the channel.
type channelResult struct {
	videos   []*model.Video
	degraded []error
}

func (b *Builder) buildChannel(ctx context.Context, channelID string) (*channelResult, error) {
	videos, err := b.queryVideos(ctx, channelID)
	if err != nil {
		return nil, err
	}

	result := &channelResult{videos: videos}
	if len(videos) == 0 {
		return result, nil
	}

	details, degraded := b.queryDetails(ctx, videos)
	result.degraded = degraded

	b.enrich(ctx, videos, details)

	log.WithFields(log.Fields{
		"channel_id": channelID,
		"count":      len(videos),
	}).Debug("channel fetch complete")

	return result, nil
}

// queryVideos pages through the channel's search results until the source
// reports no continuation token. Results without a video id are dropped.
func (b *Builder) queryVideos(ctx context.Context, channelID string) ([]*model.Video, error) {
	var (
		videos []*model.Video
		token  string
	)

	for {
		page, next, err := b.source.SearchPage(ctx, channelID, token)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to query videos for channel %q", channelID)
		}

		for _, video := range page {
			if video.ID == "" {
				continue
			}

			videos = append(videos, video)
		}

		if next == "" {
			return videos, nil
		}

		token = next
	}
}

// queryDetails fetches enrichment payloads in batches of at most
// model.DefaultBatchSize ids, issued sequentially. A failed batch is recorded
// and skipped, its items keep preliminary data only.
func (b *Builder) queryDetails(ctx context.Context, videos []*model.Video) (map[string]*model.VideoDetails, []error) {
	ids := make([]string, 0, len(videos))
	for _, video := range videos {
		ids = append(ids, video.ID)
	}

	var (
		details  = make(map[string]*model.VideoDetails, len(ids))
		degraded []error
	)

	for start := 0; start < len(ids); start += model.DefaultBatchSize {
		end := start + model.DefaultBatchSize
		if end > len(ids) {
			end = len(ids)
		}

		batch, err := b.source.VideoDetails(ctx, ids[start:end])
		if err != nil {
			degraded = append(degraded, errors.Wrapf(err, "failed to query details for %d video(s)", end-start))
			continue
		}

		for _, item := range batch {
			details[item.ID] = item
		}
	}

	return details, degraded
}

// enrich merges detail payloads into the preliminary items. Items without a
// payload pass through unchanged.
func (b *Builder) enrich(ctx context.Context, videos []*model.Video, details map[string]*model.VideoDetails) {
	for _, video := range videos {
		payload, ok := details[video.ID]
		if !ok {
			continue
		}

		video.Tags = payload.Tags
		video.RecordingDate = payload.RecordingDate
		video.City, video.Country = parseLocationDescription(payload.LocationDescription)

		if payload.Latitude == nil || payload.Longitude == nil {
			continue
		}

		video.Latitude, video.Longitude = payload.Latitude, payload.Longitude

		// Geocoded values win over the description-derived ones
		location := b.geocoder.Resolve(ctx, *payload.Latitude, *payload.Longitude)
		if location.City != nil {
			video.City = location.City
		}
		if location.Country != nil {
			video.Country = location.Country
		}
	}
}

// parseLocationDescription splits a free-form "City, Region, Country"
// description. Two or more tokens yield city and country, a single token is
// treated as a country. Empty tokens never produce a value.
func parseLocationDescription(description string) (city, country *string) {
	tokens := strings.Split(description, ",")
	for i := range tokens {
		tokens[i] = strings.TrimSpace(tokens[i])
	}

	if len(tokens) >= 2 {
		return optional(tokens[0]), optional(tokens[len(tokens)-1])
	}

	return nil, optional(tokens[0])
}

func optional(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
