package source

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/vidatlas/vidatlas/pkg/model"
)

type YouTube struct {
	service *youtube.Service
}

func NewYouTube(ctx context.Context, key string) (*YouTube, error) {
	service, err := youtube.NewService(ctx, option.WithAPIKey(key))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create youtube client")
	}

	return &YouTube{service: service}, nil
}

// SearchPage queries one page of the channel's videos, most recent first.
// The returned token continues the listing, empty means the channel is exhausted.
func (yt *YouTube) SearchPage(ctx context.Context, channelID, pageToken string) ([]*model.Video, string, error) {
	req := yt.service.Search.List([]string{"id", "snippet"}).
		ChannelId(channelID).
		Type("video").
		Order("date").
		MaxResults(model.DefaultPageSize).
		Context(ctx)

	if pageToken != "" {
		req = req.PageToken(pageToken)
	}

	resp, err := req.Do()
	if err != nil {
		return nil, "", errors.Wrapf(err, "failed to search channel %q", channelID)
	}

	videos := make([]*model.Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		if video := searchVideo(item); video != nil {
			videos = append(videos, video)
		}
	}

	return videos, resp.NextPageToken, nil
}

// VideoDetails queries the enrichment payloads for the given video ids.
// The API accepts at most 50 ids per call, batching is up to the caller.
func (yt *YouTube) VideoDetails(ctx context.Context, ids []string) ([]*model.VideoDetails, error) {
	resp, err := yt.service.Videos.List([]string{"snippet", "recordingDetails"}).
		Id(strings.Join(ids, ",")).
		Context(ctx).
		Do()
	if err != nil {
		return nil, errors.Wrap(err, "failed to query video details")
	}

	details := make([]*model.VideoDetails, 0, len(resp.Items))
	for _, item := range resp.Items {
		details = append(details, videoDetails(item))
	}

	return details, nil
}

// searchVideo maps a search result to a preliminary video.
// Results without a video id are dropped.
func searchVideo(item *youtube.SearchResult) *model.Video {
	if item.Id == nil || item.Id.VideoId == "" {
		return nil
	}

	video := &model.Video{
		ID: item.Id.VideoId,
	}

	if snippet := item.Snippet; snippet != nil {
		video.Title = snippet.Title
		video.ChannelID = snippet.ChannelId
		video.ChannelTitle = snippet.ChannelTitle
		video.PublishedAt = parseDate(snippet.PublishedAt)
		video.Thumbnail = selectThumbnail(snippet.Thumbnails)
	}

	return video
}

func videoDetails(item *youtube.Video) *model.VideoDetails {
	details := &model.VideoDetails{
		ID: item.Id,
	}

	if item.Snippet != nil {
		details.Tags = item.Snippet.Tags
	}

	if recording := item.RecordingDetails; recording != nil {
		if recording.Location != nil {
			lat := recording.Location.Latitude
			lon := recording.Location.Longitude
			details.Latitude, details.Longitude = &lat, &lon
		}

		details.LocationDescription = recording.LocationDescription
		details.RecordingDate = parseRecordingDate(recording.RecordingDate)
	}

	return details
}

// selectThumbnail prefers the medium rendition, falling back to default, then high
func selectThumbnail(details *youtube.ThumbnailDetails) string {
	if details == nil {
		return ""
	}

	if details.Medium != nil {
		return details.Medium.Url
	}

	if details.Default != nil {
		return details.Default.Url
	}

	if details.High != nil {
		return details.High.Url
	}

	return ""
}

// parseDate degrades unparseable publish dates to the zero time instead of failing the item
func parseDate(s string) time.Time {
	date, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}

	return date
}

// parseRecordingDate accepts full timestamps and date-only values, anything else is nil
func parseRecordingDate(s string) *time.Time {
	if s == "" {
		return nil
	}

	if date, err := time.Parse(time.RFC3339, s); err == nil {
		return &date
	}

	if date, err := time.Parse("2006-01-02", s); err == nil {
		return &date
	}

	return nil
}
