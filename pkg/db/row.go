package db

import (
	"strings"
	"time"

	"github.com/vidatlas/vidatlas/pkg/model"
)

// videoRow is the flat record a video persists as. Tags are joined by comma,
// which cannot distinguish an absent list from a single empty tag and does
// not escape commas occurring inside a tag. Dates are RFC 3339 text.
type videoRow struct {
	ID            string
	Title         string
	ChannelID     string
	ChannelTitle  string
	PublishedAt   string
	Thumbnail     string
	Tags          string
	City          *string
	Country       *string
	Latitude      *float64
	Longitude     *float64
	RecordingDate *string
}

func encodeRow(video *model.Video) *videoRow {
	row := &videoRow{
		ID:           video.ID,
		Title:        video.Title,
		ChannelID:    video.ChannelID,
		ChannelTitle: video.ChannelTitle,
		PublishedAt:  video.PublishedAt.UTC().Format(time.RFC3339Nano),
		Thumbnail:    video.Thumbnail,
		Tags:         strings.Join(video.Tags, ","),
		City:         video.City,
		Country:      video.Country,
		Latitude:     video.Latitude,
		Longitude:    video.Longitude,
	}

	if video.RecordingDate != nil {
		date := video.RecordingDate.UTC().Format(time.RFC3339Nano)
		row.RecordingDate = &date
	}

	return row
}

// decode reconstructs a video from its flat record. An unparseable publish
// date degrades to the zero time, an unparseable recording date to nil.
func (r *videoRow) decode() *model.Video {
	video := &model.Video{
		ID:           r.ID,
		Title:        r.Title,
		ChannelID:    r.ChannelID,
		ChannelTitle: r.ChannelTitle,
		Thumbnail:    r.Thumbnail,
		City:         r.City,
		Country:      r.Country,
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
	}

	if ts, err := time.Parse(time.RFC3339, r.PublishedAt); err == nil {
		video.PublishedAt = ts
	}

	if r.Tags != "" {
		video.Tags = strings.Split(r.Tags, ",")
	}

	if r.RecordingDate != nil {
		if ts, err := time.Parse(time.RFC3339, *r.RecordingDate); err == nil {
			video.RecordingDate = &ts
		}
	}

	return video
}
