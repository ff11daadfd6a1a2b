package model

import (
	"time"
)

// Video is a single channel video with enrichment data merged in
type Video struct {
	// ID of the video, unique within the source
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	ChannelID    string    `json:"channel_id"`
	ChannelTitle string    `json:"channel_title"`
	PublishedAt  time.Time `json:"published_at"`
	Thumbnail    string    `json:"thumbnail,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	// City and Country are derived from the recording location
	City    *string `json:"city,omitempty"`
	Country *string `json:"country,omitempty"`
	// Latitude and Longitude are either both present or both absent
	Latitude      *float64   `json:"latitude,omitempty"`
	Longitude     *float64   `json:"longitude,omitempty"`
	RecordingDate *time.Time `json:"recording_date,omitempty"`
}

// VideoDetails is the enrichment payload queried for a single video
type VideoDetails struct {
	ID                  string
	Tags                []string
	Latitude            *float64
	Longitude           *float64
	LocationDescription string
	RecordingDate       *time.Time
}

// Location is a city/country pair resolved from coordinates
type Location struct {
	City    *string `json:"city,omitempty"`
	Country *string `json:"country,omitempty"`
}
