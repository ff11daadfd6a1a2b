package model

import (
	"time"
)

const (
	// DefaultPageSize is the number of search results to request per page
	DefaultPageSize = 50
	// DefaultBatchSize is the maximum number of ids per video details call
	DefaultBatchSize = 50
	// DefaultRefreshWindow is how long a cached snapshot is served without refetching
	DefaultRefreshWindow = 24 * time.Hour
)
