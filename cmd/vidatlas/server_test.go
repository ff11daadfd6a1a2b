package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidatlas/vidatlas/pkg/config"
	"github.com/vidatlas/vidatlas/pkg/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeService struct {
	videos    []*model.Video
	err       error
	forced    []bool
	refreshes int
}

func (f *fakeService) Videos(_ context.Context, force bool) ([]*model.Video, error) {
	f.forced = append(f.forced, force)

	if f.err != nil {
		return nil, f.err
	}

	return f.videos, nil
}

func (f *fakeService) Refresh(_ context.Context) ([]*model.Video, error) {
	f.refreshes++

	if f.err != nil {
		return nil, f.err
	}

	return f.videos, nil
}

type videosResponse struct {
	Count  int            `json:"count"`
	Videos []*model.Video `json:"videos"`
}

func sampleVideos() []*model.Video {
	lat, lon := 46.0207, 7.7491
	may := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	april := time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)

	return []*model.Video{
		{
			ID:            "a",
			ChannelID:     "UC1",
			PublishedAt:   may.Add(48 * time.Hour),
			Tags:          []string{"Travel", "alps"},
			Latitude:      &lat,
			Longitude:     &lon,
			RecordingDate: &april,
		},
		{
			ID:          "b",
			ChannelID:   "UC2",
			PublishedAt: may.Add(24 * time.Hour),
			Tags:        []string{"travel"},
		},
		{
			ID:            "c",
			ChannelID:     "UC1",
			PublishedAt:   may,
			RecordingDate: &may,
		},
	}
}

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec
}

func videoIDs(t *testing.T, rec *httptest.ResponseRecorder) []string {
	t.Helper()

	var resp videosResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	out := make([]string, 0, len(resp.Videos))
	for _, video := range resp.Videos {
		out = append(out, video.ID)
	}

	return out
}

func TestServer_Healthz(t *testing.T) {
	handler := makeHandlers(&fakeService{})

	rec := get(t, handler, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestServer_Videos(t *testing.T) {
	service := &fakeService{videos: sampleVideos()}
	handler := makeHandlers(service)

	rec := get(t, handler, "/videos")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"a", "b", "c"}, videoIDs(t, rec))
	assert.Equal(t, []bool{false}, service.forced)
}

func TestServer_VideosEmptySnapshot(t *testing.T) {
	handler := makeHandlers(&fakeService{})

	rec := get(t, handler, "/videos")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count": 0, "videos": []}`, rec.Body.String())
}

func TestServer_VideosRefreshParam(t *testing.T) {
	service := &fakeService{videos: sampleVideos()}
	handler := makeHandlers(service)

	rec := get(t, handler, "/videos?refresh=true")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []bool{true}, service.forced)
}

func TestServer_VideosFilters(t *testing.T) {
	tests := map[string][]string{
		"/videos?channel_id=UC1":          {"a", "c"},
		"/videos?tag=TRAVEL":              {"a", "b"},
		"/videos?located=true":            {"a"},
		"/videos?channel_id=UC1&tag=alps": {"a"},
		"/videos?channel_id=UC404":        {},
	}

	for path, expected := range tests {
		t.Run(path, func(t *testing.T) {
			handler := makeHandlers(&fakeService{videos: sampleVideos()})

			rec := get(t, handler, path)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, expected, videoIDs(t, rec))
		})
	}
}

func TestServer_VideosSortRecorded(t *testing.T) {
	handler := makeHandlers(&fakeService{videos: sampleVideos()})

	rec := get(t, handler, "/videos?sort=recorded")
	assert.Equal(t, http.StatusOK, rec.Code)

	// Most recently recorded first, unknown recording dates last
	assert.Equal(t, []string{"c", "a", "b"}, videoIDs(t, rec))
}

func TestServer_VideosUpstreamError(t *testing.T) {
	handler := makeHandlers(&fakeService{err: errors.New("quota exceeded")})

	rec := get(t, handler, "/videos")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error": "quota exceeded"}`, rec.Body.String())
}

func TestServer_Refresh(t *testing.T) {
	service := &fakeService{videos: sampleVideos()}
	handler := makeHandlers(service)

	req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count": 3}`, rec.Body.String())
	assert.Equal(t, 1, service.refreshes)
}

func TestNewServer_Addr(t *testing.T) {
	srv := NewServer(&config.Config{}, &fakeService{})
	assert.Equal(t, ":8080", srv.Addr)

	srv = NewServer(&config.Config{
		Server: config.Server{BindAddress: "*", Port: 9090},
	}, &fakeService{})
	assert.Equal(t, ":9090", srv.Addr)

	srv = NewServer(&config.Config{
		Server: config.Server{BindAddress: "127.0.0.1", Port: 9090},
	}, &fakeService{})
	assert.Equal(t, "127.0.0.1:9090", srv.Addr)
}
