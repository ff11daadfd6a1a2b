package main

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vidatlas/vidatlas/pkg/config"
	"github.com/vidatlas/vidatlas/pkg/model"
)

type videoService interface {
	Videos(ctx context.Context, force bool) ([]*model.Video, error)
	Refresh(ctx context.Context) ([]*model.Video, error)
}

type Server struct {
	http.Server
}

func NewServer(cfg *config.Config, service videoService) *Server {
	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}

	bindAddress := cfg.Server.BindAddress
	if bindAddress == "*" {
		bindAddress = ""
	}

	srv := Server{}

	srv.Addr = fmt.Sprintf("%s:%d", bindAddress, port)
	srv.Handler = makeHandlers(service)

	return &srv
}

func makeHandlers(service videoService) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	r.GET("/videos", func(c *gin.Context) {
		force := c.Query("refresh") == "true"

		videos, err := service.Videos(c.Request.Context(), force)
		if err != nil {
			c.JSON(upstreamError(err))
			return
		}

		videos = filterVideos(videos, c.Query("channel_id"), c.Query("tag"), c.Query("located") == "true")

		if c.Query("sort") == "recorded" {
			videos = sortByRecordingDate(videos)
		}

		// An empty snapshot renders as [], not null
		if videos == nil {
			videos = []*model.Video{}
		}

		c.JSON(http.StatusOK, gin.H{
			"count":  len(videos),
			"videos": videos,
		})
	})

	r.POST("/refresh", func(c *gin.Context) {
		videos, err := service.Refresh(c.Request.Context())
		if err != nil {
			c.JSON(upstreamError(err))
			return
		}

		c.JSON(http.StatusOK, gin.H{"count": len(videos)})
	})

	return r
}

// filterVideos subsets the list without changing its order
func filterVideos(videos []*model.Video, channelID, tag string, located bool) []*model.Video {
	if channelID == "" && tag == "" && !located {
		return videos
	}

	out := make([]*model.Video, 0, len(videos))
	for _, video := range videos {
		if channelID != "" && video.ChannelID != channelID {
			continue
		}

		if tag != "" && !hasTag(video, tag) {
			continue
		}

		if located && video.Latitude == nil {
			continue
		}

		out = append(out, video)
	}

	return out
}

func hasTag(video *model.Video, tag string) bool {
	for _, have := range video.Tags {
		if strings.EqualFold(have, tag) {
			return true
		}
	}

	return false
}

// sortByRecordingDate reorders a copy of the list by recording date,
// newest first, items without one last
func sortByRecordingDate(videos []*model.Video) []*model.Video {
	out := make([]*model.Video, len(videos))
	copy(out, videos)

	sort.SliceStable(out, func(i, j int) bool {
		left, right := out[i].RecordingDate, out[j].RecordingDate
		if left == nil {
			return false
		}

		if right == nil {
			return true
		}

		return left.After(*right)
	})

	return out
}

func upstreamError(err error) (int, interface{}) {
	return http.StatusBadGateway, gin.H{"error": err.Error()}
}
