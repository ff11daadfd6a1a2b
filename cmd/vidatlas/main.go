package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vidatlas/vidatlas/pkg/builder"
	"github.com/vidatlas/vidatlas/pkg/config"
	"github.com/vidatlas/vidatlas/pkg/db"
	"github.com/vidatlas/vidatlas/pkg/geocode"
	"github.com/vidatlas/vidatlas/pkg/source"
	"github.com/vidatlas/vidatlas/pkg/videos"
)

type Opts struct {
	ConfigPath  string `long:"config" short:"c" default:"config.toml" env:"VIDATLAS_CONFIG_PATH"`
	Debug       bool   `long:"debug"`
	RefreshOnly bool   `long:"refresh-only"`
}

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	log.SetFormatter(&log.TextFormatter{
		TimestampFormat: time.RFC3339,
		FullTimestamp:   true,
	})

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	group, ctx := errgroup.WithContext(ctx)

	// Parse args
	opts := Opts{}
	if _, err := flags.Parse(&opts); err != nil {
		log.WithError(err).Fatal("failed to parse command line arguments")
	}

	if opts.Debug {
		log.SetLevel(log.DebugLevel)
	}

	log.WithFields(log.Fields{
		"version": version,
		"commit":  commit,
		"date":    date,
	}).Info("running vidatlas")

	// Load TOML file
	log.Debugf("loading configuration %q", opts.ConfigPath)
	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration file")
	}

	yt, err := source.NewYouTube(ctx, cfg.Tokens.YouTube)
	if err != nil {
		log.WithError(err).Fatal("failed to create youtube client")
	}

	storage, err := db.New(&db.Config{Type: cfg.Database.Type, Dir: cfg.Database.Dir})
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}

	geocoder := geocode.NewCache(geocode.NewNominatim(cfg.Geocoder.Endpoint, cfg.Geocoder.UserAgent))

	repo := videos.NewRepository(builder.New(yt, geocoder), storage, cfg.Channels, cfg.RefreshWindow.Duration)

	if opts.RefreshOnly {
		published, err := repo.Refresh(ctx)
		if err != nil {
			log.WithError(err).Fatal("refresh failed")
		}

		log.Infof("refreshed %d video(s)", len(published))

		if err := storage.Close(); err != nil {
			log.WithError(err).Error("failed to close database")
		}

		return
	}

	// Run background refresh thread
	if cfg.Schedule != "" {
		c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

		if _, err := c.AddFunc(cfg.Schedule, func() {
			log.Debug("running scheduled refresh")

			if _, err := repo.Refresh(ctx); err != nil {
				log.WithError(err).Error("scheduled refresh failed")
			}
		}); err != nil {
			log.WithError(err).Fatalf("invalid refresh schedule %q", cfg.Schedule)
		}

		group.Go(func() error {
			defer func() {
				log.Info("shutting down cron")
				c.Stop()
			}()

			// Warm the snapshot after restart so the first request
			// is served locally
			if _, err := repo.Videos(ctx, false); err != nil {
				log.WithError(err).Error("initial refresh failed")
			}

			c.Start()

			<-ctx.Done()
			return ctx.Err()
		})
	}

	// Run web server
	srv := NewServer(cfg, repo)

	group.Go(func() error {
		log.Infof("running listener at %s", srv.Addr)
		return srv.ListenAndServe()
	})

	group.Go(func() error {
		// Shutdown web server
		defer func() {
			log.Info("shutting down web server")
			if err := srv.Shutdown(ctx); err != nil {
				log.WithError(err).Error("server shutdown failed")
			}
		}()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			cancel()
			return nil
		}
	})

	if err := group.Wait(); err != nil && (err != context.Canceled && err != http.ErrServerClosed) {
		log.WithError(err).Error("wait error")
	}

	if err := storage.Close(); err != nil {
		log.WithError(err).Error("failed to close database")
	}

	log.Info("gracefully stopped")
}
