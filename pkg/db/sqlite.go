package db

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/vidatlas/vidatlas/pkg/model"
)

const lastRefreshKey = "last_refresh"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS videos (
	video_id       TEXT PRIMARY KEY,
	title          TEXT NOT NULL DEFAULT '',
	channel_id     TEXT NOT NULL DEFAULT '',
	channel_title  TEXT NOT NULL DEFAULT '',
	published_at   TEXT NOT NULL DEFAULT '',
	thumbnail      TEXT NOT NULL DEFAULT '',
	tags           TEXT NOT NULL DEFAULT '',
	city           TEXT,
	country        TEXT,
	latitude       REAL,
	longitude      REAL,
	recording_date TEXT
);

CREATE TABLE IF NOT EXISTS metadata (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

const sqliteUpsert = `
INSERT OR REPLACE INTO videos (
	video_id, title, channel_id, channel_title, published_at,
	thumbnail, tags, city, country, latitude, longitude, recording_date
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const sqliteSelect = `
SELECT
	video_id, title, channel_id, channel_title, published_at,
	thumbnail, tags, city, country, latitude, longitude, recording_date
FROM videos
ORDER BY published_at DESC`

type SQLite struct {
	db *sql.DB
}

var _ Storage = (*SQLite)(nil)

func NewSQLite(config *Config) (*SQLite, error) {
	dir := config.Dir

	log.Infof("opening database %q", dir)

	// Make sure database directory exists
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "could not mkdir database dir")
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "vidatlas.db"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to create database schema")
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	log.Debug("closing database")
	return s.db.Close()
}

func (s *SQLite) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM videos"); err != nil {
		return errors.Wrap(err, "failed to clear videos")
	}

	return nil
}

func (s *SQLite) Upsert(ctx context.Context, videos []*model.Video) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}

	for _, video := range videos {
		row := encodeRow(video)

		_, err := tx.ExecContext(ctx, sqliteUpsert,
			row.ID, row.Title, row.ChannelID, row.ChannelTitle, row.PublishedAt,
			row.Thumbnail, row.Tags, row.City, row.Country, row.Latitude, row.Longitude, row.RecordingDate)
		if err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "failed to save video %q", video.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit videos")
	}

	return nil
}

func (s *SQLite) All(ctx context.Context) ([]*model.Video, error) {
	rows, err := s.db.QueryContext(ctx, sqliteSelect)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query videos")
	}
	defer rows.Close()

	var videos []*model.Video

	for rows.Next() {
		var row videoRow

		err := rows.Scan(
			&row.ID, &row.Title, &row.ChannelID, &row.ChannelTitle, &row.PublishedAt,
			&row.Thumbnail, &row.Tags, &row.City, &row.Country, &row.Latitude, &row.Longitude, &row.RecordingDate)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan video row")
		}

		videos = append(videos, row.decode())
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate videos")
	}

	return videos, nil
}

func (s *SQLite) SetLastRefresh(ctx context.Context, ts time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)",
		lastRefreshKey, ts.UTC().Format(time.RFC3339))
	if err != nil {
		return errors.Wrap(err, "failed to save last refresh time")
	}

	return nil
}

func (s *SQLite) LastRefresh(ctx context.Context) (*time.Time, error) {
	var value string

	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM metadata WHERE key = ?", lastRefreshKey).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to query last refresh time")
	}

	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse last refresh time %q", value)
	}

	return &ts, nil
}
