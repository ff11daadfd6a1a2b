package db

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/vidatlas/vidatlas/pkg/model"
)

const (
	videoPrefix     = "video/"
	videoPath       = "video/%s"
	lastRefreshPath = "meta/last_refresh"
)

type Badger struct {
	db *badger.DB
}

var _ Storage = (*Badger)(nil)

func NewBadger(config *Config) (*Badger, error) {
	dir := config.Dir

	log.Infof("opening database %q", dir)

	// Make sure database directory exists
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "could not mkdir database dir")
	}

	opts := badger.DefaultOptions(dir).WithLogger(log.StandardLogger())

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	return &Badger{db: db}, nil
}

func (b *Badger) Close() error {
	log.Debug("closing database")
	return b.db.Close()
}

func (b *Badger) Clear(_ context.Context) error {
	return b.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = b.getKey(videoPrefix)
		opts.PrefetchValues = false

		if err := b.iterator(txn, opts, func(item *badger.Item) error {
			return txn.Delete(item.KeyCopy(nil))
		}); err != nil {
			return errors.Wrap(err, "failed to clear videos")
		}

		return nil
	})
}

func (b *Badger) Upsert(_ context.Context, videos []*model.Video) error {
	return b.db.Update(func(txn *badger.Txn) error {
		for _, video := range videos {
			key := b.getKey(videoPath, video.ID)
			if err := b.setObj(txn, key, video); err != nil {
				return errors.Wrapf(err, "failed to save video %q", video.ID)
			}
		}

		return nil
	})
}

func (b *Badger) All(_ context.Context) ([]*model.Video, error) {
	var videos []*model.Video

	if err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = b.getKey(videoPrefix)
		opts.PrefetchValues = true

		return b.iterator(txn, opts, func(item *badger.Item) error {
			video := &model.Video{}
			if err := b.unmarshalObj(item, video); err != nil {
				return err
			}

			videos = append(videos, video)
			return nil
		})
	}); err != nil {
		return nil, err
	}

	return videos, nil
}

func (b *Badger) SetLastRefresh(_ context.Context, ts time.Time) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return b.setObj(txn, b.getKey(lastRefreshPath), ts.UTC())
	})
}

func (b *Badger) LastRefresh(_ context.Context) (*time.Time, error) {
	var ts time.Time

	err := b.db.View(func(txn *badger.Txn) error {
		return b.getObj(txn, b.getKey(lastRefreshPath), &ts)
	})
	if err == model.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &ts, nil
}

func (b *Badger) iterator(txn *badger.Txn, opts badger.IteratorOptions, callback func(item *badger.Item) error) error {
	iter := txn.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		item := iter.Item()

		if err := callback(item); err != nil {
			return err
		}
	}

	return nil
}

func (b *Badger) getKey(format string, a ...interface{}) []byte {
	resourcePath := fmt.Sprintf(format, a...)
	fullPath := fmt.Sprintf("vidatlas/v%d/%s", CurrentVersion, resourcePath)

	return []byte(fullPath)
}

func (b *Badger) setObj(txn *badger.Txn, key []byte, obj interface{}) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return errors.Wrapf(err, "failed to serialize object for key %q", key)
	}

	return txn.Set(key, data)
}

func (b *Badger) getObj(txn *badger.Txn, key []byte, out interface{}) error {
	item, err := txn.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return model.ErrNotFound
		}

		return err
	}

	return b.unmarshalObj(item, out)
}

func (b *Badger) unmarshalObj(item *badger.Item, out interface{}) error {
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}
