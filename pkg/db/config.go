package db

import (
	"github.com/pkg/errors"
)

type Config struct {
	// Type selects the storage backend, either "sqlite" (default) or "badger"
	Type string `toml:"type"`
	// Dir is a directory to keep database files
	Dir string `toml:"dir"`
}

// New opens the storage backend selected by the config
func New(config *Config) (Storage, error) {
	switch config.Type {
	case "", "sqlite":
		return NewSQLite(config)
	case "badger":
		return NewBadger(config)
	default:
		return nil, errors.Errorf("unsupported database type %q", config.Type)
	}
}
