package config

import (
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/vidatlas/vidatlas/pkg/link"
	"github.com/vidatlas/vidatlas/pkg/model"
)

type Tokens struct {
	// YouTube API key.
	// See https://developers.google.com/youtube/registering_an_application
	YouTube string `toml:"youtube"`
}

type Server struct {
	// BindAddress is the interface the API server listens on, "*" means all
	BindAddress string `toml:"bind_address"`
	// Port is a server port to listen to
	Port int `toml:"port"`
}

type Database struct {
	// Type selects the storage backend, either "sqlite" or "badger"
	Type string `toml:"type"`
	// Dir is a directory to keep database files
	Dir string `toml:"dir"`
}

type Geocoder struct {
	// Endpoint of the Nominatim instance to query for reverse geocoding
	Endpoint string `toml:"endpoint"`
	// UserAgent identifies this client to the geocoding service.
	// Nominatim's usage policy requires a descriptive value.
	UserAgent string `toml:"user_agent"`
}

type Config struct {
	// Channels is a list of channel ids or channel URLs to aggregate.
	// Normalized to bare ids on load.
	Channels StringSlice `toml:"channels"`
	// RefreshWindow is how long the cached snapshot is served before a
	// read refetches from the API.
	// Format is "300ms", "1.5h" or "2h45m".
	RefreshWindow Duration `toml:"refresh_window"`
	// Schedule is an optional cron expression for background refreshes.
	// NOTE: too frequent refreshes might drain your API token.
	Schedule string `toml:"schedule"`
	// Server is the web server configuration
	Server Server `toml:"server"`
	// Database configuration
	Database Database `toml:"database"`
	// Tokens is API keys to use to access the video platform
	Tokens Tokens `toml:"tokens"`
	// Geocoder is the reverse geocoding service configuration
	Geocoder Geocoder `toml:"geocoder"`
}

// LoadConfig loads TOML configuration from a file path
func LoadConfig(path string) (*Config, error) {
	config := Config{}
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, errors.Wrap(err, "failed to load config file")
	}

	config.applyDefaults(path)

	if err := config.validate(); err != nil {
		return nil, err
	}

	if err := config.normalizeChannels(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	var result *multierror.Error

	if c.Tokens.YouTube == "" {
		result = multierror.Append(result, errors.New("youtube API key is required"))
	}

	if len(c.Channels) == 0 {
		result = multierror.Append(result, errors.New("at least one channel must be specified"))
	}

	switch c.Database.Type {
	case "sqlite", "badger":
	default:
		result = multierror.Append(result, errors.Errorf("unsupported database type %q", c.Database.Type))
	}

	return result.ErrorOrNil()
}

func (c *Config) normalizeChannels() error {
	var result *multierror.Error

	for i, channel := range c.Channels {
		id, err := link.ChannelID(channel)
		if err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "invalid channel %q", channel))
			continue
		}

		c.Channels[i] = id
	}

	return result.ErrorOrNil()
}

func (c *Config) applyDefaults(configPath string) {
	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}

	if c.Database.Dir == "" {
		c.Database.Dir = filepath.Join(filepath.Dir(configPath), "db")
	}

	if c.RefreshWindow.Duration == 0 {
		c.RefreshWindow.Duration = model.DefaultRefreshWindow
	}

	if c.Geocoder.Endpoint == "" {
		c.Geocoder.Endpoint = "https://nominatim.openstreetmap.org"
	}

	if c.Geocoder.UserAgent == "" {
		c.Geocoder.UserAgent = "vidatlas/1.0 (+https://github.com/vidatlas/vidatlas)"
	}
}

type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	res, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}

	*d = Duration{res}
	return nil
}

// StringSlice is a toml extension that lets you to specify either a string
// value (a slice with just one element) or a string slice.
type StringSlice []string

func (s *StringSlice) UnmarshalTOML(v interface{}) error {
	switch value := v.(type) {
	case string:
		*s = []string{value}
		return nil
	case []interface{}:
		slice := make([]string, 0, len(value))
		for _, item := range value {
			str, ok := item.(string)
			if !ok {
				return errors.Errorf("unexpected %T in a string list", item)
			}

			slice = append(slice, str)
		}

		*s = slice
		return nil
	default:
		return errors.Errorf("failed to decode string (slice) field of type %T", v)
	}
}
