package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	err := os.WriteFile(path, []byte(body), 0600)
	require.NoError(t, err)

	return path
}

func TestLoadConfig(t *testing.T) {
	const file = `
channels = [
  "UC5XPnUk8Vvv_pWslhwom6Og",
  "https://www.youtube.com/channel/UCrlakW-ewUT8sOod6Wmzyow/videos",
]

refresh_window = "12h"
schedule = "@every 6h"

[tokens]
youtube = "123"

[server]
port = 8080
bind_address = "*"

[database]
type = "badger"
dir = "/tmp/vidatlas/db"

[geocoder]
endpoint = "https://nominatim.example.com"
user_agent = "test-agent/1.0"
`

	config, err := LoadConfig(writeConfig(t, file))
	require.NoError(t, err)
	require.NotNil(t, config)

	assert.Equal(t, []string{"UC5XPnUk8Vvv_pWslhwom6Og", "UCrlakW-ewUT8sOod6Wmzyow"}, []string(config.Channels))

	assert.EqualValues(t, Duration{12 * time.Hour}, config.RefreshWindow)
	assert.Equal(t, "@every 6h", config.Schedule)

	assert.Equal(t, "123", config.Tokens.YouTube)

	assert.EqualValues(t, 8080, config.Server.Port)
	assert.Equal(t, "*", config.Server.BindAddress)

	assert.Equal(t, "badger", config.Database.Type)
	assert.Equal(t, "/tmp/vidatlas/db", config.Database.Dir)

	assert.Equal(t, "https://nominatim.example.com", config.Geocoder.Endpoint)
	assert.Equal(t, "test-agent/1.0", config.Geocoder.UserAgent)
}

func TestApplyDefaults(t *testing.T) {
	const file = `
channels = "UC5XPnUk8Vvv_pWslhwom6Og"

[tokens]
youtube = "123"
`

	path := writeConfig(t, file)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"UC5XPnUk8Vvv_pWslhwom6Og"}, []string(config.Channels))
	assert.Equal(t, 24*time.Hour, config.RefreshWindow.Duration)
	assert.Equal(t, "sqlite", config.Database.Type)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "db"), config.Database.Dir)
	assert.Equal(t, "https://nominatim.openstreetmap.org", config.Geocoder.Endpoint)
	assert.NotEmpty(t, config.Geocoder.UserAgent)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"no token": `
channels = ["UC5XPnUk8Vvv_pWslhwom6Og"]
`,
		"no channels": `
[tokens]
youtube = "123"
`,
		"bad channel": `
channels = ["https://www.youtube.com/watch?v=ygIUF678y40"]

[tokens]
youtube = "123"
`,
		"bad database type": `
channels = ["UC5XPnUk8Vvv_pWslhwom6Og"]

[tokens]
youtube = "123"

[database]
type = "postgres"
`,
	}

	for name, file := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, file))
			assert.Error(t, err)
		})
	}
}
