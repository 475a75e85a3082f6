package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	s := Load(v)
	assert.Equal(t, 8080, s.Port)
	assert.Equal(t, "default", s.HouseholdID)
	assert.Equal(t, 30*time.Second, s.WeatherTimeout)
	assert.Empty(t, s.WeatherBaseURL)
	assert.Equal(t, "solarhub.db", filepath.Base(s.DBPath))
}

func TestInitReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
db: /tmp/test.db
port: 9090
weather:
  base_url: http://localhost:1234/v1/forecast
  timeout: 5s
`), 0o644))

	v := viper.New()
	SetDefaults(v)
	require.NoError(t, Init(v, path))

	s := Load(v)
	assert.Equal(t, "/tmp/test.db", s.DBPath)
	assert.Equal(t, 9090, s.Port)
	assert.Equal(t, "http://localhost:1234/v1/forecast", s.WeatherBaseURL)
	assert.Equal(t, 5*time.Second, s.WeatherTimeout)
}

func TestInitEnvOverride(t *testing.T) {
	t.Setenv("SOLARHUB_PORT", "7070")
	t.Setenv("SOLARHUB_WEATHER_TIMEOUT", "2s")
	t.Setenv("HOME", t.TempDir())

	v := viper.New()
	SetDefaults(v)
	require.NoError(t, Init(v, ""))

	s := Load(v)
	assert.Equal(t, 7070, s.Port)
	assert.Equal(t, 2*time.Second, s.WeatherTimeout)
}

func TestInitMissingExplicitFile(t *testing.T) {
	v := viper.New()
	err := Init(v, filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
