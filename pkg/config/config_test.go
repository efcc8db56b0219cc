package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "GEO_INDEX_BACKEND", "DISCOVERY_RADIUS_KM", "MAX_CONTENT_CHARS", "LOCATION_UPDATE_INTERVAL"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "memory", cfg.GeoIndexBackend)
	assert.Equal(t, 100.0, cfg.DiscoveryRadiusKm)
	assert.Equal(t, 280, cfg.MaxContentChars)
	assert.Equal(t, 5, cfg.MaxMediaItems)
	assert.Equal(t, time.Hour, cfg.LocationUpdateInterval)
	assert.Equal(t, 3*time.Second, cfg.GeocoderTimeout)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GEO_INDEX_BACKEND", "Redis")
	t.Setenv("DISCOVERY_RADIUS_KM", "25.5")
	t.Setenv("MAX_MEDIA_ITEMS", "8")
	t.Setenv("LOCATION_UPDATE_INTERVAL", "30m")
	t.Setenv("ENV", "production")

	cfg := Load()
	assert.Equal(t, "redis", cfg.GeoIndexBackend)
	assert.Equal(t, 25.5, cfg.DiscoveryRadiusKm)
	assert.Equal(t, 8, cfg.MaxMediaItems)
	assert.Equal(t, 30*time.Minute, cfg.LocationUpdateInterval)
	assert.True(t, cfg.IsProduction())
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("MAX_CONTENT_CHARS", "lots")
	t.Setenv("DISCOVERY_RADIUS_KM", "far")
	t.Setenv("GEOCODER_TIMEOUT", "3")

	cfg := Load()
	assert.Equal(t, 280, cfg.MaxContentChars)
	assert.Equal(t, 100.0, cfg.DiscoveryRadiusKm)
	assert.Equal(t, 3*time.Second, cfg.GeocoderTimeout)
}

func TestInitDBRequiresConnectionStrings(t *testing.T) {
	_, err := InitDB(&Config{}, nil)
	assert.ErrorContains(t, err, "POSTGRES_CONN_STR")
	_, err = InitDB(&Config{PostgresConnStr: "postgres://x"}, nil)
	assert.ErrorContains(t, err, "MONGO_URI")
}
