package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setCarrierEnv(t *testing.T) {
	t.Setenv("CARRIER_BASE_URL", "https://carrier.example.com/")
	t.Setenv("CARRIER_USERNAME", "merchant")
	t.Setenv("CARRIER_PASSWORD", "secret")
}

func TestLoad(t *testing.T) {
	t.Run("loads defaults", func(t *testing.T) {
		setCarrierEnv(t)

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, "postgres", cfg.StorageDriver)
		assert.Equal(t, "https://carrier.example.com", cfg.Carrier.BaseURL)
		assert.Equal(t, 30*time.Second, cfg.Carrier.Timeout)
		assert.Zero(t, cfg.Carrier.SessionTTL)
		assert.False(t, cfg.Redis.Enabled())
		assert.Equal(t, "Africa/Casablanca", cfg.Fulfillment.Timezone.String())
	})

	t.Run("reads overrides", func(t *testing.T) {
		setCarrierEnv(t)
		t.Setenv("STORAGE_DRIVER", "MEMORY")
		t.Setenv("CARRIER_SESSION_TTL_SECONDS", "600")
		t.Setenv("REDIS_HOST", "redis")
		t.Setenv("BUSINESS_TIMEZONE", "UTC")
		t.Setenv("PICKUP_LOCATIONS", "Casa-12\nRabat:7")

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, "memory", cfg.StorageDriver)
		assert.Equal(t, 10*time.Minute, cfg.Carrier.SessionTTL)
		assert.True(t, cfg.Redis.Enabled())
		assert.Equal(t, 6379, cfg.Redis.Port)
		assert.Equal(t, time.UTC, cfg.Fulfillment.Timezone)
		assert.Equal(t, "Casa-12\nRabat:7", cfg.Fulfillment.PickupLocations)
	})

	t.Run("requires carrier credentials", func(t *testing.T) {
		t.Setenv("CARRIER_BASE_URL", "https://carrier.example.com")

		_, err := Load()

		assert.Error(t, err)
	})

	t.Run("rejects bad integers", func(t *testing.T) {
		setCarrierEnv(t)
		t.Setenv("CARRIER_TIMEOUT_SECONDS", "soon")

		_, err := Load()

		assert.ErrorContains(t, err, "CARRIER_TIMEOUT_SECONDS")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "bo", SSLMode: "disable"}

	assert.Equal(t, "host=db port=5432 user=u password=p dbname=bo sslmode=disable", db.DSN())
	assert.Equal(t, "postgres://u:p@db:5432/bo?sslmode=disable", db.URL())
}
