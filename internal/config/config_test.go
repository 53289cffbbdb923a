package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egannguyen/salon-shop/backend/internal/entity"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "postgres://test@db/shop")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://test@db/shop", cfg.DatabaseURL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "0.18", cfg.Rates.TaxRate.String())
	assert.Equal(t, int64(100), cfg.Rates.PointsBlock)
	assert.Equal(t, "10000", cfg.Rates.Shipping[entity.ShippingStandard].String())
	assert.Equal(t, 5*time.Second, cfg.PublishTimeout)
	assert.Len(t, cfg.Tiers, 4)
	assert.Equal(t, "Bronze", cfg.Tiers[0].Name)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("TAX_RATE", "0.1")
	t.Setenv("REWARDS_POINTS_BLOCK", "50")
	t.Setenv("PRICING_SHIPPING_EXPRESS", "45000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.1", cfg.Rates.TaxRate.String())
	assert.Equal(t, int64(50), cfg.Rates.PointsBlock)
	assert.Equal(t, "45000", cfg.Rates.Shipping[entity.ShippingExpress].String())
}

func TestLoadRejectsBadRates(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TAX_RATE", "eighteen")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadTiersFromFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	yaml := `
rewards:
  tiers:
    - name: Gold
      min_points: 500
      multiplier: 1.5
      benefits: ["free trim"]
    - name: Basic
      min_points: 0
      multiplier: 1
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Len(t, cfg.Tiers, 2)
	assert.Equal(t, "Basic", cfg.Tiers[0].Name)
	assert.Equal(t, "Gold", cfg.Tiers[1].Name)
	assert.Equal(t, "1.5", cfg.Tiers[1].Multiplier.String())
	assert.Equal(t, []string{"free trim"}, cfg.Tiers[1].Benefits)
}

func TestLoadStoreDriver(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_DRIVER", "Memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.StoreDriver)

	t.Setenv("STORE_DRIVER", "mongo")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadJWTSecret(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("STORE_DRIVER", "memory")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, devJWTSecret, cfg.JWTSecret)

	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}
