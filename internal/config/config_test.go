package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/app")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "postgres://u:p@db:5432/app", cfg.DatabaseURL)
	assert.Equal(t, PaymentProviderSandbox, cfg.PaymentProvider)
	assert.Equal(t, 5.0, cfg.PlatformFeePercent)
	assert.Equal(t, 0.012, cfg.INRToUSDRate)
	assert.Equal(t, 1, cfg.DefaultMaxRevisions)
	assert.Equal(t, 72*time.Hour, cfg.AutoReleaseAfter)
	assert.Equal(t, 720*time.Hour, cfg.NotificationTTL)
	assert.Equal(t, int64(10), cfg.MaxUploadSizeMB)
	assert.Equal(t, 5, cfg.MaxUploadFiles)
	assert.NotEmpty(t, cfg.JWTSecret)
}

func TestLoad_ProductionRequiresSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "short")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoad_StripeRequiresKey(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("PAYMENT_PROVIDER", "stripe")
	t.Setenv("STRIPE_SECRET_KEY", "")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, PaymentProviderStripe, cfg.PaymentProvider)
}

func TestGetDatabaseURL_FromParts(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRESQL_HOST", "db")
	t.Setenv("POSTGRESQL_USER", "app")
	t.Setenv("POSTGRESQL_PASSWORD", "p@ss")
	t.Setenv("POSTGRESQL_DBNAME", "market")

	assert.Equal(t, "postgres://app:p%40ss@db:5432/market?sslmode=disable", getDatabaseURL())
}
