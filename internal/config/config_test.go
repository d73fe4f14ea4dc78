package config

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DevelopmentDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRESQL_HOST", "db")
	t.Setenv("POSTGRESQL_USER", "market")
	t.Setenv("POSTGRESQL_PASSWORD", "p@ss word")
	t.Setenv("POSTGRESQL_DBNAME", "market")
	t.Setenv("KAFKA_BROKERS", " kafka-1:9092, ,kafka-2:9092 ")
	t.Setenv("ADMIN_USER_ID", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:3001"}, cfg.AllowedOrigins)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, uuid.Nil, cfg.AdminUserID)
	assert.Contains(t, cfg.DatabaseURL, "market:p%40ss%20word@db:5432/market")
}

func TestLoad_ProductionRequiresSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "short")
	t.Setenv("REFRESH_SECRET", "")
	t.Setenv("STRIPE_SECRET_KEY", "")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")
	t.Setenv("LOG_LEVEL", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")

	long := "0123456789abcdef0123456789abcdef"
	t.Setenv("JWT_SECRET", long)
	t.Setenv("REFRESH_SECRET", long)
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://market.example.com")
	_, err = Load()
	assert.ErrorContains(t, err, "STRIPE")

	t.Setenv("STRIPE_SECRET_KEY", "sk_live_x")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_x")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"https://market.example.com"}, cfg.AllowedOrigins)
}

func TestLoad_AdminUserID(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("ADMIN_USER_ID", "not-a-uuid")
	_, err := Load()
	assert.Error(t, err)

	id := uuid.New()
	t.Setenv("ADMIN_USER_ID", id.String())
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, id, cfg.AdminUserID)
}

func TestCheckoutURLs(t *testing.T) {
	cfg := &Config{AppBaseURL: "https://market.example.com/"}
	assert.Equal(t, "https://market.example.com/orders/{ORDER_ID}?payment=success", cfg.CheckoutSuccessURL())
	assert.Equal(t, "https://market.example.com/orders/{ORDER_ID}?payment=cancelled", cfg.CheckoutCancelURL())
}
