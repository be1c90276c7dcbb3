package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "storefront", cfg.Database.Name)
	assert.Equal(t, "local", cfg.Storage.Provider)
	assert.Equal(t, "imagenes", cfg.Storage.Bucket)
	assert.Equal(t, 0.05, cfg.Loyalty.EarnRate)
	assert.Equal(t, 5*time.Minute, cfg.Scheduler.RecoveryTokenTTL)
	assert.Equal(t, 72*time.Hour, cfg.Scheduler.UnpaidOrderTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "storefront_session", cfg.Session.CookieName)
	assert.False(t, cfg.Gateway.Enabled)
	assert.True(t, cfg.App.IsDevelopment())
}

func TestLoad_PrefixedEnvOverrides(t *testing.T) {
	t.Setenv("STOREFRONT_SERVER_PORT", "9090")
	t.Setenv("STOREFRONT_LOYALTY_EARN_RATE", "0.1")
	t.Setenv("STOREFRONT_SCHEDULER_UNPAID_ORDER_TTL", "24h")
	t.Setenv("STOREFRONT_STORAGE_PROVIDER", "s3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 0.1, cfg.Loyalty.EarnRate)
	assert.Equal(t, 24*time.Hour, cfg.Scheduler.UnpaidOrderTTL)
	assert.Equal(t, "s3", cfg.Storage.Provider)
}

func TestLoad_ConventionalEnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "postgres.internal")
	t.Setenv("DB_NAME", "meraki")
	t.Setenv("PORT", "7000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres.internal", cfg.Database.Host)
	assert.Equal(t, "meraki", cfg.Database.Name)
	assert.Equal(t, "7000", cfg.Server.Port)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown storage provider", map[string]string{"STOREFRONT_STORAGE_PROVIDER": "ftp"}},
		{"earn rate above one", map[string]string{"STOREFRONT_LOYALTY_EARN_RATE": "1.5"}},
		{"production without session secret", map[string]string{"ENVIRONMENT": "production"}},
		{"gcs without project", map[string]string{"STOREFRONT_STORAGE_PROVIDER": "gcs"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", db.DSN())
}

func TestRedisConfig_URL(t *testing.T) {
	assert.Equal(t, "redis://cache:6379/2", (&RedisConfig{Host: "cache", Port: "6379", DB: 2}).URL())
	assert.Equal(t, "redis://:secret@cache:6379/0", (&RedisConfig{Host: "cache", Port: "6379", Password: "secret"}).URL())
	assert.Equal(t, "redis://override:1/0", (&RedisConfig{Host: "cache", Address: "redis://override:1/0"}).URL())
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger(LoggingConfig{Level: "debug", Format: "text"})
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)

	logger = NewLogger(LoggingConfig{Level: "nonsense", Format: "json"})
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
}
