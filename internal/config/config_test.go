package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_SQLiteDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PORT", "")
	t.Setenv("TOKEN_TTL_HOURS", "")
	t.Setenv("PUBLIC_CONTENT_READS", "")
	t.Setenv("CLIENT_URL", "")
	t.Setenv("ALLOWED_ORIGINS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.DatabaseDriver)
	assert.Equal(t, "inote.db", cfg.DatabaseURL)
	assert.Equal(t, 168*time.Hour, cfg.TokenTTL)
	assert.True(t, cfg.PublicContentReads)
	assert.Equal(t, defaultOrigins, cfg.AllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/inote")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PORT", "8080")
	t.Setenv("TOKEN_TTL_HOURS", "2")
	t.Setenv("PUBLIC_CONTENT_READS", "false")
	t.Setenv("CLIENT_URL", "https://inote.example")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.False(t, cfg.PublicContentReads)
	assert.Contains(t, cfg.AllowedOrigins, "https://inote.example")
	assert.Contains(t, cfg.AllowedOrigins, "https://a.example")
	assert.Contains(t, cfg.AllowedOrigins, "https://b.example")
	assert.Len(t, cfg.AllowedOrigins, len(defaultOrigins)+3)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		dsn    string
		secret string
	}{
		{name: "postgres without dsn", driver: "postgres", dsn: "", secret: "secret"},
		{name: "unknown driver", driver: "mysql", dsn: "x", secret: "secret"},
		{name: "missing secret", driver: "sqlite", dsn: "", secret: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DB_DRIVER", tt.driver)
			t.Setenv("DATABASE_URL", tt.dsn)
			t.Setenv("JWT_SECRET", tt.secret)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestParseHours(t *testing.T) {
	assert.Equal(t, time.Hour, parseHours("nope", time.Hour))
	assert.Equal(t, time.Hour, parseHours("-3", time.Hour))
	assert.Equal(t, 5*time.Hour, parseHours("5", time.Hour))
}
