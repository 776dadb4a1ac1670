package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_DSN", "UPLOAD_DIR", "SESSION_TTL", "MAX_UPLOAD_BYTES", "SEED_DEMO"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "storefront.db", cfg.DBDSN)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 5<<20, cfg.MaxUploadBytes)
	assert.False(t, cfg.SeedDemo)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("SESSION_TTL", "90")
	t.Setenv("MAX_UPLOAD_BYTES", "oops")
	t.Setenv("SEED_DEMO", "true")
	cfg := Load()
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 90*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 5<<20, cfg.MaxUploadBytes)
	assert.True(t, cfg.SeedDemo)

	t.Setenv("SESSION_TTL", "2h")
	assert.Equal(t, 2*time.Hour, Load().SessionTTL)
}
