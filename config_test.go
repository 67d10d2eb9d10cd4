package imgcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromEnvDefaults(t *testing.T) {
	cfg, err := ConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "cache", cfg.CacheDir)
	assert.Equal(t, 4, cfg.MaxParallel)
	assert.Equal(t, 3, cfg.MaxFiles)
	assert.Equal(t, 168*time.Hour, cfg.MaxAge)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.InsecureTLS)
	assert.True(t, cfg.EnableLogging)
}

func TestConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("IMGCACHE_CACHE_DIR", "/tmp/images")
	t.Setenv("IMGCACHE_MAX_PARALLEL", "8")
	t.Setenv("IMGCACHE_MAX_FILES", "100")
	t.Setenv("IMGCACHE_MAX_AGE", "24h")
	t.Setenv("IMGCACHE_REQUEST_TIMEOUT", "5s")
	t.Setenv("IMGCACHE_INSECURE_TLS", "false")
	t.Setenv("IMGCACHE_ENABLE_LOGGING", "false")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/images", cfg.CacheDir)
	assert.Equal(t, 8, cfg.MaxParallel)
	assert.Equal(t, 100, cfg.MaxFiles)
	assert.Equal(t, 24*time.Hour, cfg.MaxAge)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.InsecureTLS)
	assert.False(t, cfg.EnableLogging)
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.applyDefaults()

	assert.Equal(t, "cache", cfg.CacheDir)
	assert.Equal(t, 4, cfg.MaxParallel)
	assert.Equal(t, 3, cfg.MaxFiles)
	assert.Equal(t, 168*time.Hour, cfg.MaxAge)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.InsecureTLS, "zero value keeps verification on")

	// explicit values survive
	cfg = Config{MaxParallel: 2, MaxFiles: 10}
	cfg.applyDefaults()
	assert.Equal(t, 2, cfg.MaxParallel)
	assert.Equal(t, 10, cfg.MaxFiles)
}
