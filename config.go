package imgcache

import (
	"time"

	"github.com/AdguardTeam/golibs/log"
	"github.com/caarlos0/env/v11"
)

// Config holds the configuration for a cache instance.
type Config struct {
	CacheDir       string        `env:"CACHE_DIR" envDefault:"cache"`     // directory where cache files are stored
	MaxParallel    int           `env:"MAX_PARALLEL" envDefault:"4"`      // maximum number of concurrent transfers
	MaxFiles       int           `env:"MAX_FILES" envDefault:"3"`         // maximum number of cache files surviving a sweep
	MaxAge         time.Duration `env:"MAX_AGE" envDefault:"168h"`        // cache files not accessed for this long are removed
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"` // per-transfer timeout
	InsecureTLS    bool          `env:"INSECURE_TLS" envDefault:"true"`   // skip TLS peer and host verification
	EnableLogging  bool          `env:"ENABLE_LOGGING" envDefault:"true"` // whether to enable logging of cache operations
}

// ConfigFromEnv parses the configuration from IMGCACHE_ prefixed environment
// variables, applying the defaults above.
func ConfigFromEnv() (Config, error) {
	return env.ParseAsWithOptions[Config](env.Options{Prefix: "IMGCACHE_"})
}

// applyDefaults fills zero values for configs constructed directly instead of
// through ConfigFromEnv. The boolean fields keep their explicit values, so a
// zero-value Config verifies TLS peers and stays quiet.
func (c *Config) applyDefaults() {
	if c.CacheDir == "" {
		c.CacheDir = "cache"
	}
	if c.MaxParallel <= 0 {
		c.MaxParallel = 4
	}
	if c.MaxFiles <= 0 {
		c.MaxFiles = 3
	}
	if c.MaxAge <= 0 {
		c.MaxAge = 168 * time.Hour
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 60 * time.Second
	}
}

func (c *Config) Print() {
	log.Info("Config:")
	log.Info("  CacheDir: %s", c.CacheDir)
	log.Info("  MaxParallel: %d", c.MaxParallel)
	log.Info("  MaxFiles: %d", c.MaxFiles)
	log.Info("  MaxAge: %s", c.MaxAge)
	log.Info("  RequestTimeout: %s", c.RequestTimeout)
	log.Info("  InsecureTLS: %t", c.InsecureTLS)
	log.Info("  EnableLogging: %t", c.EnableLogging)
}
