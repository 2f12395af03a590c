package veld

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
)

// Config holds the core knobs of an [App]. Zero values are replaced by the
// defaults from [DefaultConfig].
type Config struct {
	// Production suppresses diagnostic detail in error responses and
	// replaces 5xx messages with the generic status phrase.
	Production bool `env:"VELD_PRODUCTION" envDefault:"false"`
	// BodyLimit is the request body ceiling, e.g. "1mb".
	BodyLimit string `env:"VELD_BODY_LIMIT" envDefault:"1mb"`
	// BodyTimeout is the wall-clock ceiling for reading one request body.
	BodyTimeout time.Duration `env:"VELD_BODY_TIMEOUT" envDefault:"30s"`
	// BufferLimit caps the buffered response size; negative means unlimited.
	BufferLimit int `env:"VELD_BUFFER_LIMIT" envDefault:"-1"`
}

// DefaultConfig returns the configuration used when none is provided.
func DefaultConfig() Config {
	return Config{
		BodyLimit:   "1mb",
		BodyTimeout: DefaultBodyTimeout,
		BufferLimit: -1,
	}
}

// ParseConfig reads the configuration from VELD_* environment variables.
func ParseConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, errors.Wrap(err, "failed to parse environment")
	}

	return cfg, nil
}
