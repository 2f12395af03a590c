package veldapp

import (
	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap/zapcore"
)

// Environment defines the interface that all environment configurations
// must implement. Embed BaseEnvironment in your struct to satisfy it.
type Environment interface {
	port() int
	serviceName() string
	logLevel() zapcore.Level
	otelExporter() string
	production() bool
}

// BaseEnvironment contains the required environment variables. Embed this
// in your custom environment struct.
type BaseEnvironment struct {
	Port         int           `env:"VELDAPP_PORT" envDefault:"8080"`
	ServiceName  string        `env:"VELDAPP_SERVICE_NAME,required"`
	LogLevel     zapcore.Level `env:"VELDAPP_LOG_LEVEL" envDefault:"info"`
	OtelExporter string        `env:"VELDAPP_OTEL_EXPORTER" envDefault:"stdout"`
	Production   bool          `env:"VELDAPP_PRODUCTION" envDefault:"false"`
}

func (e BaseEnvironment) port() int {
	return e.Port
}

func (e BaseEnvironment) serviceName() string {
	return e.ServiceName
}

func (e BaseEnvironment) logLevel() zapcore.Level {
	return e.LogLevel
}

func (e BaseEnvironment) otelExporter() string {
	return e.OtelExporter
}

func (e BaseEnvironment) production() bool {
	return e.Production
}

var _ Environment = BaseEnvironment{}

// ParseEnv parses environment variables into the given Environment type.
func ParseEnv[E Environment]() func() (E, error) {
	return func() (e E, err error) {
		if err := env.Parse(&e); err != nil {
			return e, errors.Wrap(err, "failed to parse environment")
		}
		return e, nil
	}
}
