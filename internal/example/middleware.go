// Package example implements example middleware in an outside package.
package example

import (
	"go.uber.org/zap"

	"github.com/veldhttp/veld"
)

// loggerKey scopes the middleware's context value.
const loggerKey = "example.logger"

// Middleware provides an example for middleware that adds a request-scoped
// logger to the context.
func Middleware(logs *zap.Logger) veld.Middleware {
	return func(c *veld.Context, w *veld.ResponseWriter, next veld.Next) error {
		c.Set(loggerKey, logs.With(zap.String("method", c.Method)))

		return next()
	}
}

// Log returns the logger stored by [Middleware], or nil when absent.
func Log(c *veld.Context) *zap.Logger {
	v, _ := c.Get(loggerKey)
	logs, _ := v.(*zap.Logger)

	return logs
}
