package veld

import (
	"go.uber.org/zap"
)

// RequestLogger returns middleware that logs one line per request with
// method, path, status, duration and correlation id. Errors still
// propagate to the responder; they are logged there, not here.
func RequestLogger(logs *zap.Logger) Middleware {
	return func(c *Context, w *ResponseWriter, next Next) error {
		err := next()

		// On failure the responder has not written yet; derive the status
		// from the error instead of the still-default writer.
		status := w.StatusCode()
		if err != nil {
			status = StatusOf(err)
		}

		fields := []zap.Field{
			zap.String("method", c.Method),
			zap.String("path", c.Path),
			zap.Int("status", status),
			zap.Duration("duration", c.Since()),
		}
		if c.RequestID != "" {
			fields = append(fields, zap.String("request_id", c.RequestID))
		}

		if err != nil {
			logs.Warn("request failed", append(fields, zap.Error(err))...)
		} else {
			logs.Info("request served", fields...)
		}

		return err
	}
}
