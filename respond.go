package veld

import (
	"fmt"
	"net/http"
	"time"
)

// Reporter observes normalized errors, fire-and-forget. A panicking
// reporter is logged and swallowed so it never masks the original error.
type Reporter func(err *Error, c *Context)

// ErrorHandler may write a response for a normalized error. Handlers run
// in registration order; the default JSON body is only written when none
// of them produced a response.
type ErrorHandler func(err *Error, c *Context, w *ResponseWriter) error

// errorBody is the JSON shape of the default error response.
type errorBody struct {
	Error     string `json:"error"`
	Status    int    `json:"status"`
	Code      string `json:"code,omitempty"`
	Details   any    `json:"details,omitempty"`
	Timestamp string `json:"timestamp"`
	RequestID string `json:"requestId,omitempty"`
	Duration  string `json:"duration,omitempty"`
}

// respondError normalizes the failure, fans it out to reporters and error
// handlers, and writes the default JSON error body when the response is
// still unsent afterwards.
func (a *App) respondError(v any, c *Context, w *ResponseWriter) {
	err := Normalize(v)

	if err.Status >= http.StatusInternalServerError {
		a.logs.LogUnhandledServeError(err)
	}

	// A failure discards any partial output still sitting in the buffer;
	// error handlers start from a clean response. The correlation header
	// survives so header-based tracing works on error paths too.
	w.Reset()
	if c.RequestID != "" {
		w.Header().Set(HeaderRequestID, c.RequestID)
	}

	for _, report := range a.reporters {
		a.report(report, err, c)
	}

	for _, handle := range a.errorHandlers {
		if herr := handle(err, c, w); herr != nil {
			a.logs.LogErrorHandlerFailure(herr)
		}
	}

	if w.Sent() {
		return
	}

	a.writeErrorBody(err, c, w)
}

// report isolates one reporter invocation.
func (a *App) report(report Reporter, err *Error, c *Context) {
	defer func() {
		if v := recover(); v != nil {
			a.logs.LogReporterPanic(v)
		}
	}()

	report(err, c)
}

func (a *App) writeErrorBody(err *Error, c *Context, w *ResponseWriter) {
	body := errorBody{
		Error:     err.Message,
		Status:    err.Status,
		Code:      err.Code,
		Details:   err.Details,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: c.RequestID,
	}

	if !c.start.IsZero() {
		body.Duration = c.Since().String()
	}

	if a.cfg.Production {
		// 5xx messages leak internals; replace with the generic phrase.
		// 4xx detail is client-actionable and stays.
		if err.Status >= http.StatusInternalServerError {
			body.Error = http.StatusText(err.Status)
			body.Details = nil
		}
	} else {
		details := map[string]any{
			"request": map[string]string{"method": c.Method, "path": c.Path},
		}
		if err.Details != nil {
			details["details"] = err.Details
		}
		if cause := err.Unwrap(); cause != nil {
			details["stack"] = fmt.Sprintf("%+v", cause)
		}
		body.Details = details
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(err.Status)

	if jerr := w.JSON(body); jerr != nil {
		a.logs.LogUnhandledServeError(jerr)
	}
}
