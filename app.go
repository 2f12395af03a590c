package veld

import (
	"log"
	"net/http"
	"sort"
	"strconv"
	"sync/atomic"
	"time"
)

// App combines the route table, the dispatch pipeline, the body reader and
// the error responder into an http.Handler. Register routes and middleware
// during setup; the App is read-only once serving begins.
type App struct {
	*Router

	cfg      Config
	bodyOpts BodyOptions
	logs     Logger

	reporters     []Reporter
	errorHandlers []ErrorHandler

	middlewares struct {
		captured atomic.Bool
		buffered []Middleware
	}
}

// Option configures an App.
type Option func(*App)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(a *App) { a.cfg = cfg }
}

// WithLogger replaces the default standard-library logger.
func WithLogger(logs Logger) Option {
	return func(a *App) { a.logs = logs }
}

// WithBodyOptions replaces the default body reader options. A zero Limit
// or Timeout falls back to the [Config] values.
func WithBodyOptions(opts BodyOptions) Option {
	return func(a *App) { a.bodyOpts = opts }
}

// WithReporter registers an error reporter.
func WithReporter(r Reporter) Option {
	return func(a *App) { a.reporters = append(a.reporters, r) }
}

// WithErrorHandler registers an error handler.
func WithErrorHandler(h ErrorHandler) Option {
	return func(a *App) { a.errorHandlers = append(a.errorHandlers, h) }
}

// New creates an App with default settings.
func New(opts ...Option) *App {
	a := &App{
		Router:   NewRouter(),
		cfg:      DefaultConfig(),
		bodyOpts: BodyOptions{JSON: true, URLEncoded: true, Text: true, Multipart: true},
		logs:     NewStdLogger(log.Default()),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Use registers global middleware. It must be called before dispatch of
// the first request; calling it after a request was served panics.
func (a *App) Use(mw ...Middleware) {
	a.ensureNoUseAfterServe()
	a.middlewares.buffered = append(a.middlewares.buffered, mw...)
}

// ServeHTTP makes the App implement the http.Handler interface.
func (a *App) ServeHTTP(resp http.ResponseWriter, req *http.Request) {
	a.middlewares.captured.Store(true)

	w := NewResponseWriter(resp, a.cfg.BufferLimit)
	defer w.Free()

	c := newContext(req, time.Now())

	if err := a.serve(c, w, req); err != nil {
		a.respondError(err, c, w)
	}

	if err := w.FlushBuffer(); err != nil {
		a.logs.LogImplicitFlushError(err)
	}
}

// serve runs one request through body reading, route lookup, parameter
// validation and dispatch. Failures at every stage propagate up to the
// error responder rather than being handled locally.
func (a *App) serve(c *Context, w *ResponseWriter, req *http.Request) error {
	if methodHasBody(req.Method) && req.Body != nil {
		opts := a.bodyOpts
		if opts.Limit == "" {
			opts.Limit = a.cfg.BodyLimit
		}
		if opts.Timeout <= 0 {
			opts.Timeout = a.cfg.BodyTimeout
		}

		declared := ""
		if req.ContentLength >= 0 {
			declared = strconv.FormatInt(req.ContentLength, 10)
		}

		body, err := ReadBody(c, req.Body, req.Header.Get("Content-Type"), declared, opts)
		if err != nil {
			return err
		}

		c.Body = body
		if body.Kind == BodyMultipart {
			c.Files = body.Multipart.Files
		}
	}

	route, params, ok := a.Router.Find(req.Method, req.URL.Path)
	if !ok {
		return NotFound("no route for " + req.Method + " " + req.URL.Path)
	}

	c.Route = route
	c.Params = params

	if err := validateParams(c, route); err != nil {
		return err
	}

	return dispatch(c, w, a.middlewares.buffered, route.middleware, route.handler)
}

// validateParams runs every validator of the matched route and aggregates
// all failures into a single validation error rather than failing on the
// first.
func validateParams(c *Context, route *Route) error {
	if len(route.validators) == 0 {
		return nil
	}

	var failed []FieldError
	for name, validate := range route.validators {
		if err := validate(c, c.Params[name]); err != nil {
			failed = append(failed, FieldError{Param: name, Message: err.Error()})
		}
	}

	if len(failed) > 0 {
		sort.Slice(failed, func(i, j int) bool { return failed[i].Param < failed[j].Param })
		return Validation(failed)
	}

	return nil
}

// methodHasBody reports whether the body reader runs for this method.
func methodHasBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	default:
		return false
	}
}

func (a *App) ensureNoUseAfterServe() {
	if a.middlewares.captured.Load() {
		panic("veld: cannot call Use() after serving has begun")
	}
}
