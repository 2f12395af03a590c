package veld

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
)

// Context is the enriched inbound request handed to middleware and
// handlers: method, path, query, headers, the parsed body, extracted route
// parameters and an optional correlation id. It embeds the request's
// context.Context. One Context is created per request and owned by that
// request's goroutine; no synchronization is required.
type Context struct {
	context.Context

	Method     string
	Path       string
	Query      url.Values
	Header     http.Header
	RemoteAddr string

	// Body is the decoded request body, or nil when the method carries none.
	Body *Body
	// Params holds the parameters extracted by the matched pattern.
	Params map[string]string
	// Files lists uploaded files when the body was multipart.
	Files []FilePart
	// RequestID is the correlation id, when the RequestID middleware ran.
	RequestID string
	// Route is the matched route.
	Route *Route

	req    *http.Request
	start  time.Time
	values map[string]any
}

// Request exposes the underlying request for interoperating with handlers
// from the wider http ecosystem.
func (c *Context) Request() *http.Request { return c.req }

func newContext(r *http.Request, start time.Time) *Context {
	return &Context{
		Context:    r.Context(),
		Method:     r.Method,
		Path:       r.URL.Path,
		Query:      r.URL.Query(),
		Header:     r.Header,
		RemoteAddr: r.RemoteAddr,
		req:        r,
		start:      start,
	}
}

// Param returns the named route parameter, or "" when absent.
func (c *Context) Param(name string) string { return c.Params[name] }

// QueryValue returns the first query value for the given key.
func (c *Context) QueryValue(name string) string { return c.Query.Get(name) }

// BodyJSON queries a path inside a JSON body, e.g. c.BodyJSON("user.name").
// The zero gjson.Result is returned when there is no JSON body.
func (c *Context) BodyJSON(path string) gjson.Result {
	if c.Body == nil || c.Body.Kind != BodyJSON {
		return gjson.Result{}
	}

	return gjson.GetBytes(c.Body.raw, path)
}

// Set stores a request-scoped value for later middleware and the handler.
func (c *Context) Set(key string, v any) {
	if c.values == nil {
		c.values = make(map[string]any)
	}
	c.values[key] = v
}

// Get returns a value previously stored with Set.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Since returns how long the request has been in flight.
func (c *Context) Since() time.Duration { return time.Since(c.start) }
