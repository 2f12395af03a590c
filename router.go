package veld

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// Handler is the terminal callable of a dispatch chain.
type Handler func(c *Context, w *ResponseWriter) error

// Next is the continuation a middleware invokes to hand control to the
// next stage of the chain.
type Next func() error

// Middleware receives the request context, the buffered response writer
// and a continuation. See the package documentation for the three valid
// outcomes of a middleware invocation.
type Middleware func(c *Context, w *ResponseWriter, next Next) error

// Validator checks a single route parameter value.
type Validator func(ctx context.Context, value string) error

// Route is one registered (method, pattern, handler) entry. Routes are
// created at registration time and immutable once serving begins.
type Route struct {
	Method  string
	Name    string
	pattern *Pattern

	handler    Handler
	middleware []Middleware
	validators map[string]Validator
}

// Pattern returns the route's parsed pattern.
func (rt *Route) Pattern() *Pattern { return rt.pattern }

// Validate attaches a validator for the named parameter. All validators of
// a matched route run and their failures are aggregated into a single
// validation error.
func (rt *Route) Validate(param string, fn Validator) *Route {
	if rt.validators == nil {
		rt.validators = make(map[string]Validator)
	}
	rt.validators[param] = fn

	return rt
}

// As names the route for URL reversing via [Router.Reverse].
func (rt *Route) As(name string) *Route {
	rt.Name = name
	return rt
}

// Router is an ordered route table. Lookup is a linear scan in
// registration order and the first match wins, which makes registration
// order significant: register more specific patterns before more general
// ones, or a wildcard will silently shadow a literal registered after it.
type Router struct {
	routes []*Route
}

// NewRouter inits an empty route table.
func NewRouter() *Router {
	return &Router{}
}

// Handle registers a route. The pattern may be a string (literal,
// parameterized, optional or wildcard) or a *regexp.Regexp. Registration
// must happen before serving begins; invalid patterns panic here, loudly
// and early, rather than failing requests later.
func (r *Router) Handle(method string, pattern any, h Handler, mw ...Middleware) *Route {
	pat, err := ParsePattern(pattern)
	if err != nil {
		panic("veld: " + err.Error())
	}

	rt := &Route{
		Method:     method,
		pattern:    pat,
		handler:    h,
		middleware: mw,
	}
	r.routes = append(r.routes, rt)

	return rt
}

// Get registers a GET route.
func (r *Router) Get(pattern any, h Handler, mw ...Middleware) *Route {
	return r.Handle(http.MethodGet, pattern, h, mw...)
}

// Post registers a POST route.
func (r *Router) Post(pattern any, h Handler, mw ...Middleware) *Route {
	return r.Handle(http.MethodPost, pattern, h, mw...)
}

// Put registers a PUT route.
func (r *Router) Put(pattern any, h Handler, mw ...Middleware) *Route {
	return r.Handle(http.MethodPut, pattern, h, mw...)
}

// Patch registers a PATCH route.
func (r *Router) Patch(pattern any, h Handler, mw ...Middleware) *Route {
	return r.Handle(http.MethodPatch, pattern, h, mw...)
}

// Delete registers a DELETE route.
func (r *Router) Delete(pattern any, h Handler, mw ...Middleware) *Route {
	return r.Handle(http.MethodDelete, pattern, h, mw...)
}

// Head registers a HEAD route.
func (r *Router) Head(pattern any, h Handler, mw ...Middleware) *Route {
	return r.Handle(http.MethodHead, pattern, h, mw...)
}

// Options registers an OPTIONS route.
func (r *Router) Options(pattern any, h Handler, mw ...Middleware) *Route {
	return r.Handle(http.MethodOptions, pattern, h, mw...)
}

// Any registers a route matching every method.
func (r *Router) Any(pattern any, h Handler, mw ...Middleware) *Route {
	return r.Handle("", pattern, h, mw...)
}

// Group runs fn and rewrites every route it registered: string patterns
// are prefixed and the group's middleware is prepended to each route's
// own. A grouped *regexp.Regexp pattern is not prefixable and is rejected
// with a panic at registration time.
func (r *Router) Group(prefix string, mw []Middleware, fn func(*Router)) {
	start := len(r.routes)
	fn(r)

	for _, rt := range r.routes[start:] {
		if rt.pattern.IsRegex() {
			panic("veld: cannot prefix a regular-expression pattern inside a group")
		}

		pat, err := ParsePattern(joinPattern(prefix, rt.pattern.String()))
		if err != nil {
			panic("veld: " + err.Error())
		}

		rt.pattern = pat
		rt.middleware = append(append([]Middleware{}, mw...), rt.middleware...)
	}
}

// Find returns the first registered route whose method matches and whose
// pattern matches the path, along with the extracted parameters.
func (r *Router) Find(method, path string) (*Route, map[string]string, bool) {
	for _, rt := range r.routes {
		if rt.Method != "" && rt.Method != method {
			continue
		}

		if ok, params := rt.pattern.Match(path); ok {
			return rt, params, true
		}
	}

	return nil, nil, false
}

// Reverse builds the URL for a named route by substituting the given
// parameter values in order.
func (r *Router) Reverse(name string, vals ...string) (string, error) {
	for _, rt := range r.routes {
		if rt.Name == name {
			return rt.pattern.reverse(vals...)
		}
	}

	known := lo.Filter(lo.Map(r.routes, func(rt *Route, _ int) string { return rt.Name }),
		func(n string, _ int) bool { return n != "" })
	sort.Strings(known)

	return "", &Error{
		Status:  http.StatusInternalServerError,
		Code:    CodeInternal,
		Message: "no route named " + name + ", got: " + strings.Join(known, ", "),
	}
}

// joinPattern joins a group prefix and a route pattern without doubling
// slashes.
func joinPattern(prefix, pattern string) string {
	prefix = strings.TrimSuffix(prefix, "/")

	if pattern == "/" || pattern == "" {
		if prefix == "" {
			return "/"
		}
		return prefix
	}

	if !strings.HasPrefix(pattern, "/") {
		pattern = "/" + pattern
	}

	return prefix + pattern
}
