// Package veld provides a minimal HTTP application layer on top of the
// standard library's HTTP primitives: a route table with pattern matching,
// a continuation-based middleware pipeline with strict single-invocation
// semantics, a size-limited streaming body reader, and a normalizing error
// responder.
//
// # Overview
//
// veld extends net/http with four pieces that are deliberately kept small:
//
//   - a path pattern matcher supporting literal, parameterized, optional,
//     wildcard and regular-expression patterns
//   - a body reader that enforces a byte ceiling while streaming and decodes
//     JSON, urlencoded, text, raw and multipart payloads
//   - a dispatch pipeline that runs global middleware, route middleware and
//     the handler in order, guarding against double continuation calls
//   - an error normalizer that converts any failure into a typed error and
//     renders a structured JSON response
//
// A minimal example:
//
//	app := veld.New()
//	app.Get("/items/:id", func(c *veld.Context, w *veld.ResponseWriter) error {
//	    item, err := db.GetItem(c, c.Param("id"))
//	    if err != nil {
//	        return veld.NotFound("item does not exist")
//	    }
//	    return w.JSON(item)
//	})
//	http.ListenAndServe(":8080", app)
//
// # Patterns
//
// Route patterns are classified in order: a *regexp.Regexp is applied
// directly and numbered captures become parameters keyed "$1", "$2", ….
// A pattern containing "*" is a wildcard; "/api/*" binds the remainder
// (including the leading slash) to the reserved "wildcard" parameter.
// A segment like ":id?" is optional and is skipped when the path runs out
// of segments. Otherwise the pattern is matched segment by segment, ":name"
// segments binding the percent-decoded path value.
//
// Lookup is a linear scan in registration order and the first match wins.
// This makes registration order significant: a wildcard registered before
// a literal silently shadows it, so register specific patterns first.
//
// # Middleware
//
// Middleware receives the request context, the buffered response writer and
// a continuation. Exactly one of three things is valid: call the
// continuation once, write a response without calling it, or return an
// error. Calling a continuation twice fails the request with a protocol
// error rather than being ignored. A middleware that neither continues nor
// writes stops the chain; nothing downstream runs.
//
//	app.Use(func(c *veld.Context, w *veld.ResponseWriter, next veld.Next) error {
//	    if c.Header.Get("Authorization") == "" {
//	        return veld.Unauthorized("missing token")
//	    }
//	    return next()
//	})
//
// # Body reading
//
// For body-carrying methods the app reads the request body before dispatch,
// bounded by a human-readable limit such as "1mb". A declared
// Content-Length above the limit is rejected without reading; otherwise the
// stream is consumed chunk by chunk and aborted the instant the running
// total crosses the ceiling, so peak memory stays O(limit). The decoded
// result is available on the context as a tagged union, with gjson-backed
// access into JSON bodies via [Context.BodyJSON].
//
// # Error handling
//
// Handlers and middleware return errors instead of writing error responses
// inline. Typed errors carry an HTTP status and a machine-readable code:
//
//	return veld.BadRequest("invalid cursor")
//	return veld.TooManyRequests("slow down", time.Minute)
//
// Any other error, and any recovered panic, is normalized to a 500. After
// registered reporters and error handlers run, a JSON error body is written
// if nothing responded yet. In production mode 5xx messages are replaced
// with the generic status phrase and diagnostic detail is withheld; 4xx
// detail is preserved.
//
// # Buffered responses
//
// The [ResponseWriter] buffers all writes until the request completes,
// which lets the error pipeline discard partial output and render a clean
// error response. [ResponseWriter.Reset] clears the buffer and headers,
// [ResponseWriter.FlushBuffer] commits to the underlying writer, and
// [ResponseWriter.Free] returns the buffer to a pool; the app calls the
// latter two implicitly.
//
// The veldapp subpackage assembles the batteries-included application:
// env-derived configuration, zap logging, otel tracing, prometheus metrics
// and http.Server lifecycle management.
package veld
