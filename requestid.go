package veld

import (
	"github.com/google/uuid"
)

// HeaderRequestID is the header carrying the request correlation id.
const HeaderRequestID = "X-Request-Id"

// RequestID returns middleware that correlates each request with an id:
// an inbound X-Request-Id is honored, otherwise a fresh uuid is generated.
// The id is exposed on the context and echoed on the response header.
func RequestID() Middleware {
	return RequestIDWithGenerator(func() string { return uuid.New().String() })
}

// RequestIDWithGenerator returns request-id middleware using a custom id
// generator.
func RequestIDWithGenerator(generate func() string) Middleware {
	return func(c *Context, w *ResponseWriter, next Next) error {
		id := c.Header.Get(HeaderRequestID)
		if id == "" {
			id = generate()
		}

		c.RequestID = id
		w.Header().Set(HeaderRequestID, id)

		return next()
	}
}
