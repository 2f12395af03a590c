package veld

import (
	"github.com/cockroachdb/errors"
)

// ErrContinuationReuse is the protocol violation raised when a middleware
// invokes a continuation at or before the last-advanced dispatch index.
var ErrContinuationReuse = errors.New("continuation invoked multiple times")

// dispatcher tracks progress through one request's middleware+handler
// sequence. The cursor is monotonically non-decreasing within a dispatch;
// a continuation call that would move it backwards fails loudly instead of
// being ignored, which protects against runaway middleware chains.
type dispatcher struct {
	chain   []Middleware
	handler Handler
	cursor  int
}

// dispatch runs global middleware, then route middleware, then the
// handler. A middleware that returns without invoking its continuation
// stops the chain whether or not it wrote a response; silently continuing
// past a middleware that opted out is never safe. Panics anywhere in the
// chain are recovered and surfaced as errors.
func dispatch(c *Context, w *ResponseWriter, global, route []Middleware, h Handler) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = Normalize(v)
		}
	}()

	chain := make([]Middleware, 0, len(global)+len(route))
	chain = append(chain, global...)
	chain = append(chain, route...)

	d := &dispatcher{chain: chain, handler: h, cursor: -1}

	return d.step(c, w, 0)
}

func (d *dispatcher) step(c *Context, w *ResponseWriter, i int) error {
	d.cursor = i

	if i >= len(d.chain) {
		return d.handler(c, w)
	}

	next := func() error {
		if i+1 <= d.cursor {
			return errors.Wrapf(ErrContinuationReuse, "middleware %d", i)
		}

		return d.step(c, w, i+1)
	}

	return d.chain[i](c, w, next)
}
