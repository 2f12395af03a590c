package veld

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/cockroachdb/errors"
)

// ErrBufferFull is returned from Write when the configured buffer limit
// would be exceeded.
var ErrBufferFull = errors.New("response buffer limit exceeded")

var bufferPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// ResponseWriter buffers everything written to it until the request
// completes. Buffering lets the error pipeline discard partial output and
// render a clean error response instead. A negative limit means unlimited.
type ResponseWriter struct {
	resp    http.ResponseWriter
	buf     *bytes.Buffer
	limit   int
	status  int
	header  http.Header
	sent    bool
	flushed bool
}

// NewResponseWriter wraps the underlying writer with a pooled buffer.
func NewResponseWriter(resp http.ResponseWriter, limit int) *ResponseWriter {
	buf, _ := bufferPool.Get().(*bytes.Buffer)

	return &ResponseWriter{
		resp:   resp,
		buf:    buf,
		limit:  limit,
		header: make(http.Header),
	}
}

// Header returns the buffered header map. Headers only reach the client
// when the buffer is flushed.
func (w *ResponseWriter) Header() http.Header { return w.header }

// Write appends to the buffer, marking the response as sent. It fails with
// [ErrBufferFull] when the configured limit would be exceeded.
func (w *ResponseWriter) Write(p []byte) (int, error) {
	if w.limit >= 0 && w.buf.Len()+len(p) > w.limit {
		return 0, ErrBufferFull
	}

	w.sent = true

	return w.buf.Write(p)
}

// WriteHeader records the status code and marks the response as sent.
func (w *ResponseWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.sent = true
}

// Sent reports whether a response has been produced: a status was written
// or bytes were buffered. The dispatch pipeline and the error responder
// consult this to decide whether the chain short-circuited and whether a
// default error body is still needed.
func (w *ResponseWriter) Sent() bool { return w.sent }

// StatusCode returns the recorded status, or 200 when none was set.
func (w *ResponseWriter) StatusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// Status records the status code and returns the writer for chaining.
func (w *ResponseWriter) Status(code int) *ResponseWriter {
	w.WriteHeader(code)
	return w
}

// Send writes a plain text response.
func (w *ResponseWriter) Send(text string) error {
	if w.header.Get("Content-Type") == "" {
		w.header.Set("Content-Type", "text/plain; charset=utf-8")
	}

	_, err := w.Write([]byte(text))

	return err
}

// JSON encodes v as the response body.
func (w *ResponseWriter) JSON(v any) error {
	w.header.Set("Content-Type", "application/json; charset=utf-8")

	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "encode JSON response")
	}

	_, err = w.Write(data)

	return err
}

// Redirect records a redirect response to the given location.
func (w *ResponseWriter) Redirect(code int, location string) error {
	w.header.Set("Location", location)
	w.WriteHeader(code)

	return nil
}

// Reset clears the buffer, headers and status for a fresh response.
func (w *ResponseWriter) Reset() {
	w.buf.Reset()
	w.header = make(http.Header)
	w.status = 0
	w.sent = false
}

// FlushBuffer commits headers, status and buffered bytes to the underlying
// writer. Flushing twice is a no-op.
func (w *ResponseWriter) FlushBuffer() error {
	if w.flushed {
		return nil
	}
	w.flushed = true

	dst := w.resp.Header()
	for k, vs := range w.header {
		dst[k] = vs
	}

	w.resp.WriteHeader(w.StatusCode())

	if _, err := w.resp.Write(w.buf.Bytes()); err != nil {
		return errors.Wrap(err, "flush response buffer")
	}

	return nil
}

// Free returns the buffer to the pool. The writer must not be used after.
func (w *ResponseWriter) Free() {
	if w.buf == nil {
		return
	}

	w.buf.Reset()
	bufferPool.Put(w.buf)
	w.buf = nil
}
