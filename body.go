package veld

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// BodyKind tags the variants of a parsed request body.
type BodyKind int

const (
	// BodyNone means the request carried zero bytes. Distinct from a
	// present-but-empty decoded body.
	BodyNone BodyKind = iota
	BodyJSON
	BodyForm
	BodyRaw
	BodyText
	BodyMultipart
)

// Body is the tagged union produced by [ReadBody]. Exactly one of the
// variant fields is populated, indicated by Kind.
type Body struct {
	Kind      BodyKind
	JSON      any
	Form      map[string]string
	Raw       []byte
	Text      string
	Multipart *Multipart

	raw []byte // original bytes, kept for gjson queries
}

// Bytes returns the undecoded body bytes.
func (b *Body) Bytes() []byte { return b.raw }

// BodyOptions configure [ReadBody].
type BodyOptions struct {
	// Limit is a human-readable byte ceiling such as "1mb". Grammar:
	// ^(\d+(\.\d+)?)(b|kb|mb|gb)?$, case-insensitive, default unit bytes.
	Limit string
	// Timeout is the wall-clock ceiling for reading the whole body,
	// independent of byte progress.
	Timeout time.Duration
	// RawOutput skips content-type decoding and returns the buffer as-is.
	RawOutput bool

	JSON       bool
	URLEncoded bool
	Text       bool
	Multipart  bool
}

// DefaultBodyOptions enables every decoder with a 1mb ceiling and the
// default 30 second timeout.
func DefaultBodyOptions() BodyOptions {
	return BodyOptions{
		Limit:      "1mb",
		Timeout:    DefaultBodyTimeout,
		JSON:       true,
		URLEncoded: true,
		Text:       true,
		Multipart:  true,
	}
}

// DefaultBodyTimeout bounds how long a single body read may take.
const DefaultBodyTimeout = 30 * time.Second

// readChunkSize is how much is requested from the stream per read.
const readChunkSize = 32 * 1024

var limitPattern = regexp.MustCompile(`(?i)^(\d+(\.\d+)?)(b|kb|mb|gb)?$`)

// ParseLimit parses a human-readable size string like "10kb" or "1.5mb"
// into a byte count (floored). Units are b, kb, mb and gb with 1024
// multipliers; a missing unit means bytes.
func ParseLimit(s string) (int64, error) {
	m := limitPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, errors.Newf("malformed size limit %q, expected forms like \"512kb\" or \"1.5mb\"", s)
	}

	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, errors.Wrapf(err, "malformed size limit %q", s)
	}

	switch strings.ToLower(m[3]) {
	case "kb":
		n *= 1024
	case "mb":
		n *= 1024 * 1024
	case "gb":
		n *= 1024 * 1024 * 1024
	}

	return int64(math.Floor(n)), nil
}

type chunk struct {
	data []byte
	err  error
}

// ReadBody consumes the request body stream under the configured byte
// ceiling and decodes it according to the declared content type.
//
// A declared Content-Length above the limit is rejected before any bytes
// are read. Otherwise the stream is consumed chunk by chunk and the read
// aborts the moment the running total crosses the ceiling, so no more than
// limit + one chunk is ever buffered. Reads happen on their own goroutine
// so the wall-clock timeout holds even when the stream stalls.
func ReadBody(ctx context.Context, r io.Reader, contentType, contentLength string, opts BodyOptions) (*Body, error) {
	limit, err := ParseLimit(opts.Limit)
	if err != nil {
		return nil, errors.Wrap(err, "resolve body limit")
	}

	if contentLength != "" {
		declared, err := strconv.ParseInt(contentLength, 10, 64)
		if err == nil && declared > limit {
			return nil, EntityTooLarge("declared content length exceeds limit")
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultBodyTimeout
	}

	data, err := consume(ctx, r, limit, timeout)
	if err != nil {
		return nil, err
	}

	return decode(data, contentType, opts)
}

// consume drains the stream into memory, enforcing the byte ceiling and
// the wall-clock timeout.
func consume(ctx context.Context, r io.Reader, limit int64, timeout time.Duration) ([]byte, error) {
	chunks := make(chan chunk)
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			buf := make([]byte, readChunkSize)
			n, err := r.Read(buf)

			if n > 0 {
				select {
				case chunks <- chunk{data: buf[:n]}:
				case <-done:
					return
				}
			}

			if err != nil {
				select {
				case chunks <- chunk{err: err}:
				case <-done:
				}
				return
			}
		}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var buf bytes.Buffer
	var total int64

	for {
		select {
		case <-ctx.Done():
			return nil, Timeout("request canceled while reading body")
		case <-timer.C:
			return nil, Timeout("timed out reading request body")
		case ck := <-chunks:
			if ck.err != nil {
				if errors.Is(ck.err, io.EOF) {
					return buf.Bytes(), nil
				}
				return nil, BadRequest("request stream error: " + ck.err.Error())
			}

			total += int64(len(ck.data))
			if total > limit {
				return nil, EntityTooLarge("request body exceeds limit")
			}

			buf.Write(ck.data)
		}
	}
}

// decode inspects the content type and produces the tagged body union.
// Decoders disabled by options fall through to the default text treatment.
func decode(data []byte, contentType string, opts BodyOptions) (*Body, error) {
	if len(data) == 0 {
		return &Body{Kind: BodyNone}, nil
	}

	if opts.RawOutput {
		return &Body{Kind: BodyRaw, Raw: data, raw: data}, nil
	}

	ct := strings.ToLower(contentType)

	switch {
	case opts.JSON && strings.Contains(ct, "application/json"):
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, BadRequest("malformed JSON body: " + err.Error())
		}
		return &Body{Kind: BodyJSON, JSON: v, raw: data}, nil

	case opts.URLEncoded && strings.Contains(ct, "application/x-www-form-urlencoded"):
		form, err := decodeForm(string(data))
		if err != nil {
			return nil, BadRequest("malformed urlencoded body: " + err.Error())
		}
		return &Body{Kind: BodyForm, Form: form, raw: data}, nil

	case opts.Multipart && strings.Contains(ct, "multipart/form-data"):
		boundary := boundaryOf(contentType)
		if boundary == "" {
			return &Body{Kind: BodyRaw, Raw: data, raw: data}, nil
		}
		return &Body{Kind: BodyMultipart, Multipart: parseMultipart(data, boundary), raw: data}, nil

	case strings.HasPrefix(ct, "text/"):
		return &Body{Kind: BodyText, Text: string(data), raw: data}, nil

	default:
		return &Body{Kind: BodyText, Text: string(data), raw: data}, nil
	}
}

// decodeForm percent-decodes urlencoded key/value pairs. Later duplicate
// keys overwrite earlier ones.
func decodeForm(s string) (map[string]string, error) {
	form := make(map[string]string)

	for _, pair := range strings.Split(s, "&") {
		if pair == "" {
			continue
		}

		key, val, _ := strings.Cut(pair, "=")

		k, err := url.QueryUnescape(key)
		if err != nil {
			return nil, err
		}
		v, err := url.QueryUnescape(val)
		if err != nil {
			return nil, err
		}

		form[k] = v
	}

	return form, nil
}

// boundaryOf extracts the boundary attribute from a multipart content type.
// Returns "" when absent so the caller can fall back to the raw body.
func boundaryOf(contentType string) string {
	for _, part := range strings.Split(contentType, ";") {
		part = strings.TrimSpace(part)
		if rest, ok := cutPrefixFold(part, "boundary="); ok {
			return strings.Trim(rest, `"`)
		}
	}

	return ""
}

// cutPrefixFold is strings.CutPrefix with ASCII case-insensitive matching.
func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}

	return s[len(prefix):], true
}
