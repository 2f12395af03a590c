package veld

import (
	"bytes"
	"strings"
)

// DefaultPartContentType is assumed for multipart segments that declare no
// Content-Type of their own.
const DefaultPartContentType = "application/octet-stream"

// FilePart is a single uploaded file from a multipart body.
type FilePart struct {
	Name        string
	Filename    string
	ContentType string
	Data        []byte
}

// Multipart is the decomposed result of a multipart/form-data body:
// text fields by name plus uploaded files in order of appearance.
type Multipart struct {
	Fields map[string]string
	Files  []FilePart
}

var crlfcrlf = []byte("\r\n\r\n")

// parseMultipart splits a buffered multipart body at every "--boundary"
// delimiter, discarding the preamble before the first delimiter and the
// epilogue past the closing one. Each interior segment is split at the
// first blank line into headers and payload. Segments without a parsable
// Content-Disposition are skipped silently: real clients produce near-miss
// multipart bodies, and dropping one field beats failing the whole parse.
func parseMultipart(data []byte, boundary string) *Multipart {
	res := &Multipart{Fields: make(map[string]string)}

	parts := bytes.Split(data, []byte("--"+boundary))
	if len(parts) < 3 {
		return res // no interior segments
	}

	for _, part := range parts[1 : len(parts)-1] {
		headerBlock, payload, ok := bytes.Cut(part, crlfcrlf)
		if !ok {
			continue
		}

		name, filename, hasFilename := parseDisposition(headerBlock)
		if name == "" {
			continue
		}

		payload = bytes.TrimSuffix(payload, []byte("\r\n"))

		if hasFilename {
			res.Files = append(res.Files, FilePart{
				Name:        name,
				Filename:    filename,
				ContentType: partContentType(headerBlock),
				Data:        payload,
			})
			continue
		}

		res.Fields[name] = string(payload)
	}

	return res
}

// parseDisposition recovers the field name and optional filename from a
// segment's Content-Disposition header.
func parseDisposition(headerBlock []byte) (name, filename string, hasFilename bool) {
	line, ok := headerLine(headerBlock, "content-disposition:")
	if !ok {
		return "", "", false
	}

	name = headerAttr(line, "name")
	filename = headerAttr(line, "filename")
	hasFilename = strings.Contains(strings.ToLower(line), "filename=")

	return name, filename, hasFilename
}

func partContentType(headerBlock []byte) string {
	line, ok := headerLine(headerBlock, "content-type:")
	if !ok {
		return DefaultPartContentType
	}

	_, value, _ := strings.Cut(line, ":")

	return strings.TrimSpace(value)
}

// headerLine finds the header line starting with the given lowercase
// prefix inside a CRLF-separated header block.
func headerLine(headerBlock []byte, prefix string) (string, bool) {
	for _, raw := range bytes.Split(headerBlock, []byte("\r\n")) {
		line := strings.TrimSpace(string(raw))
		if strings.HasPrefix(strings.ToLower(line), prefix) {
			return line, true
		}
	}

	return "", false
}

// headerAttr extracts a quoted or bare attribute value like name="avatar"
// from a header line.
func headerAttr(line, key string) string {
	for _, piece := range strings.Split(line, ";") {
		piece = strings.TrimSpace(piece)

		k, v, ok := strings.Cut(piece, "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(k), key) {
			continue
		}

		return strings.Trim(strings.TrimSpace(v), `"`)
	}

	return ""
}
