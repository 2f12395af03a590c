package veld

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// WildcardParam is the reserved parameter name a wildcard pattern binds the
// path remainder to.
const WildcardParam = "wildcard"

type patternKind int

const (
	patternPlain patternKind = iota
	patternOptional
	patternWildcard
	patternRegex
)

// segment is one slash-delimited element of a string pattern.
type segment struct {
	literal  string
	param    string
	optional bool
}

// Pattern is a parsed route pattern: literal, parameterized, optional,
// wildcard or regular-expression. Matching is pure and safe for concurrent
// use.
type Pattern struct {
	raw      string
	kind     patternKind
	re       *regexp.Regexp
	prefix   string // wildcard patterns: everything before "/*"
	segments []segment
}

// ParsePattern classifies a route pattern. It accepts a string or a
// *regexp.Regexp; anything else is rejected.
func ParsePattern(v any) (*Pattern, error) {
	switch pat := v.(type) {
	case *regexp.Regexp:
		return &Pattern{raw: pat.String(), kind: patternRegex, re: pat}, nil
	case string:
		return parseStringPattern(pat)
	default:
		return nil, errors.Newf("unsupported pattern type %T", v)
	}
}

func parseStringPattern(pat string) (*Pattern, error) {
	if pat == "" {
		return nil, errors.New("empty pattern")
	}

	if strings.Contains(pat, "*") {
		p := &Pattern{raw: pat, kind: patternWildcard}
		if pat != "*" {
			if !strings.HasSuffix(pat, "/*") {
				return nil, errors.Newf("wildcard must be bare or terminate the pattern: %q", pat)
			}
			p.prefix = strings.TrimSuffix(pat, "/*")
		}

		return p, nil
	}

	segs := splitSegments(pat)
	parsed := make([]segment, 0, len(segs))
	optional := false

	for _, s := range segs {
		switch {
		case strings.HasPrefix(s, ":") && strings.HasSuffix(s, "?"):
			parsed = append(parsed, segment{param: strings.TrimSuffix(s[1:], "?"), optional: true})
			optional = true
		case strings.HasPrefix(s, ":"):
			parsed = append(parsed, segment{param: s[1:]})
		default:
			parsed = append(parsed, segment{literal: s})
		}
	}

	kind := patternPlain
	if optional {
		kind = patternOptional
	}

	return &Pattern{raw: pat, kind: kind, segments: parsed}, nil
}

// String returns the pattern as registered.
func (p *Pattern) String() string { return p.raw }

// IsRegex reports whether the pattern is a regular expression.
func (p *Pattern) IsRegex() bool { return p.kind == patternRegex }

// Match tests the pattern against a request path, returning whether it
// matched and any extracted named parameters. Parameter values are
// percent-decoded before being exposed.
func (p *Pattern) Match(path string) (bool, map[string]string) {
	switch p.kind {
	case patternRegex:
		return p.matchRegex(path)
	case patternWildcard:
		return p.matchWildcard(path)
	default:
		return p.matchSegments(path)
	}
}

func (p *Pattern) matchRegex(path string) (bool, map[string]string) {
	m := p.re.FindStringSubmatch(path)
	if m == nil {
		return false, nil
	}

	params := make(map[string]string, len(m)-1)
	for i, v := range m[1:] {
		params["$"+strconv.Itoa(i+1)] = decodeParam(v)
	}

	return true, params
}

func (p *Pattern) matchWildcard(path string) (bool, map[string]string) {
	if p.raw == "*" {
		return true, map[string]string{WildcardParam: decodeParam(path)}
	}

	if !strings.HasPrefix(path, p.prefix) {
		return false, nil
	}

	rest := path[len(p.prefix):]
	if rest != "" && !strings.HasPrefix(rest, "/") {
		return false, nil // prefix must end at a segment boundary
	}

	return true, map[string]string{WildcardParam: decodeParam(rest)}
}

// matchSegments walks pattern and path segments in lock-step. Optional
// segments consume a path segment when one remains and are skipped
// otherwise; the match succeeds only when every path segment is consumed.
func (p *Pattern) matchSegments(path string) (bool, map[string]string) {
	segs := splitSegments(path)
	params := map[string]string{}
	si := 0

	for _, ps := range p.segments {
		switch {
		case ps.optional:
			if si < len(segs) {
				params[ps.param] = decodeParam(segs[si])
				si++
			}
		case ps.param != "":
			if si >= len(segs) {
				return false, nil
			}
			params[ps.param] = decodeParam(segs[si])
			si++
		default:
			if si >= len(segs) || segs[si] != ps.literal {
				return false, nil
			}
			si++
		}
	}

	if si != len(segs) {
		return false, nil
	}

	return true, params
}

// reverse substitutes parameter values in registration order to build a
// concrete path for the pattern. Regex and wildcard patterns cannot be
// reversed.
func (p *Pattern) reverse(vals ...string) (string, error) {
	if p.kind == patternRegex || p.kind == patternWildcard {
		return "", errors.Newf("pattern %q is not reversible", p.raw)
	}

	var b strings.Builder
	vi := 0

	for _, ps := range p.segments {
		switch {
		case ps.param != "" && vi < len(vals):
			fmt.Fprintf(&b, "/%s", url.PathEscape(vals[vi]))
			vi++
		case ps.param != "" && ps.optional:
			// skipped: no value left for an optional segment
		case ps.param != "":
			return "", errors.Newf("missing value for parameter %q", ps.param)
		default:
			fmt.Fprintf(&b, "/%s", ps.literal)
		}
	}

	if vi != len(vals) {
		return "", errors.Newf("too many values: %d given, %d consumed", len(vals), vi)
	}

	if b.Len() == 0 {
		return "/", nil
	}

	return b.String(), nil
}

// splitSegments splits a path or string pattern into its slash-delimited
// segments. "/" and "" yield no segments.
func splitSegments(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}

	return strings.Split(p, "/")
}

// decodeParam percent-decodes a parameter value, falling back to the raw
// value when decoding fails.
func decodeParam(v string) string {
	dec, err := url.PathUnescape(v)
	if err != nil {
		return v
	}

	return dec
}
