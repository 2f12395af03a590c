package veld_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/veldhttp/veld"
)

func TestMatchPlain(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		path    string
		matched bool
		params  map[string]string
	}{
		{"literal", "/users/all", "/users/all", true, map[string]string{}},
		{"literal mismatch", "/users/all", "/users/one", false, nil},
		{"literal case sensitive", "/Users", "/users", false, nil},
		{"root", "/", "/", true, map[string]string{}},
		{"param", "/users/:id", "/users/42", true, map[string]string{"id": "42"}},
		{"param extra segment", "/users/:id", "/users/42/extra", false, nil},
		{"param missing segment", "/users/:id", "/users", false, nil},
		{"two params", "/orgs/:org/repos/:repo", "/orgs/acme/repos/site", true,
			map[string]string{"org": "acme", "repo": "site"}},
		{"percent decoding", "/users/:name", "/users/jo%20ann", true,
			map[string]string{"name": "jo ann"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pat, err := veld.ParsePattern(tt.pattern)
			require.NoError(t, err)

			ok, params := pat.Match(tt.path)
			require.Equal(t, tt.matched, ok)
			if tt.matched {
				require.Equal(t, tt.params, params)
			}
		})
	}
}

func TestMatchOptional(t *testing.T) {
	pat, err := veld.ParsePattern("/users/:id?")
	require.NoError(t, err)

	ok, params := pat.Match("/users")
	require.True(t, ok)
	require.Empty(t, params)

	ok, params = pat.Match("/users/7")
	require.True(t, ok)
	require.Equal(t, map[string]string{"id": "7"}, params)

	ok, _ = pat.Match("/users/7/extra")
	require.False(t, ok)
}

func TestMatchOptionalBetweenLiterals(t *testing.T) {
	pat, err := veld.ParsePattern("/files/:dir?/latest")
	require.NoError(t, err)

	// The optional segment consumes the next path segment when one remains.
	ok, params := pat.Match("/files/docs/latest")
	require.True(t, ok)
	require.Equal(t, "docs", params["dir"])
}

func TestMatchWildcard(t *testing.T) {
	pat, err := veld.ParsePattern("/api/*")
	require.NoError(t, err)

	ok, params := pat.Match("/api/v1/things")
	require.True(t, ok)
	require.Equal(t, "/v1/things", params[veld.WildcardParam])

	ok, _ = pat.Match("/apiv1/things")
	require.False(t, ok, "prefix must end at a segment boundary")

	bare, err := veld.ParsePattern("*")
	require.NoError(t, err)

	ok, params = bare.Match("/anything/at/all")
	require.True(t, ok)
	require.Equal(t, "/anything/at/all", params[veld.WildcardParam])
}

func TestMatchRegex(t *testing.T) {
	pat, err := veld.ParsePattern(regexp.MustCompile(`^/files/(\d+)/(\w+)$`))
	require.NoError(t, err)

	ok, params := pat.Match("/files/12/readme")
	require.True(t, ok)
	require.Equal(t, map[string]string{"$1": "12", "$2": "readme"}, params)

	ok, _ = pat.Match("/files/abc/readme")
	require.False(t, ok)
}

func TestParsePatternRejects(t *testing.T) {
	_, err := veld.ParsePattern("")
	require.Error(t, err)

	_, err = veld.ParsePattern(42)
	require.Error(t, err)

	_, err = veld.ParsePattern("/api/*/more")
	require.Error(t, err)
}

func TestMatchConcurrent(t *testing.T) {
	pat, err := veld.ParsePattern("/users/:id")
	require.NoError(t, err)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 500; j++ {
				ok, params := pat.Match("/users/9")
				if !ok || params["id"] != "9" {
					t.Error("concurrent match produced a wrong result")
					return
				}
			}
		}()
	}

	for i := 0; i < 8; i++ {
		<-done
	}
}
