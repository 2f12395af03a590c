package veld_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/veldhttp/veld"
)

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		err    *veld.Error
		status int
		code   string
	}{
		{veld.BadRequest("m"), 400, veld.CodeBadRequest},
		{veld.Unauthorized("m"), 401, veld.CodeUnauthorized},
		{veld.Forbidden("m"), 403, veld.CodeForbidden},
		{veld.NotFound("m"), 404, veld.CodeNotFound},
		{veld.MethodNotAllowed("m"), 405, veld.CodeMethodNotAllowed},
		{veld.Conflict("m"), 409, veld.CodeConflict},
		{veld.EntityTooLarge("m"), 413, veld.CodeEntityTooLarge},
		{veld.Timeout("m"), 408, veld.CodeTimeout},
		{veld.TooManyRequests("m", time.Minute), 429, veld.CodeTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			require.Equal(t, tt.status, tt.err.Status)
			require.Equal(t, tt.code, tt.err.Code)
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := veld.NotFound("user 7 does not exist")
	require.Equal(t, "Not Found: user 7 does not exist", err.Error())

	require.Equal(t, "Unknown: odd", veld.NewTypedError(900, "odd", "odd").Error())
}

func TestTooManyRequestsCarriesRetryHint(t *testing.T) {
	err := veld.TooManyRequests("slow down", 30*time.Second)
	require.Equal(t, map[string]any{"retryAfter": "30s"}, err.Details)
}

func TestNormalize(t *testing.T) {
	typed := veld.Conflict("dup")
	require.Same(t, typed, veld.Normalize(typed), "typed errors pass through unchanged")

	wrapped := errors.Wrap(typed, "outer")
	require.Same(t, typed, veld.Normalize(wrapped), "wrapping keeps the typed error")

	generic := veld.Normalize(errors.New("kaput"))
	require.Equal(t, http.StatusInternalServerError, generic.Status)
	require.Equal(t, "kaput", generic.Message)

	fromPanic := veld.Normalize(42)
	require.Equal(t, http.StatusInternalServerError, fromPanic.Status)
	require.Contains(t, fromPanic.Message, "unknown error")
}

func TestStatusOf(t *testing.T) {
	require.Equal(t, 404, veld.StatusOf(veld.NotFound("x")))
	require.Equal(t, 404, veld.StatusOf(errors.Wrap(veld.NotFound("x"), "lookup")))
	require.Equal(t, 500, veld.StatusOf(errors.New("x")))
}
