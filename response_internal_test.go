package veld

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResponseBuffering(t *testing.T) {
	rec := httptest.NewRecorder()
	w := NewResponseWriter(rec, -1)
	defer w.Free()

	w.Header().Set("X-Thing", "yes")
	w.WriteHeader(http.StatusCreated)
	_, err := w.Write([]byte("payload"))
	require.NoError(t, err)

	require.Empty(t, rec.Body.String(), "nothing reaches the client before the flush")
	require.True(t, w.Sent())

	require.NoError(t, w.FlushBuffer())
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "payload", rec.Body.String())
	require.Equal(t, "yes", rec.Header().Get("X-Thing"))
}

func TestResponseReset(t *testing.T) {
	rec := httptest.NewRecorder()
	w := NewResponseWriter(rec, -1)
	defer w.Free()

	w.Header().Set("X-Stale", "1")
	w.Status(http.StatusTeapot)
	_, _ = w.Write([]byte("stale"))

	w.Reset()
	require.False(t, w.Sent())

	require.NoError(t, w.Send("fresh"))
	require.NoError(t, w.FlushBuffer())

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "fresh", rec.Body.String())
	require.Empty(t, rec.Header().Get("X-Stale"))
}

func TestResponseBufferLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	w := NewResponseWriter(rec, 4)
	defer w.Free()

	_, err := w.Write([]byte("abcd"))
	require.NoError(t, err)

	_, err = w.Write([]byte("e"))
	require.ErrorIs(t, err, ErrBufferFull)
}

func TestResponseFlushTwice(t *testing.T) {
	rec := httptest.NewRecorder()
	w := NewResponseWriter(rec, -1)
	defer w.Free()

	require.NoError(t, w.Send("once"))
	require.NoError(t, w.FlushBuffer())
	require.NoError(t, w.FlushBuffer())
	require.Equal(t, "once", rec.Body.String())
}

func TestResponseStatusFirstWriteWins(t *testing.T) {
	rec := httptest.NewRecorder()
	w := NewResponseWriter(rec, -1)
	defer w.Free()

	w.WriteHeader(http.StatusAccepted)
	w.WriteHeader(http.StatusTeapot)
	require.Equal(t, http.StatusAccepted, w.StatusCode())
}

func TestResponseRedirect(t *testing.T) {
	rec := httptest.NewRecorder()
	w := NewResponseWriter(rec, -1)
	defer w.Free()

	require.NoError(t, w.Redirect(http.StatusFound, "/elsewhere"))
	require.True(t, w.Sent())
	require.NoError(t, w.FlushBuffer())
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/elsewhere", rec.Header().Get("Location"))
}
