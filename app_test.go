package veld_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/veldhttp/veld"
)

func TestAppServesRoute(t *testing.T) {
	app, _ := newTestApp(t)

	app.Get("/users/:id", func(c *veld.Context, w *veld.ResponseWriter) error {
		return w.JSON(map[string]string{"id": c.Param("id")})
	})

	rec := do(app, http.MethodGet, "/users/42")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"id":"42"}`, rec.Body.String())
}

func TestAppNotFound(t *testing.T) {
	app, _ := newTestApp(t)
	app.Get("/known", noopHandler)

	rec := do(app, http.MethodGet, "/unknown")
	require.Equal(t, http.StatusNotFound, rec.Code)

	body := gjson.Parse(rec.Body.String())
	require.Equal(t, int64(404), body.Get("status").Int())
	require.Equal(t, "not_found", body.Get("code").Str)
	require.NotEmpty(t, body.Get("timestamp").Str)
}

func TestAppErrorShape(t *testing.T) {
	app, _ := newTestApp(t)

	app.Get("/fail", func(c *veld.Context, w *veld.ResponseWriter) error {
		return veld.Conflict("already exists").WithDetails(map[string]string{"field": "name"})
	})

	rec := do(app, http.MethodGet, "/fail")
	require.Equal(t, http.StatusConflict, rec.Code)

	body := gjson.Parse(rec.Body.String())
	require.Equal(t, "already exists", body.Get("error").Str)
	require.Equal(t, int64(409), body.Get("status").Int())
	require.Equal(t, "conflict", body.Get("code").Str)
	require.NotEmpty(t, body.Get("duration").Str)
}

func TestAppProductionHidesInternals(t *testing.T) {
	cfg := veld.DefaultConfig()
	cfg.Production = true

	app := veld.New(veld.WithConfig(cfg), veld.WithLogger(veld.NewTestLogger(t)))
	app.Get("/boom", func(c *veld.Context, w *veld.ResponseWriter) error {
		return errors.New("db password is hunter2")
	})

	rec := do(app, http.MethodGet, "/boom")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	body := gjson.Parse(rec.Body.String())
	require.Equal(t, "Internal Server Error", body.Get("error").Str)
	require.False(t, body.Get("details").Exists())
	require.NotContains(t, rec.Body.String(), "hunter2")
}

func TestAppProductionKeepsClientErrors(t *testing.T) {
	cfg := veld.DefaultConfig()
	cfg.Production = true

	app := veld.New(veld.WithConfig(cfg), veld.WithLogger(veld.NewTestLogger(t)))
	app.Get("/bad", func(c *veld.Context, w *veld.ResponseWriter) error {
		return veld.BadRequest("cursor must be numeric")
	})

	rec := do(app, http.MethodGet, "/bad")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "cursor must be numeric")
}

func TestAppDevelopmentIncludesDiagnostics(t *testing.T) {
	app, _ := newTestApp(t)
	app.Get("/boom", func(c *veld.Context, w *veld.ResponseWriter) error {
		return errors.New("kaput")
	})

	rec := do(app, http.MethodGet, "/boom")
	body := gjson.Parse(rec.Body.String())
	require.Equal(t, "/boom", body.Get("details.request.path").Str)
	require.NotEmpty(t, body.Get("details.stack").Str)
}

func TestAppReportersIsolated(t *testing.T) {
	var reported *veld.Error
	logs := veld.NewTestLogger(t)

	app := veld.New(
		veld.WithLogger(logs),
		veld.WithReporter(func(err *veld.Error, c *veld.Context) { panic("reporter bug") }),
		veld.WithReporter(func(err *veld.Error, c *veld.Context) { reported = err }),
	)
	app.Get("/fail", func(c *veld.Context, w *veld.ResponseWriter) error {
		return veld.Forbidden("nope")
	})

	rec := do(app, http.MethodGet, "/fail")
	require.Equal(t, http.StatusForbidden, rec.Code, "a panicking reporter must not mask the error")
	require.NotNil(t, reported)
	require.Equal(t, "nope", reported.Message)
	require.Equal(t, int64(1), logs.NumLogReporterPanic)
}

func TestAppErrorHandlerWritesResponse(t *testing.T) {
	app := veld.New(
		veld.WithLogger(veld.NewTestLogger(t)),
		veld.WithErrorHandler(func(err *veld.Error, c *veld.Context, w *veld.ResponseWriter) error {
			return w.Status(err.Status).Send("custom: " + err.Message)
		}),
	)
	app.Get("/fail", func(c *veld.Context, w *veld.ResponseWriter) error {
		return veld.NotFound("gone")
	})

	rec := do(app, http.MethodGet, "/fail")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "custom: gone", rec.Body.String(), "the default body yields to the handler's")
}

func TestAppReadsJSONBody(t *testing.T) {
	app, _ := newTestApp(t)

	app.Post("/items", func(c *veld.Context, w *veld.ResponseWriter) error {
		require.Equal(t, veld.BodyJSON, c.Body.Kind)
		return w.Status(http.StatusCreated).Send(c.BodyJSON("name").Str)
	})

	req := httptest.NewRequest(http.MethodPost, "/items", strings.NewReader(`{"name":"ada"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "ada", rec.Body.String())
}

func TestAppRejectsOversizedBody(t *testing.T) {
	cfg := veld.DefaultConfig()
	cfg.BodyLimit = "8b"

	app := veld.New(veld.WithConfig(cfg), veld.WithLogger(veld.NewTestLogger(t)))
	app.Post("/items", noopHandler)

	req := httptest.NewRequest(http.MethodPost, "/items", strings.NewReader("way more than eight bytes"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestAppMultipartFilesOnContext(t *testing.T) {
	app, _ := newTestApp(t)

	app.Post("/upload", func(c *veld.Context, w *veld.ResponseWriter) error {
		require.Len(t, c.Files, 1)
		return w.Send(c.Files[0].Filename)
	})

	payload := "--B\r\nContent-Disposition: form-data; name=\"f\"; filename=\"a.txt\"\r\n\r\nhi\r\n--B--\r\n"
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(payload))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=B")
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	require.Equal(t, "a.txt", rec.Body.String())
}

func TestAppUseAfterServePanics(t *testing.T) {
	app, _ := newTestApp(t)
	app.Get("/x", noopHandler)

	_ = do(app, http.MethodGet, "/x")

	require.Panics(t, func() {
		app.Use(func(c *veld.Context, w *veld.ResponseWriter, next veld.Next) error { return next() })
	})
}

func TestAppRequestID(t *testing.T) {
	app, _ := newTestApp(t)
	app.Use(veld.RequestID())
	app.Get("/x", func(c *veld.Context, w *veld.ResponseWriter) error {
		return w.Send(c.RequestID)
	})

	rec := do(app, http.MethodGet, "/x")
	require.NotEmpty(t, rec.Body.String())
	require.Equal(t, rec.Body.String(), rec.Header().Get(veld.HeaderRequestID))

	rec, req := recreq(http.MethodGet, "/x")
	req.Header.Set(veld.HeaderRequestID, "given-id")
	app.ServeHTTP(rec, req)
	require.Equal(t, "given-id", rec.Body.String())
}

func TestAppErrorCarriesRequestID(t *testing.T) {
	app, _ := newTestApp(t)
	app.Use(veld.RequestIDWithGenerator(func() string { return "fixed-id" }))
	app.Get("/fail", func(c *veld.Context, w *veld.ResponseWriter) error {
		return veld.BadRequest("bad")
	})

	rec := do(app, http.MethodGet, "/fail")
	require.Equal(t, "fixed-id", gjson.Get(rec.Body.String(), "requestId").Str)
	require.Equal(t, "fixed-id", rec.Header().Get(veld.HeaderRequestID),
		"the correlation header must survive the error-path reset")
}

func TestAppConcurrentRequests(t *testing.T) {
	app, _ := newTestApp(t)
	app.Get("/x", func(c *veld.Context, w *veld.ResponseWriter) error {
		return w.Send("ok")
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				rec := do(app, http.MethodGet, "/x")
				if rec.Code != http.StatusOK {
					t.Errorf("got status %d", rec.Code)
					return
				}
			}
		}()
	}
	wg.Wait()

	require.Panics(t, func() {
		app.Use(func(c *veld.Context, w *veld.ResponseWriter, next veld.Next) error { return next() })
	})
}

func TestAppBodyOptionsLimitOverridesConfig(t *testing.T) {
	opts := veld.DefaultBodyOptions()
	opts.Limit = "8b"

	app := veld.New(veld.WithBodyOptions(opts), veld.WithLogger(veld.NewTestLogger(t)))
	app.Post("/items", noopHandler)

	req := httptest.NewRequest(http.MethodPost, "/items", strings.NewReader("way more than eight bytes"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code,
		"an explicit body-option limit wins over the config default")
}

func TestAppRateLimit(t *testing.T) {
	app, _ := newTestApp(t)
	app.Use(veld.NewRateLimiter(1, 1).Middleware())
	app.Get("/x", noopHandler)

	first := do(app, http.MethodGet, "/x")
	require.Equal(t, http.StatusOK, first.Code)

	second := do(app, http.MethodGet, "/x")
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	require.Contains(t, second.Body.String(), "retryAfter")
}
