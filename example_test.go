package veld_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/veldhttp/veld"
)

func Example() {
	app := veld.New()

	app.Get("/items/:id", func(c *veld.Context, w *veld.ResponseWriter) error {
		id := c.Param("id")
		if id == "0" {
			return veld.NotFound("no such item")
		}

		return w.JSON(map[string]string{"id": id, "name": "Example Item"})
	}).As("get-item")

	// Generate URL by route name
	url, _ := app.Reverse("get-item", "123")
	fmt.Println("URL:", url)

	// Test the handler
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/items/42", nil)
	app.ServeHTTP(rec, req)

	fmt.Println("Status:", rec.Code)
	// Output:
	// URL: /items/123
	// Status: 200
}

func ExampleUnauthorized() {
	app := veld.New()

	app.Use(func(c *veld.Context, w *veld.ResponseWriter, next veld.Next) error {
		if c.Header.Get("Authorization") != "Bearer secret" {
			return veld.Unauthorized("missing or invalid token")
		}
		return next()
	})
	app.Get("/protected", func(c *veld.Context, w *veld.ResponseWriter) error {
		return w.Send("welcome")
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	app.ServeHTTP(rec, req)
	fmt.Println("No token:", rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer secret")
	app.ServeHTTP(rec, req)
	fmt.Println("Valid token:", rec.Code)
	// Output:
	// No token: 401
	// Valid token: 200
}

func ExampleRouter_Group() {
	app := veld.New()

	auth := func(c *veld.Context, w *veld.ResponseWriter, next veld.Next) error {
		return next()
	}

	app.Group("/api/v1", []veld.Middleware{auth}, func(r *veld.Router) {
		r.Get("/users/:id", func(c *veld.Context, w *veld.ResponseWriter) error {
			return w.Send("user " + c.Param("id"))
		})
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/7", nil)
	app.ServeHTTP(rec, req)

	fmt.Println(rec.Body.String())
	// Output:
	// user 7
}
