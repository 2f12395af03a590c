package veld_test

import (
	"net/http"
	"net/http/httptest"
)

// recreq pairs a recorder with a bodyless request.
func recreq(method, target string) (*httptest.ResponseRecorder, *http.Request) {
	return httptest.NewRecorder(), httptest.NewRequest(method, target, nil)
}
