package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSSERequest(t *testing.T) {
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
	handler := ValidateSSERequest(ok)

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"no query", "", http.StatusOK},
		{"empty datastar", "datastar=", http.StatusOK},
		{"known signals", "datastar=" + url.QueryEscape(`{"phase":"lobby","timeLeft":3}`), http.StatusOK},
		{"unknown param", "debug=1", http.StatusBadRequest},
		{"unknown signal", "datastar=" + url.QueryEscape(`{"admin":true}`), http.StatusBadRequest},
		{"invalid json", "datastar=" + url.QueryEscape(`{nope`), http.StatusBadRequest},
		{"repeated datastar", "datastar=&datastar=", http.StatusBadRequest},
		{"datastar too large", "datastar=" + strings.Repeat("a", maxDatastarLength+1), http.StatusBadRequest},
		{"query too large", "datastar=" + strings.Repeat("a", maxQueryLength+1), http.StatusRequestURITooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/rooms/AB12/host/stream?"+tt.query, nil)
			rec := httptest.NewRecorder()
			handler(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
