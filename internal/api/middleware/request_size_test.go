package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestSize(t *testing.T) {
	tests := []struct {
		name           string
		maxBytes       int64
		bodySize       int
		expectStatus   int
		expectBodyRead bool
	}{
		{name: "small request accepted", maxBytes: 1024, bodySize: 512, expectStatus: http.StatusOK, expectBodyRead: true},
		{name: "exact limit accepted", maxBytes: 1024, bodySize: 1024, expectStatus: http.StatusOK, expectBodyRead: true},
		{name: "oversized request rejected", maxBytes: 1024, bodySize: 2048, expectStatus: http.StatusRequestEntityTooLarge},
		{name: "default 1MB limit", maxBytes: DefaultMaxBodySize, bodySize: int(DefaultMaxBodySize) + 1, expectStatus: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bodyRead := false
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				body, err := io.ReadAll(r.Body)
				if err != nil {
					w.WriteHeader(http.StatusRequestEntityTooLarge)
					return
				}
				bodyRead = true
				assert.Len(t, body, tt.bodySize)
				w.WriteHeader(http.StatusOK)
			})

			body := bytes.Repeat([]byte("x"), tt.bodySize)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/events", bytes.NewReader(body))
			rec := httptest.NewRecorder()

			RequestSize(tt.maxBytes)(handler).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectStatus, rec.Code)
			assert.Equal(t, tt.expectBodyRead, bodyRead)
		})
	}
}

func TestRequestSizeDeclaredLengthRejectedAsProblem(t *testing.T) {
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", bytes.NewReader(make([]byte, 64)))
	rec := httptest.NewRecorder()
	RequestSize(16)(handler).ServeHTTP(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.False(t, called)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestRequestSizeUnknownLengthSurfacesMaxBytesError(t *testing.T) {
	var readErr error
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", bytes.NewReader(make([]byte, 64)))
	req.ContentLength = -1
	RequestSize(16)(handler).ServeHTTP(httptest.NewRecorder(), req)

	var maxErr *http.MaxBytesError
	require.True(t, errors.As(readErr, &maxErr))
	require.EqualValues(t, 16, maxErr.Limit)
}

func TestRequestSizeWithNoBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
	rec := httptest.NewRecorder()

	RequestSize(1024)(okHandler()).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
