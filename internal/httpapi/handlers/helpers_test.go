package handlers

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"terrastore/internal/service"

	"github.com/labstack/echo/v4"
)

func TestMapServiceError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unsupported type", service.ErrUnsupportedType, http.StatusBadRequest},
		{"invalid input", service.ErrInvalidInput, http.StatusBadRequest},
		{"unauthorized", service.ErrUnauthorized, http.StatusUnauthorized},
		{"not found", service.ErrNotFound, http.StatusNotFound},
		{"conflict", service.ErrConflict, http.StatusConflict},
		{"corrupt content", service.ErrCorruptContent, http.StatusInternalServerError},
		{"unknown", errors.New("pg: connection refused"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := mapServiceError(tt.err)
			httpErr, ok := got.(*echo.HTTPError)
			if !ok {
				t.Fatalf("expected *echo.HTTPError, got %T", got)
			}
			if httpErr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", httpErr.Code, tt.wantStatus)
			}
		})
	}
}

func TestMapServiceError_HidesInternalDetail(t *testing.T) {
	t.Parallel()
	got := mapServiceError(errors.New("pq: password authentication failed for user postgres"))
	httpErr, ok := got.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T", got)
	}
	msg, ok := httpErr.Message.(string)
	if !ok {
		t.Fatalf("message type = %T", httpErr.Message)
	}
	if msg != "an error occurred while processing the request" {
		t.Fatalf("message = %q, internal detail should not leak", msg)
	}
}

func TestToMillis(t *testing.T) {
	t.Parallel()
	ts := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	if got := toMillis(ts); got != ts.UnixMilli() {
		t.Fatalf("toMillis() = %d, want %d", got, ts.UnixMilli())
	}
}
