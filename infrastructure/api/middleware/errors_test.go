package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/helixml/pagevec/application/service"
	"github.com/helixml/pagevec/domain/page"
	"github.com/helixml/pagevec/infrastructure/api/jsonapi"
	"github.com/helixml/pagevec/internal/log"
)

func TestAPIError(t *testing.T) {
	err := NewAPIError(404, "resource not found", nil)

	if err.Code() != 404 {
		t.Errorf("Code() = %v, want 404", err.Code())
	}
	if err.Message() != "resource not found" {
		t.Errorf("Message() = %v, want 'resource not found'", err.Message())
	}

	expected := "api error 404: resource not found"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestAPIError_WithCause(t *testing.T) {
	cause := errors.New("underlying error")
	err := NewAPIError(500, "internal error", cause)

	expected := "api error 500: internal error: underlying error"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}

	if err.Unwrap() != cause {
		t.Error("Unwrap() should return the cause")
	}
}

func TestAuthenticationError(t *testing.T) {
	err := NewAuthenticationError("invalid token")

	expected := "authentication failed: invalid token"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}

	// Should be matchable with errors.Is
	if !errors.Is(err, ErrAuthentication) {
		t.Error("AuthenticationError should match ErrAuthentication with errors.Is")
	}
}

func TestServerError(t *testing.T) {
	err := NewServerError(503, "service unavailable")

	if err.StatusCode() != 503 {
		t.Errorf("StatusCode() = %v, want 503", err.StatusCode())
	}
	if err.Message() != "service unavailable" {
		t.Errorf("Message() = %v, want 'service unavailable'", err.Message())
	}

	expected := "server error 503: service unavailable"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}

	// Should be matchable with errors.Is
	if !errors.Is(err, ErrServer) {
		t.Error("ServerError should match ErrServer with errors.Is")
	}
}

func TestErrors_CanBeWrapped(t *testing.T) {
	authErr := NewAuthenticationError("token expired")
	wrapped := fmt.Errorf("request failed: %w", authErr)

	if !errors.Is(wrapped, ErrAuthentication) {
		t.Error("wrapped AuthenticationError should still match ErrAuthentication")
	}

	// Should be able to extract the typed error
	var target *AuthenticationError
	if !errors.As(wrapped, &target) {
		t.Error("should be able to extract AuthenticationError with errors.As")
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", page.NewValidationError("store", "", page.ErrEmptyURL), http.StatusBadRequest},
		{"not found", page.NewNotFoundError("get", "7"), http.StatusNotFound},
		{"provider", page.NewProviderError("store", "u", errors.New("boom")), http.StatusBadGateway},
		{"provider timeout", page.NewProviderError("search", "q", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"storage", page.NewStorageError("upsert", "u", errors.New("locked")), http.StatusServiceUnavailable},
		{"closed client", service.ErrClientClosed, http.StatusServiceUnavailable},
		{"authentication", NewAuthenticationError("missing key"), http.StatusUnauthorized},
		{"api error", NewAPIError(http.StatusTeapot, "short and stout", nil), http.StatusTeapot},
		{"unknown", errors.New("mystery"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := StatusFor(tt.err)
			if got != tt.status {
				t.Errorf("StatusFor() = %d, want %d", got, tt.status)
			}
		})
	}
}

func TestWriteError_JSONAPIBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/pages/9", nil)
	req = req.WithContext(log.WithCorrelationID(req.Context(), "corr-1"))
	w := httptest.NewRecorder()

	WriteError(w, req, page.NewNotFoundError("get", "9"), log.Discard())

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if ct := w.Header().Get("Content-Type"); ct != jsonapi.MediaType {
		t.Errorf("Content-Type = %q, want %q", ct, jsonapi.MediaType)
	}

	var doc jsonapi.Document
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(doc.Errors) != 1 {
		t.Fatalf("errors = %d, want 1", len(doc.Errors))
	}
	got := doc.Errors[0]
	if got.Status != "404" || got.ID != "corr-1" || got.Code != "not_found" {
		t.Errorf("unexpected error object: %+v", got)
	}
	if !strings.Contains(got.Detail, "9") {
		t.Errorf("detail %q should name the page", got.Detail)
	}
}
