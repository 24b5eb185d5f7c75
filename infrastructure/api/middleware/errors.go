package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/helixml/pagevec/application/service"
	"github.com/helixml/pagevec/domain/page"
	"github.com/helixml/pagevec/infrastructure/api/jsonapi"
)

// Base API errors as sentinels.
var (
	// ErrAuthentication indicates authentication failure.
	ErrAuthentication = errors.New("authentication failed")

	// ErrServer indicates the server could not complete the request.
	ErrServer = errors.New("server error")
)

// APIError is an error with an explicit HTTP status.
type APIError struct {
	code    int
	message string
	cause   error
}

// NewAPIError creates a new APIError.
func NewAPIError(code int, message string, cause error) *APIError {
	return &APIError{code: code, message: message, cause: cause}
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("api error %d: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("api error %d: %s", e.code, e.message)
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error { return e.cause }

// Code returns the HTTP status code.
func (e *APIError) Code() int { return e.code }

// Message returns the error message.
func (e *APIError) Message() string { return e.message }

// AuthenticationError represents an authentication failure.
type AuthenticationError struct {
	message string
}

// NewAuthenticationError creates a new AuthenticationError.
func NewAuthenticationError(message string) *AuthenticationError {
	return &AuthenticationError{message: message}
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.message)
}

// Unwrap returns the base authentication error for errors.Is compatibility.
func (e *AuthenticationError) Unwrap() error { return ErrAuthentication }

// ServerError is a server-side failure with a status code.
type ServerError struct {
	statusCode int
	message    string
}

// NewServerError creates a new ServerError.
func NewServerError(statusCode int, message string) *ServerError {
	return &ServerError{statusCode: statusCode, message: message}
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.statusCode, e.message)
}

// Unwrap returns the base server error for errors.Is compatibility.
func (e *ServerError) Unwrap() error { return ErrServer }

// StatusCode returns the HTTP status code.
func (e *ServerError) StatusCode() int { return e.statusCode }

// Message returns the error message.
func (e *ServerError) Message() string { return e.message }

// StatusFor maps an error to its HTTP status and title.
//
//	validation        400
//	authentication    401
//	not found         404
//	provider timeout  504
//	provider          502
//	storage, closed   503
//	anything else     500
func StatusFor(err error) (int, string) {
	var apiErr *APIError
	var serverErr *ServerError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Code(), http.StatusText(apiErr.Code())
	case errors.As(err, &serverErr):
		return serverErr.StatusCode(), http.StatusText(serverErr.StatusCode())
	case errors.Is(err, ErrAuthentication):
		return http.StatusUnauthorized, "Authentication Failed"
	case errors.Is(err, page.ErrValidation):
		return http.StatusBadRequest, "Validation Error"
	case errors.Is(err, page.ErrNotFound):
		return http.StatusNotFound, "Not Found"
	case service.IsProviderTimeout(err):
		return http.StatusGatewayTimeout, "Embedding Provider Timeout"
	case errors.Is(err, page.ErrProvider):
		return http.StatusBadGateway, "Embedding Provider Error"
	case errors.Is(err, page.ErrStorage), errors.Is(err, service.ErrClientClosed):
		return http.StatusServiceUnavailable, "Storage Unavailable"
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}

// WriteError writes a JSON:API formatted error response and logs it.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	status, title := StatusFor(err)
	correlationID := GetCorrelationID(r.Context())

	if logger != nil {
		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(r.Context(), level, "request error",
			slog.Int("status", status),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}

	apiErr := jsonapi.NewError(status, title, err.Error())
	apiErr.ID = correlationID
	if kind := page.KindOf(err); kind != 0 {
		apiErr.Code = kind.String()
	}

	w.Header().Set("Content-Type", jsonapi.MediaType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(jsonapi.NewErrorResponse(apiErr))
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
