package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/helixml/pagevec/internal/log"
)

// CorrelationIDHeader is read from requests and echoed on responses.
const CorrelationIDHeader = "X-Correlation-ID"

// CorrelationID tags every request with an ID taken from the
// X-Correlation-ID header or generated as a UUID. The ID is stored in the
// request context, where the log handler picks it up.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(CorrelationIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(CorrelationIDHeader, id)
		next.ServeHTTP(w, r.WithContext(log.WithCorrelationID(r.Context(), id)))
	})
}

// GetCorrelationID returns the request's correlation ID, or empty.
func GetCorrelationID(ctx context.Context) string {
	return log.CorrelationID(ctx)
}
