package middleware

import (
	"net/http"

	wrap "github.com/hubride/ride-pool-system/pkg/logger/wrapper"
	"github.com/hubride/ride-pool-system/pkg/uuid"
)

const requestIDHeader = "X-Request-ID"

// RequestID takes the caller-provided request ID or mints one, puts it
// on the log context and echoes it back in the response header.
func (h *Middleware) RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			if id, err := uuid.New(); err == nil {
				requestID = id.String()
			}
		}

		w.Header().Set(requestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(wrap.WithRequestID(r.Context(), requestID)))
	})
}
