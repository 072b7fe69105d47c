package middleware

import (
	"net/http"

	"github.com/zlatkom/package-self-service/pkg/correlation"
)

// Correlation reads the inbound X-Correlation-ID header, generating one when
// absent, and threads it through the request context. A fresh Request-Id is
// minted for this hop. Both are echoed on the response. Nothing is stored
// outside the request, so ids cannot leak between requests sharing a worker.
func Correlation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID := r.Header.Get(correlation.HeaderCorrelationID)
		if correlationID == "" {
			correlationID = correlation.NewID()
		}
		requestID := correlation.NewID()

		w.Header().Set(correlation.HeaderCorrelationID, correlationID)
		w.Header().Set(correlation.HeaderRequestID, requestID)

		ctx := correlation.WithID(r.Context(), correlationID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
