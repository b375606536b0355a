package apiframework

import (
	"context"
	"net/http"

	"github.com/contenox/orchestrator/tracker"
	"github.com/google/uuid"
)

// RequestIDMiddleware stamps every incoming request with a fresh id, visible
// to handlers and the ActivityTracker via tracker.ContextKeyRequestID.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()
		ctx := context.WithValue(r.Context(), tracker.ContextKeyRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
