package middleware

import (
	"net/http"

	internal "github.com/frahmantamala/reservation-management/internal"
)

// Actor lifts the authenticated user id from the X-User-ID header into the
// request context. Authentication itself happens upstream at the gateway;
// this service trusts the resolved id it forwards.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actorID := r.Header.Get("X-User-ID"); actorID != "" {
			r = r.WithContext(internal.ContextWithActorID(r.Context(), actorID))
		}
		next.ServeHTTP(w, r)
	})
}
