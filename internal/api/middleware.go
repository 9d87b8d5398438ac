// Package api implements the Quire REST API using chi.
package api

import (
	"net/http"
	"strings"

	"github.com/starford/quire/internal/auth"
)

// AuthMiddleware requires an "Authorization: Bearer <token>" header that
// authn accepts, and stores the resulting user id in the request context.
func AuthMiddleware(authn auth.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			userID, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), userID)))
		})
	}
}

// actor returns the authenticated user id. Routes behind AuthMiddleware
// always have one.
func actor(r *http.Request) string {
	id, _ := auth.ActorFrom(r.Context())
	return id
}
