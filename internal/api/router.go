package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/quire/internal/auth"
	"github.com/starford/quire/internal/notes"
)

// Deps are the services the API routes call into.
type Deps struct {
	Notes  *notes.Repository
	Search *notes.Searcher
	Auth   *auth.Service
	// Authn verifies bearer tokens on every route except signup and login.
	Authn auth.Authenticator
	// Events, if non-nil, is mounted at GET /events inside the auth group.
	Events http.Handler
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(d Deps) chi.Router {
	h := NewHandler(d.Notes, d.Search)
	ah := NewAuthHandler(d.Auth)

	r := chi.NewRouter()

	r.Post("/auth/signup", ah.Signup)
	r.Post("/auth/login", ah.Login)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(d.Authn))

		// Notes CRUD.
		r.Get("/notes", h.ListNotes)
		r.Post("/notes", h.CreateNote)
		r.Get("/notes/search", h.Search)
		r.Get("/notes/{id}", h.GetNote)
		r.Put("/notes/{id}", h.UpdateNote)
		r.Delete("/notes/{id}", h.DeleteNote)

		// Sharing.
		r.Post("/notes/{id}/share", h.ShareNote)
		r.Delete("/notes/{id}/share/{userId}", h.UnshareNote)

		if d.Events != nil {
			r.Get("/events", d.Events.ServeHTTP)
		}
	})

	return r
}
