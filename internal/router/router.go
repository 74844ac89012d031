// Package router sets up the HTTP routes and middleware chain for the shop
// admin API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"shopadmin/internal/handlers"
	"shopadmin/internal/middleware"
)

// New creates the Chi router with middleware and the category routes.
func New(categories *handlers.Categories) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	r.NotFound(jsonStatus(http.StatusNotFound))
	r.MethodNotAllowed(jsonStatus(http.StatusMethodNotAllowed))

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		// Stored tree, read-only.
		r.Get("/categories", categories.Tree)

		// Editing drafts. Every edit returns the live tree; only /save
		// touches the database.
		r.Route("/category-drafts", func(r chi.Router) {
			r.Post("/", categories.DraftCreate)
			r.Route("/{draftID}", func(r chi.Router) {
				r.Get("/", categories.DraftGet)
				r.Delete("/", categories.DraftDiscard)
				r.Post("/save", categories.Save)
				r.Post("/roots", categories.AddRoot)

				r.Route("/nodes/{ref}", func(r chi.Router) {
					r.Patch("/", categories.UpdateNode)
					r.Delete("/", categories.RemoveNode)
					r.Post("/children", categories.AddChild)
					r.Post("/move", categories.MoveNode)
				})
			})
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// jsonStatus answers unmatched routes in the API's error format.
func jsonStatus(status int) http.HandlerFunc {
	body := `{"error":"` + http.StatusText(status) + `"}`
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}
}
