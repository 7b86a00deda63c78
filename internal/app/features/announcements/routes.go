// internal/app/features/announcements/routes.go
package announcements

import (
	"github.com/dalemusser/noticeboard/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the announcements subrouter, mounted at /announcements.
// Listing active announcements is public; everything else needs a principal.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListActive)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/manage", h.ListAll)
		pr.Post("/", h.Create)
		pr.Put("/{id}", h.Update)
		pr.Delete("/{id}", h.Delete)
	})

	return r
}
