package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/prophist/internal/historyservice"
)

// NewRouter creates a chi router with all API routes mounted.
// sseHandler, if non-nil, is mounted at GET /events behind the same auth.
func NewRouter(svc *historyservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/history", h.PropertyHistory)
	r.Get("/revisions", h.Revisions)
	r.Get("/objects", h.Objects)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}
	return r
}
