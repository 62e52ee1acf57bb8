package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/wrenhall/warbler-api/internal/api/middleware"
)

// NewRouter builds the HTTP surface exposed to collaborators.
func NewRouter(handler *JobHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.TraceMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/transcriptions", func(r chi.Router) {
		r.Post("/", handler.CreateJob)
		r.Get("/{id}", handler.GetJobStatus)
	})

	return r
}
