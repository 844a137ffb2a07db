package httpserver

import (
	"net/http"
	"time"

	"diamond-app-go/internal/config"
	"diamond-app-go/internal/transport/httpserver/handler"
	authmw "diamond-app-go/internal/transport/httpserver/middleware"
	"diamond-app-go/pkg/logger"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(cfg config.Config, handlers *handler.Handlers, profiles authmw.ProfileSaver, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(authmw.NewCORS([]string{"http://localhost:5173"}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Common.Health)

		auth := authmw.NewSupabaseAuth(cfg.Supabase, profiles, log)
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Get("/auth/me", handlers.Common.AuthMe)

			r.Get("/projects", handlers.ListProjects)
			r.Post("/projects", handlers.CreateProject)
			r.Get("/projects/export", handlers.ExportProjects)
			r.Post("/projects/import", handlers.ImportProjects)
			r.Get("/projects/random", handlers.RandomProject)
			r.Get("/projects/{id}", handlers.GetProject)
			r.Put("/projects/{id}", handlers.UpdateProject)
			r.Delete("/projects/{id}", handlers.DeleteProject)
			r.Patch("/projects/{id}/status", handlers.UpdateProjectStatus)
			r.Post("/projects/{id}/archive", handlers.ArchiveProject)

			r.Get("/projects/{id}/notes", handlers.ListNotes)
			r.Post("/projects/{id}/notes", handlers.CreateNote)
			r.Patch("/notes/{note_id}", handlers.UpdateNote)
			r.Delete("/notes/{note_id}", handlers.DeleteNote)

			r.Get("/tags", handlers.ListTags)
			r.Post("/tags", handlers.CreateTag)
			r.Patch("/tags/{tag_id}", handlers.UpdateTag)
			r.Delete("/tags/{tag_id}", handlers.DeleteTag)
			r.Put("/projects/{id}/tags/{tag_id}", handlers.AttachTag)
			r.Delete("/projects/{id}/tags/{tag_id}", handlers.DetachTag)
			r.Post("/projects/{id}/tags/{tag_id}/toggle", handlers.ToggleTag)

			r.Get("/stats/yearly", handlers.YearlyStats)
			r.Get("/stats/cache-status", handlers.StatsCacheStatus)

			r.Get("/dashboard/context", handlers.GetDashboardContext)
			r.Put("/dashboard/context", handlers.SaveDashboardContext)
		})
	})

	return r
}
