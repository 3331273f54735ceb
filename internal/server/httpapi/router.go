package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/epicrunze/journal/internal/logging"
	"github.com/epicrunze/journal/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// API bundles the services the HTTP handlers dispatch to.
type API struct {
	DB          *sql.DB
	Users       *services.UserService
	Entries     *services.EntryService
	Goals       *services.GoalService
	Chat        *services.ChatService
	Attachments *services.AttachmentService
	Sync        *services.SyncService
	Logger      logging.Logger
}

// NewRouter builds the chi router with all journal routes mounted.
func NewRouter(api *API) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", api.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", api.handleRegister)
			r.Post("/login", api.handleLogin)
			r.Post("/refresh", api.handleRefresh)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(api.Users))

			r.Route("/entries", func(r chi.Router) {
				r.Get("/", api.handleListEntries)
				r.Post("/", api.handleCreateEntry)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", api.handleGetEntry)
					r.Put("/", api.handleUpdateEntry)
					r.Delete("/", api.handleArchiveEntry)
					r.Get("/versions", api.handleEntryVersions)
					r.Post("/chat", api.handleChat)
					r.Post("/refine", api.handleRequestRefine)
					r.Get("/attachments", api.handleListAttachments)
					r.Post("/attachments", api.handleCreateAttachment)
				})
			})

			r.Route("/attachments/{id}", func(r chi.Router) {
				r.Post("/confirm", api.handleConfirmAttachment)
				r.Get("/download", api.handleDownloadAttachment)
			})

			r.Route("/goals", func(r chi.Router) {
				r.Get("/", api.handleListGoals)
				r.Post("/", api.handleCreateGoal)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", api.handleGetGoal)
					r.Put("/", api.handleUpdateGoal)
					r.Delete("/", api.handleDeleteGoal)
				})
			})

			r.Route("/sync", func(r chi.Router) {
				r.Post("/", api.handleSync)
				r.Post("/resolve", api.handleResolve)
			})

			r.Post("/refine/process", api.handleProcessRefines)
		})
	})

	return r
}

func (api *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if api.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := api.DB.PingContext(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "db unreachable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
