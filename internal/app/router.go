package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/quillpress/quillpress/internal/auth"
	"github.com/quillpress/quillpress/internal/categories"
	"github.com/quillpress/quillpress/internal/comments"
	"github.com/quillpress/quillpress/internal/dashboard"
	"github.com/quillpress/quillpress/internal/observability"
	"github.com/quillpress/quillpress/internal/posts"
	"github.com/quillpress/quillpress/internal/rbac"
	"github.com/quillpress/quillpress/internal/roles"
	"github.com/quillpress/quillpress/internal/users"
	"github.com/quillpress/quillpress/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	AuthHandler        *auth.Handler
	UsersHandler       *users.Handler
	RolesHandler       *roles.Handler
	PermissionsHandler *rbac.PermissionsHandler
	PostsHandler       *posts.Handler
	CommentsHandler    *comments.Handler
	CategoriesHandler  *categories.Handler
	DashboardHandler   *dashboard.Handler
	JobHandler         *jobs.Handler
	RBACMiddleware     rbac.Middleware
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with QuillPress defaults. The public
// read surface and the auth endpoints skip the bearer gate; everything else
// under /api/v1 authenticates first and authorizes per route.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountRoutes)

		// Public read surface.
		r.Route("/posts", func(r chi.Router) {
			params.PostsHandler.MountPublicRoutes(r)
			params.CommentsHandler.MountPostRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(params.RBACMiddleware.Authenticate)
				params.PostsHandler.MountRoutes(r)
			})
		})
		r.Route("/categories", func(r chi.Router) {
			params.CategoriesHandler.MountPublicRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(params.RBACMiddleware.Authenticate)
				params.CategoriesHandler.MountRoutes(r)
			})
		})

		// Authenticated surface.
		r.Group(func(r chi.Router) {
			r.Use(params.RBACMiddleware.Authenticate)
			r.Route("/users", params.UsersHandler.MountRoutes)
			r.Route("/roles", params.RolesHandler.MountRoutes)
			r.Route("/permissions", params.PermissionsHandler.MountRoutes)
			r.Route("/comments", params.CommentsHandler.MountRoutes)
			r.Route("/dashboard", params.DashboardHandler.MountRoutes)
			if params.JobHandler != nil {
				r.Route("/jobs", func(r chi.Router) {
					r.Use(params.RBACMiddleware.RequireAdmin)
					params.JobHandler.MountRoutes(r)
				})
			}
		})
	})

	return r
}
