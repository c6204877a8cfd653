package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-dataset-registry/internal/config"
	"go-dataset-registry/internal/handler"
	"go-dataset-registry/internal/middleware"
)

func New(
	cfg *config.Config,
	authMiddleware *middleware.AuthMiddleware,
	authHandler *handler.AuthHandler,
	datasetHandler *handler.DatasetHandler,
	auditHandler *handler.AuditHandler,
	docsHandler *handler.DocsHandler,
) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Get("/docs", docsHandler.Index)

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/login", authHandler.Login)
			auth.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles("admin")).Post("/register", authHandler.Register)
			auth.Post("/refresh", authHandler.Refresh)
			auth.With(authMiddleware.RequireAuth).Post("/logout", authHandler.Logout)
			auth.With(authMiddleware.RequireAuth).Get("/me", authHandler.Me)
		})

		api.Route("/datasets", func(ds chi.Router) {
			ds.Use(authMiddleware.RequireAuth)

			ds.Get("/", datasetHandler.List)
			ds.Get("/summary", datasetHandler.Summary)
			ds.Get("/templates", datasetHandler.TemplatesArchive)

			ds.Route("/{type}", func(one chi.Router) {
				one.Get("/template", datasetHandler.Template)
				one.Get("/data", datasetHandler.Data)
				one.Get("/backups", datasetHandler.ListBackups)

				one.With(authMiddleware.RequireRoles("editor", "admin")).Post("/validate", datasetHandler.Validate)
				one.With(authMiddleware.RequireRoles("editor", "admin")).Post("/merge", datasetHandler.Merge)
				one.With(authMiddleware.RequireRoles("editor", "admin")).Put("/replace", datasetHandler.Replace)

				// Backups hold pre-delete data; reading one is as sensitive
				// as the delete that produced it.
				one.With(authMiddleware.RequireRoles("admin")).Get("/backups/{name}", datasetHandler.DownloadBackup)
				one.With(authMiddleware.RequireRoles("admin")).Delete("/", datasetHandler.Delete)
			})
		})

		api.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles("admin")).Get("/audit", auditHandler.List)
		api.With(authMiddleware.RequireAuth).Get("/audit/session", auditHandler.SessionOperations)
	})

	return r
}
