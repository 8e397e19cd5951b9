package serverhttp

import (
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"nameres-service/internal/config"
	"nameres-service/internal/middleware"
	resHnd "nameres-service/internal/resolve/handler"
	"nameres-service/internal/resolve/service"
	"nameres-service/internal/store"
	"nameres-service/server/http/handlers"
)

func NewRouter(cfg config.Config, logger zerolog.Logger, res *service.Resolver, st *store.Store) *chi.Mux {
	r := chi.NewRouter()

	// порядок важен: recover -> requestID -> logging -> cors -> limit
	r.Use(middleware.Recover(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.AllowOrigins))
	r.Use(middleware.LimitBytes(int64(cfg.MaxUploadMB) * 1024 * 1024))

	r.Get("/health", handlers.Health)

	// движок разрешения имён
	r.Post("/resolve", resHnd.Resolve(res, logger))
	r.Post("/resolve/batch", resHnd.ResolveBatch(cfg, res, logger))
	r.Post("/resolve/candidates", resHnd.Candidates(res, logger))

	// операторский контур: таблица соответствий и каталог
	r.Get("/mappings", resHnd.ListMappings(st, logger))
	r.Put("/mappings", resHnd.PutMapping(res, st, logger))
	r.Delete("/mappings", resHnd.DeleteMapping(res, st, logger))
	r.Post("/catalog", resHnd.CatalogReload(res, st, logger))

	return r
}
