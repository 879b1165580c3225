// HTTP surface of the sync server:
//
//	POST /api/v1/user/register        # create account (public)
//	POST /api/v1/user/login           # obtain bearer token (public)
//	POST /api/v1/sync/{entity-type}   # merge one entity batch (auth)
//	POST /api/v1/sync/settings        # merge the settings blob (auth)
//	GET  /api/v1/health               # liveness probe (public)
package api

import (
	healthAPI "habitkeeper/internal/app/server/api/http/health"
	"habitkeeper/internal/app/server/api/http/middleware"
	"habitkeeper/internal/app/server/api/http/middleware/auth"
	"habitkeeper/internal/app/server/api/http/middleware/logger"
	syncAPI "habitkeeper/internal/app/server/api/http/sync"
	userAPI "habitkeeper/internal/app/server/api/http/user"
	"habitkeeper/internal/domain/habitsync"
	"habitkeeper/internal/domain/session"
	"habitkeeper/internal/domain/user"
	"habitkeeper/internal/infrastructure/storage/postgres"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"
)

type Handlers struct {
	Health *healthAPI.Handler
	User   *userAPI.Handler
	Sync   *syncAPI.Handler
}

// New builds a *chi.Mux with all operations registered through huma.
func New(storage *postgres.Storage, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()

	config := huma.DefaultConfig("HabitKeeper Sync API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer"},
	}

	API := humachi.New(mux, config)

	h := handlers(storage, log)
	h.Health.SetupRoutes(API)
	h.User.SetupRoutes(API)
	h.Sync.SetupRoutes(API)

	return mux
}

func handlers(storage *postgres.Storage, log *slog.Logger) *Handlers {
	sessionRepo := postgres.NewSessionRepository(storage)
	sessionService := session.NewService(sessionRepo, log)
	authMW := auth.New(sessionService, log)
	loggerMW := logger.New(log)
	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	healthHandler := healthAPI.NewHandler(log, middlewares.GetAllAndClear())

	userRepo := postgres.NewUserRepository(storage)
	userService := user.NewService(userRepo, log)
	middlewares.Add(loggerMW.Middleware())
	userHandler := userAPI.NewHandler(userService, sessionService, log, middlewares.GetAllAndClear())

	syncRepo := postgres.NewHabitSyncRepository(storage)
	syncService := habitsync.NewService(syncRepo, log)
	middlewares.Add(authMW.Middleware())
	middlewares.Add(loggerMW.Middleware())
	syncHandler := syncAPI.NewHandler(syncService, log, middlewares.GetAllAndClear())

	return &Handlers{
		Health: healthHandler,
		User:   userHandler,
		Sync:   syncHandler,
	}
}
