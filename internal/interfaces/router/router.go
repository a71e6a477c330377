// Package router builds the Fiber app and wires services to routes.
package router

import (
	holdingsvc "fundtrack-backend/internal/application/holdings"
	signalsvc "fundtrack-backend/internal/application/signals"
	"fundtrack-backend/internal/config"
	"fundtrack-backend/internal/eastmoney"
	"fundtrack-backend/internal/infrastructure/database"
	chartshttp "fundtrack-backend/internal/interfaces/handlers/charts"
	healthhttp "fundtrack-backend/internal/interfaces/handlers/health"
	holdingshttp "fundtrack-backend/internal/interfaces/handlers/holdings"
	signalshttp "fundtrack-backend/internal/interfaces/handlers/signals"
	"fundtrack-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// CreateApp builds the Fiber app with all global middleware and route
// registration, opening the database (and Redis when configured) on the way.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler,
	})

	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, nil, nil, err
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, err
		}
		rdb = redis.NewClient(opts)
	}

	gateway := eastmoney.NewClient(eastmoney.Config{
		RequestInterval: cfg.FetchPause,
		Cache:           rdb,
	}, log.Logger)

	holdingsService := &holdingsvc.Service{DB: db, Gateway: gateway, Log: log.Logger}
	signalsService := &signalsvc.Service{DB: db, Log: log.Logger}

	healthHandlers := &healthhttp.Handlers{DB: db, Rdb: rdb}
	app.Get("/health/json", healthHandlers.JSON)

	holdingsHandlers := &holdingshttp.Handlers{Service: holdingsService}
	holdingsGroup := app.Group("/api/v1/holdings")
	holdingsGroup.Get("/", holdingsHandlers.List)
	holdingsGroup.Post("/", holdingsHandlers.Create)
	holdingsGroup.Get("/export", holdingsHandlers.Export)
	holdingsGroup.Post("/import", holdingsHandlers.Import)
	holdingsGroup.Get("/:code/history", holdingsHandlers.History)
	holdingsGroup.Patch("/:code/amount", holdingsHandlers.UpdateAmount)
	holdingsGroup.Delete("/:code", holdingsHandlers.Delete)

	signalsHandlers := &signalshttp.Handlers{Service: signalsService}
	signalsGroup := app.Group("/api/v1/signals")
	signalsGroup.Get("/runs/:code", signalsHandlers.Runs)
	signalsGroup.Get("/:kind/:code", signalsHandlers.Evaluate)

	chartsHandlers := &chartshttp.Handlers{Holdings: holdingsService}
	app.Get("/api/v1/charts/:code/nav.png", chartsHandlers.NavChart)

	return app, db, rdb, nil
}
