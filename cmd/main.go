package main

import (
	"context"
	"log"
	"net/http"

	"github.com/Yorkamc/GesCo/config"
	"github.com/Yorkamc/GesCo/db"
	"github.com/Yorkamc/GesCo/internal/auth/handler"
	repo "github.com/Yorkamc/GesCo/internal/auth/repository/postgres"
	"github.com/Yorkamc/GesCo/internal/auth/service"
	"github.com/Yorkamc/GesCo/internal/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()
	logg := logger.New(cfg.LogLevel)

	pool, err := db.NewPostgresPool(context.Background(), cfg.DBURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	repository := repo.NewPostgresRepository(pool)
	tokenService := service.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTokenExpiryMin)
	authService := service.NewAuthService(repository, repository, repository, repository, tokenService, cfg, logg)
	authHandler := handler.NewAuthHandler(authService, tokenService, cfg.Env)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(":"+cfg.MetricsPort, mux); err != nil {
			logg.Error("metrics listener stopped", "error", err)
		}
	}()

	app := fiber.New()
	app.Use(recover.New())
	handler.RegisterRoutes(app, authHandler)

	logg.Info("starting auth service", "port", cfg.Port, "env", cfg.Env)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
