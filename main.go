package main

import (
	"context"
	"time"

	"academy-api/config"
	"academy-api/internal/app"
	routes "academy-api/internal/app/http"
	"academy-api/internal/platform/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.LoadEnv()
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	log, err := logger.New(cfg.AppEnv)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	services, err := app.Open(context.Background(), cfg, log)
	if err != nil {
		log.Fatal("startup failed", "error", err)
	}
	defer services.Close()

	r := gin.Default()

	// CORS must be registered before routes.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, routes.Deps{
		Log:                 log,
		JWTSecret:           cfg.JWTSecret,
		StripeWebhookSecret: cfg.StripeWebhookSecret,
		Catalog:             services.Catalog,
		Subscriptions:       services.Subscriptions,
		Access:              services.Access,
		Courses:             services.Courses,
		Payments:            services.Payments,
		Insurance:           services.Insurance,
	})

	log.Info("api listening", "port", cfg.Port, "env", cfg.AppEnv)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("server stopped", "error", err)
	}
}
