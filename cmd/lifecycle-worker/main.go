package main

import (
	"context"
	"os/signal"
	"syscall"

	"academy-api/config"
	"academy-api/internal/app"
	"academy-api/internal/platform/logger"
	"academy-api/internal/worker"
)

func main() {
	cfg := config.LoadEnv()
	log, err := logger.New(cfg.AppEnv)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	services, err := app.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("startup failed", "error", err)
	}
	defer services.Close()

	job := worker.NewExpiryJob(services.Subscriptions, cfg.RenewalGracePeriod, log)
	scheduler, err := worker.Schedule(ctx, cfg.ExpirySchedule, job)
	if err != nil {
		log.Fatal("invalid expiry schedule", "error", err)
	}

	// Catch up on anything that lapsed while the worker was down.
	_, _ = job.Run(ctx)

	scheduler.Start()
	log.Info("lifecycle worker started", "schedule", cfg.ExpirySchedule, "grace", cfg.RenewalGracePeriod.String())
	<-ctx.Done()
	<-scheduler.Stop().Done()
	log.Info("lifecycle worker stopped")
}
