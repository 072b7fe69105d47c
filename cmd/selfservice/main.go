package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zlatkom/package-self-service/internal/app"
	"github.com/zlatkom/package-self-service/internal/config"
	"github.com/zlatkom/package-self-service/internal/postgres"
	"github.com/zlatkom/package-self-service/internal/selfservice/client"
	"github.com/zlatkom/package-self-service/internal/selfservice/handler"
	"github.com/zlatkom/package-self-service/internal/selfservice/jobs"
	"github.com/zlatkom/package-self-service/internal/selfservice/repo"
	"github.com/zlatkom/package-self-service/internal/selfservice/service"
	"github.com/zlatkom/package-self-service/pkg/resilience"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
)

func main() {
	conf := config.NewSelfService()
	logger := newLogger(conf.Env)
	panicIfErr("invalid config", conf.Validate())

	db, err := postgres.New(conf.Postgres)
	panicIfErr("failed to connect to db", err)
	defer db.Close()
	logger.Info("postgres connected")

	packageRepo := repo.NewPostgresRepo(db)
	shippingClient := client.New(logger, conf.Shipping)
	limiter := rate.NewLimiter(rate.Limit(conf.RateLimit.RPS), conf.RateLimit.Burst)

	packageService := service.NewPackageService(logger, packageRepo, packageRepo, shippingClient, limiter, service.Options{
		EnrichConcurrency: conf.EnrichConcurrency,
		PersistRetry: resilience.RetryConfig{
			MaxAttempts:  3,
			InitialDelay: conf.PersistRetryDelay,
			Multiplier:   2,
			MaxDelay:     time.Second,
		},
	})

	reconcileJob := jobs.NewReconcileJob(logger, packageService, conf.ReconcileSchedule)
	httpHandler := handler.NewHTTPHandler(logger, packageService)

	app := app.New(logger, app.Options{
		Host:           conf.HTTP.Host,
		Port:           conf.HTTP.Port,
		AllowedOrigins: conf.Cors.AllowedOrigins,
	})

	app.SetHTTPHandlers(httpHandler)
	app.SetStarters(reconcileJob)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	panicIfErr("failed to start app", app.Start(ctx))
	<-ctx.Done()
	app.Stop()
}

func init() {
	godotenv.Load()
}

func newLogger(env string) *slog.Logger {
	switch env {
	case "production":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

func panicIfErr(prefix string, err error) {
	if err != nil {
		panic(prefix + ": " + err.Error())
	}
}
