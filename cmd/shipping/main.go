package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/zlatkom/package-self-service/internal/app"
	"github.com/zlatkom/package-self-service/internal/config"
	"github.com/zlatkom/package-self-service/internal/postgres"
	"github.com/zlatkom/package-self-service/internal/shipping/handler"
	"github.com/zlatkom/package-self-service/internal/shipping/repo"
	"github.com/zlatkom/package-self-service/internal/shipping/service"

	"github.com/joho/godotenv"
)

func main() {
	conf := config.NewShippingService()
	logger := newLogger(conf.Env)
	panicIfErr("invalid config", conf.Validate())

	db, err := postgres.New(conf.Postgres)
	panicIfErr("failed to connect to db", err)
	defer db.Close()
	logger.Info("postgres connected")

	orderRepo := repo.NewPostgresRepo(db)
	orderService := service.NewOrderService(logger, orderRepo)

	kafkaHandler := handler.NewKafkaHandler(logger, conf.Kafka, orderService)
	httpHandler := handler.NewHTTPHandler(logger, orderService)

	app := app.New(logger, app.Options{
		Host: conf.HTTP.Host,
		Port: conf.HTTP.Port,
	})

	app.SetHTTPHandlers(httpHandler)
	app.SetConsumers(kafkaHandler)

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
