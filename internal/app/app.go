package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	appmw "github.com/zlatkom/package-self-service/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Options struct {
	Host           string
	Port           string
	AllowedOrigins []string
}

type application struct {
	logger *slog.Logger

	router    chi.Router
	httpSrv   *http.Server
	consumers []Consumer
	starters  []Starter
}

func New(logger *slog.Logger, opts Options) *application {
	router := chi.NewRouter()
	router.Use(appmw.Correlation)
	router.Use(appmw.Logger(logger))
	router.Use(appmw.Metrics)
	router.Use(chimw.Recoverer)
	if len(opts.AllowedOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
		}))
	}

	router.Handle("/metrics", promhttp.Handler())

	httpSrv := &http.Server{
		Handler: router,
		Addr:    net.JoinHostPort(opts.Host, opts.Port),
	}

	return &application{
		logger:  logger,
		httpSrv: httpSrv,
		router:  router,
	}
}

type HTTPHandler interface {
	Init(r chi.Router)
}

func (a *application) SetHTTPHandlers(handlers ...HTTPHandler) {
	for _, h := range handlers {
		h.Init(a.router)
	}
}

// Consumer is a long-running message loop tied to the application lifetime.
type Consumer interface {
	Consume(ctx context.Context)
	Close() error
}

func (a *application) SetConsumers(consumers ...Consumer) {
	a.consumers = consumers
}

// Starter is a component started once on boot, stopped on shutdown.
type Starter interface {
	Start(ctx context.Context) error
	Stop()
}

func (a *application) SetStarters(starters ...Starter) {
	a.starters = starters
}

func (a *application) Start(ctx context.Context) error {
	for _, s := range a.starters {
		if err := s.Start(ctx); err != nil {
			return err
		}
	}

	for _, c := range a.consumers {
		go c.Consume(ctx)
	}

	go a.startServer()

	a.logger.Info("application started")
	return nil
}

func (a *application) startServer() {
	a.logger.Info("starting http server", slog.String("addr", a.httpSrv.Addr))
	if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.logger.Error("failed to start http server", slog.Any("error", err))
		os.Exit(1)
	}
}

const gracefulShutdownTimeout = 5 * time.Second

func (a *application) Stop() {
	for _, c := range a.consumers {
		if err := c.Close(); err != nil {
			a.logger.Error("failed to close consumer", slog.Any("error", err))
		}
	}

	for _, s := range a.starters {
		s.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	if err := a.httpSrv.Shutdown(ctx); err != nil {
		a.logger.Error("failed to shutdown http server", slog.Any("error", err))
	}

	a.logger.Info("application stopped")
}
