package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/eventloom/finance-backend/api"
	"github.com/eventloom/finance-backend/api/controllers"
	"github.com/eventloom/finance-backend/api/routes"
	"github.com/eventloom/finance-backend/internal/app"
	"github.com/eventloom/finance-backend/internal/gateway"
	"github.com/eventloom/finance-backend/pkg/config"
	"github.com/eventloom/finance-backend/pkg/db"
	"github.com/eventloom/finance-backend/pkg/instance"
	"github.com/eventloom/finance-backend/pkg/logger"
	"github.com/eventloom/finance-backend/pkg/migrate"
	"github.com/eventloom/finance-backend/pkg/pubsub"
	"github.com/eventloom/finance-backend/pkg/redis"
	"github.com/eventloom/finance-backend/pkg/stripe"
)

const shutdownTimeout = 20 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	bootCtx := context.Background()

	dbClient, err := db.New(bootCtx, cfg.DB, logg)
	if err != nil {
		logg.Error(bootCtx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(bootCtx, cfg, logg, dbClient); err != nil {
		logg.Error(bootCtx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	readiness := map[string]controllers.Pinger{"database": dbClient}
	var (
		redisClient *redis.Client
		idempotency redis.IdempotencyStore
	)
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(bootCtx, cfg.Redis, logg)
		if err != nil {
			logg.Error(bootCtx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		readiness["redis"] = redisClient
		idempotency = redisClient
	} else {
		logg.Warn(bootCtx, "redis disabled: idempotency replay off, locks are process local")
	}

	stripeClient, err := stripe.NewClient(bootCtx, cfg.Stripe, logg)
	if err != nil {
		logg.Error(bootCtx, "failed to bootstrap stripe", err)
		os.Exit(1)
	}
	provider, err := stripe.NewAdapter(stripeClient)
	if err != nil {
		logg.Error(bootCtx, "failed to create stripe adapter", err)
		os.Exit(1)
	}

	var escalator gateway.Escalator
	if cfg.GCP.ProjectID != "" {
		pubsubClient, err := pubsub.NewClient(bootCtx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(bootCtx, "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub client", err)
			}
		}()
		escalator = app.NewPubSubEscalator(pubsubClient, logg)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	stack, err := app.Build(bootCtx, app.Deps{
		Config:    cfg,
		Logger:    logg,
		DB:        dbClient,
		Redis:     redisClient,
		Provider:  provider,
		Escalator: escalator,
		Registry:  reg,
	})
	if err != nil {
		logg.Error(bootCtx, "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(bootCtx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})

	server := api.NewServer(addr, routes.NewRouter(routes.Params{
		Config:      cfg,
		Logger:      logg,
		Gateway:     stack.Gateway,
		Idempotency: idempotency,
		Readiness:   readiness,
		Gatherer:    reg,
	}))

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
