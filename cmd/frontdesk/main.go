package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/clinicdesk/frontdesk/internal/api"
	"github.com/clinicdesk/frontdesk/internal/appointment"
	"github.com/clinicdesk/frontdesk/internal/availability"
	"github.com/clinicdesk/frontdesk/internal/calendar"
	"github.com/clinicdesk/frontdesk/internal/config"
	"github.com/clinicdesk/frontdesk/internal/observability/metrics"
	"github.com/clinicdesk/frontdesk/internal/store"
	"github.com/clinicdesk/frontdesk/internal/views"
	"github.com/clinicdesk/frontdesk/pkg/logging"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting frontdesk coordination server",
		"env", cfg.Env,
		"port", cfg.Port,
		"store", cfg.StoreBaseURL,
	)

	client := store.NewClient(cfg.StoreBaseURL, cfg.StoreTimeout, logger)

	var revisions views.RevisionRegistry
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer rdb.Close()
		revisions = views.NewRedisRevisions(rdb)
		logger.Info("using redis revision registry", "addr", cfg.RedisAddr)
	} else {
		revisions = views.NewMemoryRevisions()
		logger.Info("using in-memory revision registry")
	}

	engineMetrics := metrics.NewEngineMetrics(prometheus.DefaultRegisterer)

	registry := views.NewRegistry(views.Config{
		Store:     client,
		Revisions: revisions,
		Logger:    logger,
		Metrics:   engineMetrics,
	})
	defer registry.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	today := calendar.Day(time.Now())
	viewConfigs := []views.ViewConfig{
		{
			Name: api.ViewNewAppointments,
			Query: views.Query{
				Filter:     store.Filter{Statuses: []appointment.Status{appointment.StatusNew}},
				SortByDate: true,
			},
			Interval: cfg.NewQueueRefresh,
		},
		{
			Name: api.ViewTodayApproved,
			Query: views.Query{
				Filter: store.Filter{
					Day:      &today,
					Statuses: []appointment.Status{appointment.StatusApproved},
				},
				SortByDate: true,
			},
			Interval: cfg.ScheduleRefresh,
		},
		{
			// Manual-only: the archive refreshes when a user searches,
			// never on a timer.
			Name: api.ViewArchive,
			Query: views.Query{
				Filter: store.Filter{
					Statuses: []appointment.Status{appointment.StatusDone, appointment.StatusCanceled},
				},
			},
		},
	}
	for _, vc := range viewConfigs {
		if _, err := registry.Register(ctx, vc); err != nil {
			logger.Error("failed to register view", "view", vc.Name, "error", err)
			os.Exit(1)
		}
	}

	resolver := availability.NewResolver(client, time.Now, logger)
	handler := api.NewHandler(registry, resolver, client, logger)

	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		Handler:        handler,
		MetricsHandler: promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
