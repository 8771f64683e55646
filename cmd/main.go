package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"library-catalog-service/internal/api"
	"library-catalog-service/internal/config"
	"library-catalog-service/internal/logger"
	"library-catalog-service/internal/metrics"
	"library-catalog-service/internal/store"
)

const dbWatchInterval = 15 * time.Second

func main() {
	// A missing .env is fine; the environment may be set some other way.
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("LibraryCatalogService", "info", true)
		bootLog.Fatal().Err(err).Msg("Error loading configuration")
	}

	log := logger.New(cfg.AppName, cfg.LogLevel, cfg.IsDevelopment())
	if envErr != nil {
		log.Info().Msg("No .env file found, relying on system environment")
	}
	log.Info().Str("app_env", cfg.AppEnv).Str("log_level", cfg.LogLevel).Msg("Starting service")

	// --- Database Connection ---
	db, err := sql.Open("postgres", cfg.Postgres.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database connection")
	}
	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)

	dbStore := store.NewPostgresStore(db)
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	err = dbStore.Ping(pingCtx)
	cancelPing()
	if err != nil {
		_ = dbStore.Close()
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Str("host", cfg.Postgres.Host).Str("db", cfg.Postgres.DBName).Msg("Database connection established")

	if cfg.Postgres.AutoMigrate {
		schemaCtx, cancelSchema := context.WithTimeout(context.Background(), 30*time.Second)
		err = dbStore.EnsureSchema(schemaCtx)
		cancelSchema()
		if err != nil {
			_ = dbStore.Close()
			log.Fatal().Err(err).Msg("Failed to create database schema")
		}
		log.Info().Msg("Database schema is up to date")
	}

	// --- Setup & Start HTTP Server ---
	httpAPIHandler := api.NewHTTPHandler(dbStore, dbStore, dbStore, log)

	httpRouter := chi.NewRouter()
	setupBaseMiddleware(httpRouter, cfg, log)
	registerHealthCheck(httpRouter, cfg.AppName, log, dbStore)
	httpRouter.Handle("/metrics", promhttp.Handler())
	httpAPIHandler.RegisterRoutes(httpRouter)

	httpServer := &http.Server{
		Addr:         ":" + cfg.HttpServer.Port,
		Handler:      httpRouter,
		ReadTimeout:  cfg.HttpServer.TimeoutRead,
		WriteTimeout: cfg.HttpServer.TimeoutWrite,
		IdleTimeout:  cfg.HttpServer.TimeoutIdle,
	}

	go func() {
		log.Info().Str("port", cfg.HttpServer.Port).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server ListenAndServe error")
		}
		log.Info().Msg("HTTP server has stopped")
	}()

	// --- Setup & Start gRPC Server ---
	healthServer := health.NewServer()
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	grpcServer := setupGRPCServer(log, healthServer)
	grpcListener, err := net.Listen("tcp", ":"+cfg.GrpcServer.Port)
	if err != nil {
		log.Fatal().Err(err).Str("port", cfg.GrpcServer.Port).Msg("Failed to listen for gRPC")
	}

	go func() {
		log.Info().Str("port", cfg.GrpcServer.Port).Msg("gRPC server listening")
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			log.Fatal().Err(err).Msg("gRPC server Serve error")
		}
		log.Info().Msg("gRPC server has stopped")
	}()

	watchCtx, stopWatch := context.WithCancel(context.Background())
	go watchDatabase(watchCtx, log, dbStore, healthServer)

	// --- Graceful Shutdown ---
	shutdownComplete := make(chan struct{})
	go waitForShutdown(log, httpServer, grpcServer, healthServer, dbStore, stopWatch, shutdownComplete)

	<-shutdownComplete
	log.Info().Msg("Service shutdown sequence finished")
}

func setupBaseMiddleware(router *chi.Mux, cfg *config.Config, log zerolog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(logger.RequestLogger(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(cfg.HttpServer.RequestTimeout))
	router.Use(metrics.Middleware(cfg.AppName))
	log.Debug().Msg("Base HTTP middleware registered")
}

func registerHealthCheck(router *chi.Mux, serviceName string, log zerolog.Logger, dbStore *store.PostgresStore) {
	healthPath := "/api/v1/healthz"
	router.Get(healthPath, func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		dbStatus := "healthy"
		if err := dbStore.Ping(ctx); err != nil {
			dbStatus = "unhealthy"
			log.Warn().Err(err).Msg("Health check DB ping failed")
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK) // Always 200, but payload indicates detailed status
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      "healthy",
			"serviceName": serviceName,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"database":    dbStatus,
		})
	})
	log.Debug().Str("path", healthPath).Msg("HTTP health check registered")
}

func setupGRPCServer(log zerolog.Logger, healthServer *health.Server) *grpc.Server {
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(unaryLoggingInterceptor(log)))

	grpc_health_v1.RegisterHealthServer(s, healthServer)
	log.Debug().Msg("gRPC health check service registered")

	// Enable gRPC server reflection (useful for tools like grpcurl).
	reflection.Register(s)
	log.Debug().Msg("gRPC reflection service registered")

	return s
}

func unaryLoggingInterceptor(log zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		event := log.Debug()
		if err != nil {
			event = log.Warn().Err(err)
		}
		event.Str("method", info.FullMethod).Dur("duration", time.Since(start)).Msg("gRPC request")
		return resp, err
	}
}

// watchDatabase keeps the gRPC health status in line with the database ping.
func watchDatabase(ctx context.Context, log zerolog.Logger, dbStore *store.PostgresStore, healthServer *health.Server) {
	ticker := time.NewTicker(dbWatchInterval)
	defer ticker.Stop()

	serving := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err := dbStore.Ping(pingCtx)
			cancel()

			if ok := err == nil; ok != serving {
				serving = ok
				status := grpc_health_v1.HealthCheckResponse_SERVING
				if !ok {
					status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
					log.Warn().Err(err).Msg("Database unreachable, reporting NOT_SERVING")
				} else {
					log.Info().Msg("Database reachable again, reporting SERVING")
				}
				healthServer.SetServingStatus("", status)
			}
		}
	}
}

func waitForShutdown(
	log zerolog.Logger,
	httpServer *http.Server,
	grpcServer *grpc.Server,
	healthServer *health.Server,
	dbStore *store.PostgresStore,
	stopWatch context.CancelFunc,
	shutdownComplete chan struct{},
) {
	defer close(shutdownComplete)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	receivedSignal := <-sigChan
	log.Info().Str("signal", receivedSignal.String()).Msg("Starting graceful shutdown")

	stopWatch()
	healthServer.Shutdown()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	stoppedGrpc := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stoppedGrpc)
	}()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("HTTP server graceful shutdown failed")
	} else {
		log.Info().Msg("HTTP server gracefully shut down")
	}

	select {
	case <-stoppedGrpc:
		log.Info().Msg("gRPC server gracefully shut down")
	case <-shutdownCtx.Done():
		log.Warn().Err(shutdownCtx.Err()).Msg("gRPC server graceful shutdown timed out, forcing stop")
		grpcServer.Stop()
	}

	if err := dbStore.Close(); err != nil {
		log.Warn().Err(err).Msg("Error closing database connection")
	}
	log.Info().Msg("Graceful shutdown sequence completed")
}
