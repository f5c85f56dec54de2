package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/teresa-solution/workspace-service/internal/auth"
	"github.com/teresa-solution/workspace-service/internal/config"
	"github.com/teresa-solution/workspace-service/internal/crypto"
	"github.com/teresa-solution/workspace-service/internal/handler"
	"github.com/teresa-solution/workspace-service/internal/monitoring"
	"github.com/teresa-solution/workspace-service/internal/service"
	"github.com/teresa-solution/workspace-service/internal/store"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.New(ctx, store.PoolConfig{
		DSN:             cfg.DB.DSN(),
		MaxConns:        int32(cfg.DB.MaxConns),
		MinConns:        int32(cfg.DB.MinConns),
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	var limiter *auth.LoginLimiter
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("Redis unreachable, login throttle will fail open")
		}
		limiter = auth.NewLoginLimiter(rdb, cfg.LoginMaxAttempts, cfg.LoginWindow)
		defer limiter.Close()
	} else {
		log.Info().Msg("No Redis address configured, login throttle disabled")
	}

	tokens, err := auth.NewTokenManager(cfg.JWTSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create token manager")
	}
	hasher := crypto.NewHasher(cfg.BcryptCost)

	// Initialize metrics
	monitoring.InitMetrics()
	health := monitoring.NewHealth(db)
	go health.Watch(ctx, 15*time.Second)

	h := handler.New(
		service.NewTenantService(db, hasher, tokens, limiter),
		service.NewUserService(db, hasher),
		service.NewProjectService(db),
		service.NewTaskService(db),
		tokens,
		health,
	)
	api := handler.NewEcho(h, []string{cfg.FrontendURL})

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to listen")
	}
	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, health.GRPCServer())
	reflection.Register(grpcServer)

	go func() {
		log.Info().Msgf("gRPC health server listening at %v", lis.Addr())
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatal().Err(err).Msg("Failed to start gRPC server")
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := health.Check(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Msgf("HTTP server for health checks and metrics started on port %d", cfg.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics server error")
		}
	}()

	go func() {
		log.Info().Msgf("Starting workspace API on port %d", cfg.HTTPPort)
		if err := api.Start(fmt.Sprintf(":%d", cfg.HTTPPort)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("API server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := api.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("API server shutdown failed")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Metrics server shutdown failed")
	}
	grpcServer.GracefulStop()
	log.Info().Msg("Server exiting")
}

func setupLogging(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.Env != config.EnvProduction {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.DefaultContextLogger = &log.Logger
}
