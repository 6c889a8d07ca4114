package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	"thesisarchive/internal/config"
	identitygrpc "thesisarchive/internal/grpc"
	internalhttp "thesisarchive/internal/http"
	"thesisarchive/internal/metrics"
	"thesisarchive/internal/notify"
	"thesisarchive/internal/policy"
	"thesisarchive/internal/repository"
	"thesisarchive/internal/verification"
)

func main() {
	cfg := config.Load()
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := repository.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		fatal(logger, "db connection failed", err)
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		fatal(logger, "db migration failed", err)
	}

	engine := policy.New(policy.DefaultRoutes())
	if cfg.RoutesFile != "" {
		routes, err := policy.LoadRoutes(cfg.RoutesFile)
		if err != nil {
			fatal(logger, "route table load failed", err)
		}
		engine = policy.New(routes)
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			fatal(logger, "redis ping failed", err)
		}
		cancel()
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close error", "error", err)
			}
		}()
	} else {
		logger.Warn("REDIS_ADDR not set, admin email verification disabled")
	}

	var notifier notify.Notifier = notify.NewLogNotifier(cfg.PublicBaseURL, logger)
	if cfg.SMTPAddr != "" {
		notifier = notify.NewSMTPNotifier(notify.SMTPConfig{
			Addr:     cfg.SMTPAddr,
			From:     cfg.SMTPFrom,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			BaseURL:  cfg.PublicBaseURL,
		})
	}

	server, err := internalhttp.NewServer(cfg, store, internalhttp.Options{
		Policy:        engine,
		Verifications: verification.NewStore(redisClient, cfg.VerificationTTL),
		Notifier:      notifier,
		Metrics:       metrics.New(),
		Logger:        logger,
	})
	if err != nil {
		fatal(logger, "server init failed", err)
	}
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	var grpcServer *grpc.Server
	if cfg.ServiceAuthToken != "" && cfg.GRPCAddr != "" {
		serviceAuthInterceptor, err := identitygrpc.NewServiceAuthUnaryInterceptor(cfg.ServiceAuthToken, logger)
		if err != nil {
			fatal(logger, "grpc service auth init failed", err)
		}
		grpcServer = grpc.NewServer(grpc.UnaryInterceptor(serviceAuthInterceptor))
		identitygrpc.RegisterIdentityQueryServiceServer(grpcServer, identitygrpc.NewIdentityServer(server.Resolver()))

		go func() {
			listener, err := net.Listen("tcp", cfg.GRPCAddr)
			if err != nil {
				fatal(logger, "grpc listen error", err)
			}
			logger.Info("thesis archive grpc listening", "addr", cfg.GRPCAddr)
			if err := grpcServer.Serve(listener); err != nil {
				fatal(logger, "grpc server error", err)
			}
		}()
	}

	go func() {
		logger.Info("thesis archive http listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "http server error", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
