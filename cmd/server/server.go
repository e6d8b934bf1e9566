package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpc_logging "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"

	"github.com/dumblo/adventure-api/internal/config"
	"github.com/dumblo/adventure-api/internal/dialogue"
	"github.com/dumblo/adventure-api/internal/orchestrators/adventure"
	"github.com/dumblo/adventure-api/internal/pkg/clock"
	"github.com/dumblo/adventure-api/internal/pkg/idgen"
	redisclient "github.com/dumblo/adventure-api/internal/redis"
	adventuresession "github.com/dumblo/adventure-api/internal/repositories/adventure_session"
	playerrepo "github.com/dumblo/adventure-api/internal/repositories/player"
	"github.com/dumblo/adventure-api/internal/world"
)

var grpcPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the gRPC server",
	Long:  `Start the adventure API gRPC server with all configured services.`,
	RunE:  runServer,
}

func init() {
	serverCmd.Flags().IntVar(&grpcPort, "port", 0, "gRPC server port (overrides GRPC_PORT)")
}

// buildService wires the full dependency graph from configuration. The
// returned cleanup closes the Redis connection.
func buildService(cfg *config.Config) (adventure.Service, func(), error) {
	client, err := redisclient.NewClient(cfg.RedisAddr, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create redis client: %w", err)
	}
	cleanup := func() {
		_ = client.Close()
	}

	catalog, err := world.Load(cfg.WorldPath)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to load world catalog: %w", err)
	}

	clk := clock.New()

	sessionRepo, err := adventuresession.NewRedisRepository(&adventuresession.Config{
		Client: client,
		Clock:  clk,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to create session repository: %w", err)
	}

	basePlayers, err := playerrepo.NewRedisRepository(&playerrepo.Config{Client: client})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to create player repository: %w", err)
	}
	players, err := playerrepo.NewRetryRepository(&playerrepo.RetryConfig{
		Repository: basePlayers,
		Attempts:   cfg.Persistence.RetryAttempts,
		Delay:      cfg.Persistence.RetryDelay,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to create retrying player repository: %w", err)
	}

	var gen dialogue.Generator = dialogue.Disabled{}
	if cfg.Dialogue.APIKey != "" {
		cache, cacheErr := dialogue.NewRedisCache(client)
		if cacheErr != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to create dialogue cache: %w", cacheErr)
		}
		gen, err = dialogue.NewClient(&dialogue.Config{
			Cache:             cache,
			Clock:             clk,
			BaseURL:           cfg.Dialogue.BaseURL,
			APIKey:            cfg.Dialogue.APIKey,
			Model:             cfg.Dialogue.Model,
			MaxTokens:         cfg.Dialogue.MaxTokens,
			Temperature:       cfg.Dialogue.Temperature,
			CacheTTL:          cfg.Dialogue.CacheTTL,
			RequestsPerMinute: cfg.Dialogue.RequestsPerMinute,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to create dialogue client: %w", err)
		}
	}

	svc, err := adventure.NewOrchestrator(&adventure.Config{
		SessionRepo: sessionRepo,
		PlayerRepo:  players,
		Catalog:     catalog,
		Dialogue:    gen,
		IDGenerator: idgen.NewPrefixed("adv"),
		Clock:       clk,
		Game:        cfg.Game,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to create adventure orchestrator: %w", err)
	}

	return svc, cleanup, nil
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if grpcPort != 0 {
		cfg.GRPCPort = grpcPort
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("received shutdown signal, gracefully stopping")
		cancel()
	}()

	_, cleanup, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			grpc_logging.UnaryServerInterceptor(grpc_logging.LoggerFunc(logFunc)),
			grpc_recovery.UnaryServerInterceptor(),
		),
		grpc.ChainStreamInterceptor(
			grpc_logging.StreamServerInterceptor(grpc_logging.LoggerFunc(logFunc)),
			grpc_recovery.StreamServerInterceptor(),
		),
	)

	// TODO: register the adventure handler once the proto surface is published

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("adventure.v1.AdventureService", grpc_health_v1.HealthCheckResponse_SERVING)

	reflection.Register(srv)

	errChan := make(chan error, 1)
	go func() {
		slog.Info("gRPC server starting", "port", cfg.GRPCPort)
		if serveErr := srv.Serve(lis); serveErr != nil {
			errChan <- fmt.Errorf("failed to serve: %w", serveErr)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down gRPC server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		stopped := make(chan struct{})
		go func() {
			srv.GracefulStop()
			close(stopped)
		}()

		select {
		case <-shutdownCtx.Done():
			slog.Warn("graceful shutdown timeout exceeded, forcing stop")
			srv.Stop()
		case <-stopped:
			slog.Info("server stopped gracefully")
		}

		return nil
	case err := <-errChan:
		return err
	}
}

func logFunc(ctx context.Context, level grpc_logging.Level, msg string, fields ...any) {
	switch level {
	case grpc_logging.LevelDebug:
		slog.DebugContext(ctx, msg, fields...)
	case grpc_logging.LevelWarn:
		slog.WarnContext(ctx, msg, fields...)
	case grpc_logging.LevelError:
		slog.ErrorContext(ctx, msg, fields...)
	default:
		slog.InfoContext(ctx, msg, fields...)
	}
}
