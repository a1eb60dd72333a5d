package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/solatis/rulekeeper/internal/core/api"
	"github.com/solatis/rulekeeper/internal/core/auth"
	"github.com/solatis/rulekeeper/internal/core/config"
	"github.com/solatis/rulekeeper/internal/core/server"
	"github.com/solatis/rulekeeper/internal/core/store"
	"github.com/solatis/rulekeeper/internal/rules"
)

// ledgerSweepInterval is how often expired ledgers are purged.
const ledgerSweepInterval = 10 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gRPC and HTTP transform services",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "0.0.0.0", "listen host")
	serveCmd.Flags().Int("grpc-port", 50051, "gRPC port")
	serveCmd.Flags().Int("http-port", 8080, "HTTP port")
	serveCmd.Flags().Int("cache-capacity", rules.DefaultCacheCapacity, "result cache entries, 0 disables the cache")
	serveCmd.Flags().Int("chunk-size", 0, "chunk length in codepoints for large rule sets, 0 disables")
	serveCmd.Flags().Bool("auth", false, "require API keys")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(configFile, cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	database, queries, err := openQueries(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	var authenticator *auth.Authenticator
	if cfg.AuthEnabled {
		secrets, err := config.HMACSecrets()
		if err != nil {
			return fmt.Errorf("failed to load HMAC secrets: %w", err)
		}
		if len(secrets) == 0 {
			return fmt.Errorf("no HMAC secrets configured (set %s_HMAC_SECRET environment variable)", config.EnvPrefix)
		}
		authenticator = auth.NewAuthenticator(secrets, queries)
	} else {
		logger.Warn("authentication disabled, every request runs as the default tenant")
	}

	engineOpts := []rules.Option{rules.WithChunkSize(cfg.ChunkSize), rules.WithLogger(logger)}
	if cfg.CacheCapacity == 0 {
		engineOpts = append(engineOpts, rules.WithCache(nil))
	} else {
		engineOpts = append(engineOpts, rules.WithCache(rules.NewResultCache(cfg.CacheCapacity)))
	}

	st := store.New(queries)
	service, err := api.NewService(rules.NewEngine(engineOpts...), st, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	grpcServer, err := server.NewGRPCServer(cfg, service, authenticator, logger)
	if err != nil {
		return fmt.Errorf("failed to create grpc server: %w", err)
	}
	httpServer, err := server.NewHTTPServer(cfg, service, authenticator, logger)
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	logger.Info("starting rulekeeper",
		"version", Version,
		"grpc", fmt.Sprintf("%s:%d", cfg.Host, cfg.GRPCPort),
		"http", fmt.Sprintf("%s:%d", cfg.Host, cfg.HTTPPort),
		"auth", cfg.AuthEnabled)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return grpcServer.Start(gctx) })
	g.Go(func() error { return httpServer.Start(gctx) })
	g.Go(func() error {
		server.RunLedgerJanitor(gctx, st, ledgerSweepInterval, logger)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return errors.Join(grpcServer.Shutdown(shutdownCtx), httpServer.Shutdown(shutdownCtx))
	})

	return g.Wait()
}
