// Command connect runs the multi-provider OAuth credential broker.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/postbridge/connect/internal/config"
	httpx "github.com/postbridge/connect/internal/http"
	"github.com/postbridge/connect/internal/oauth/providers"
	"github.com/postbridge/connect/internal/oauth/providers/google"
	"github.com/postbridge/connect/internal/oauth/providers/linkedin"
	"github.com/postbridge/connect/internal/oauth/providers/meta"
	"github.com/postbridge/connect/internal/oauth/providers/pinterest"
	"github.com/postbridge/connect/internal/oauth/providers/x"
	"github.com/postbridge/connect/internal/oauth/state"
	"github.com/postbridge/connect/internal/observability/logger"
	"github.com/postbridge/connect/internal/observability/metrics"
	"github.com/postbridge/connect/internal/store"
	storepg "github.com/postbridge/connect/internal/store/pg"

	// The memory adapter registers itself via init(); pg is imported
	// by name above for the migrate command and registers the same way.
	_ "github.com/postbridge/connect/internal/store/memory"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:   "connect",
		Short: "Multi-provider OAuth credential broker",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env is optional; real deployments use the environment.
			_ = godotenv.Load()
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml (optional)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(configPath)
		},
	}

	root.AddCommand(serveCmd, migrateCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.App.LogLevel,
		ServiceName: "connect",
	})
	defer func() { _ = logger.Sync() }()
	log := logger.Named("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	credStore, err := store.Open(ctx, store.Config{
		Driver: cfg.Storage.Driver,
		DSN:    cfg.Storage.DSN,
	})
	if err != nil {
		return err
	}
	defer credStore.Close()

	registry := buildRegistry(cfg)
	if len(registry.Names()) == 0 {
		log.Warn("no providers configured, only the exposure endpoint will function")
	} else {
		log.Info("providers configured", logger.Any("providers", registry.Names()))
	}

	codec := state.New(cfg.State.SigningKey, cfg.State.TTL)
	if codec.Signed() {
		log.Info("signed state mode enabled")
	}

	metricsHandler := metrics.Register(prometheus.DefaultRegisterer)

	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: httpx.NewRouter(httpx.RouterDeps{
			Registry:      registry,
			Store:         credStore,
			State:         codec,
			ServiceSecret: cfg.Service.Secret,
			Metrics:       metricsHandler,
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", logger.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func migrate(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Storage.Driver != "postgres" {
		return fmt.Errorf("migrate: driver %q needs no migrations", cfg.Storage.Driver)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := storepg.Open(ctx, cfg.Storage.DSN)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Migrate(ctx); err != nil {
		return err
	}
	fmt.Println("migrations applied")
	return nil
}

// buildRegistry creates one adapter per fully configured provider.
// Partially configured providers are skipped rather than registered
// broken.
func buildRegistry(cfg *config.Config) *providers.Registry {
	registry := providers.NewRegistry()

	register := func(p config.Provider, build func(providers.Config) providers.Provider) {
		if p.Configured() {
			registry.Register(build(providers.Config{
				ClientID:     p.ClientID,
				ClientSecret: p.ClientSecret,
				RedirectURI:  p.RedirectURI,
			}))
		}
	}

	register(cfg.Providers.Facebook, func(c providers.Config) providers.Provider { return meta.New(c) })
	register(cfg.Providers.YouTube, func(c providers.Config) providers.Provider { return google.New(c) })
	register(cfg.Providers.X, func(c providers.Config) providers.Provider { return x.New(c) })
	register(cfg.Providers.Pinterest, func(c providers.Config) providers.Provider { return pinterest.New(c) })
	register(cfg.Providers.LinkedIn, func(c providers.Config) providers.Provider { return linkedin.New(c) })

	return registry
}
