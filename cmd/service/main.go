package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/cryptoqr/internal/cert"
	"github.com/dropDatabas3/cryptoqr/internal/config"
	"github.com/dropDatabas3/cryptoqr/internal/http/server"
	"github.com/dropDatabas3/cryptoqr/internal/observability/logger"
)

func main() {
	var (
		flagConfig  = flag.String("config", "", "ruta a config.yaml (vacío => defaults + env)")
		flagEnvFile = flag.String("env-file", ".env", "ruta a .env")
	)
	flag.Parse()

	if *flagEnvFile != "" {
		_ = godotenv.Load(*flagEnvFile)
	}

	cfg, err := config.Load(resolveConfigPath(*flagConfig))
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Env:         logEnv(cfg),
		Level:       cfg.Log.Level,
		ServiceName: "cryptoqr",
		Version:     cert.Version,
	})
	defer logger.Sync()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.Build(ctx, cfg)
	if err != nil {
		log.Fatal("bootstrap failed", logger.Err(err))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening",
			logger.String("addr", cfg.Server.Addr),
			logger.String("registry", cfg.Registry.Driver),
			logger.String("env", cfg.App.Env),
		)
		if err := srv.HTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server exited", logger.Err(err))
	}
	log.Info("bye")
}

// resolveConfigPath aplica la convención de configs/: explícito gana,
// después config.yaml, después el example. Vacío => solo defaults + env.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, p := range []string{"configs/config.yaml", "configs/config.example.yaml"} {
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
	}
	return ""
}

func logEnv(cfg *config.Config) string {
	if cfg.Log.Format == "json" || cfg.App.Env == "prod" {
		return "prod"
	}
	return "dev"
}
