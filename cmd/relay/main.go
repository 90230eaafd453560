// relay multiplexes exchange price streams to local WebSocket clients.
// Usage: go run ./cmd/relay --config configs/relay.example.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/price-relay/internal/config"
	"github.com/rickgao/price-relay/internal/feed"
	"github.com/rickgao/price-relay/internal/hub"
	"github.com/rickgao/price-relay/internal/server"
	"github.com/rickgao/price-relay/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/relay.example.yaml", "path to config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	// Optional .env bootstrap before ${VAR} expansion in the config file.
	godotenv.Load()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	logger.Info("starting relay",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"upstream_url", cfg.Upstream.URL,
		"listen", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	relayHub := hub.New(ctx, hub.Config{
		SnapshotOnSubscribe: cfg.Relay.SnapshotOnSubscribe,
	}, feed.Config{
		URL:                cfg.Upstream.URL,
		ReconnectBaseDelay: cfg.Upstream.ReconnectBaseDelay,
		ReconnectMaxDelay:  cfg.Upstream.ReconnectMaxDelay,
		MaxRetries:         cfg.Upstream.MaxRetries,
		PingTimeout:        cfg.Upstream.PingTimeout,
		WriteTimeout:       cfg.Upstream.WriteTimeout,
		MessageBufferSize:  cfg.Upstream.MessageBufferSize,
	}, logger)
	defer relayHub.Close()

	srv := server.New(cfg.Server, cfg.Relay, relayHub, logger)

	metricsSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: metricsHandler(cfg.Metrics.Path),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Run(gctx)
	})

	g.Go(func() error {
		logger.Info("metrics server listening", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
		if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return metricsSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("relay exited with error", "error", err)
		os.Exit(1)
	}

	logger.Info("relay stopped")
}

func metricsHandler(path string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())
	return mux
}
