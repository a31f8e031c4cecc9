// Command twinserver runs the conversational twin engine: an in-memory
// session store with TTL eviction, the turn pipeline, and the HTTP/WebSocket
// API surface.
//
// Usage:
//
//	export OPENROUTER_API_KEY=sk-or-...
//	go run ./cmd/twinserver
//
// All configuration comes from environment variables, with an optional YAML
// file named by TWINENGINE_CONFIG. See the config package for the full list.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mirrorlabs/twinengine/config"
	"github.com/mirrorlabs/twinengine/httpapi"
	"github.com/mirrorlabs/twinengine/logger"
	"github.com/mirrorlabs/twinengine/metrics"
	"github.com/mirrorlabs/twinengine/providers"
	"github.com/mirrorlabs/twinengine/sessionstore"
	"github.com/mirrorlabs/twinengine/twin"
	"github.com/mirrorlabs/twinengine/version"
)

func main() {
	if err := run(); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if os.Getenv("LOG_LEVEL") == "debug" {
		logger.SetLevel(slog.LevelDebug)
	}
	logger.Debug("build info", version.BuildAttrs()...)

	runtime := providers.NewRuntime(providers.Settings{
		OpenAIBaseURL:     cfg.OpenAIBaseURL,
		OpenRouterBaseURL: cfg.OpenRouterBaseURL,
		OpenRouterSiteURL: cfg.OpenRouterSiteURL,
		OpenRouterAppName: cfg.OpenRouterAppName,
		OllamaBaseURL:     cfg.OllamaBaseURL,
	}, cfg.Provider, cfg.ChatModel, cfg.MemoryModel)

	store := sessionstore.NewMemoryStore(cfg.SessionTTL)
	engine := twin.NewEngine(store, runtime, twin.Config{
		FreeMessageLimit: cfg.FreeMessageLimit(),
		ConfidenceMin:    cfg.ConfidenceMin,
		AdvancedThinking: cfg.AdvancedThinking,
		AutoConsent:      cfg.DemoMode && cfg.DemoAutoConsent,
	})

	exporter := metrics.NewExporter()
	sweeper := sessionstore.NewSweeper(store, cfg.SweepInterval, func(count int) {
		metrics.RecordSwept(count)
		metrics.SetActiveSessions(store.Len())
	})

	server := httpapi.NewServer(cfg, engine, store, runtime, exporter)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sweeper.Run(ctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("🚀 Twin engine listening",
			"addr", cfg.Addr,
			"provider", cfg.Provider,
			"voice", cfg.VoiceProvider,
			"demoMode", cfg.DemoMode,
		)
		if err := server.ListenAndServe(ctx); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(ctx, cfg.MetricsAddr, exporter)
		})
	}

	return g.Wait()
}

// serveMetrics runs a dedicated exporter listener for deployments that keep
// scrape traffic off the public port. The main router also mounts /metrics.
func serveMetrics(ctx context.Context, addr string, exporter *metrics.Exporter) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", exporter.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("📈 Metrics exporter listening", "addr", addr)
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
