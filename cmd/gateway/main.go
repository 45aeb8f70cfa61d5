// cmd/gateway/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"agent-gateway/internal/cache"
	"agent-gateway/internal/common/config"
	"agent-gateway/internal/common/logger"
	"agent-gateway/internal/common/observability"
	"agent-gateway/internal/fabric"
	"agent-gateway/internal/graph"
	"agent-gateway/internal/orchestrator"
	"agent-gateway/internal/powerbi"
	"agent-gateway/internal/search"
	"agent-gateway/internal/templates"
)

func main() {
	// bootstrap logger for everything up to config load; replaced by the
	// configured one right after
	bootLog := logger.New("info", "console")
	bootLog.Info("Starting agent gateway...")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)
	zapLog.Info("Logger configured",
		zap.String("level", cfg.Logging.Level),
		zap.String("format", cfg.Logging.Format))

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	registry, err := templates.NewRegistry()
	if err != nil {
		zapLog.Fatal("template registry failed", zap.Error(err))
	}

	fabricClient, err := fabric.New(cfg.Fabric, log)
	if err != nil {
		zapLog.Fatal("fabric client failed", zap.Error(err))
	}
	defer fabricClient.Close()

	var docs search.Searcher
	switch cfg.Search.Provider {
	case "elasticsearch":
		docs, err = search.NewElasticClient(cfg.Search, log)
		if err != nil {
			zapLog.Fatal("elasticsearch client failed", zap.Error(err))
		}
	default:
		docs = search.NewRESTClient(cfg.Search, log)
	}

	dir := graph.New(cfg.Graph, graph.ContextToken{Fallback: cfg.Graph.Token}, log)
	resultCache := cache.New(cfg.Cache, log)
	linker := powerbi.NewBuilder(cfg.PowerBI)

	orch := orchestrator.New(registry, fabricClient, docs, dir, deepLinker(linker), resultCache, orchestrator.Options{
		MaxRows:    cfg.Gateway.MaxRows,
		Semantic:   cfg.Search.Semantic,
		DateColumn: cfg.PowerBI.DateColumn,
	}, log)

	srv := newServer(orch, obs, cfg.Gateway, log)

	httpServer := &http.Server{
		Addr:    cfg.App.ListenAddr,
		Handler: srv.routes(),
	}

	go func() {
		zapLog.Info("Gateway listening", zap.String("addr", cfg.App.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Gateway stopped gracefully")
}

// deepLinker keeps a typed nil *powerbi.Builder from becoming a non-nil
// interface inside the orchestrator.
func deepLinker(b *powerbi.Builder) orchestrator.DeepLinker {
	if b == nil {
		return nil
	}
	return b
}
