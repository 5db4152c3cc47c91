package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vidprefetch/cache/config"
	"github.com/vidprefetch/cache/internal/discovery"
	"github.com/vidprefetch/cache/internal/download"
	"github.com/vidprefetch/cache/internal/eviction"
	"github.com/vidprefetch/cache/internal/ffi"
	"github.com/vidprefetch/cache/internal/httpapi"
	"github.com/vidprefetch/cache/internal/mediaprobe"
	"github.com/vidprefetch/cache/internal/model"
	"github.com/vidprefetch/cache/internal/scheduler"
	"github.com/vidprefetch/cache/internal/state"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()

	slog.Info("starting prefetch cache",
		"port", cfg.Port,
		"max_parallel_downloads", cfg.MaxParallelDownloads,
		"max_storage_bytes", cfg.MaxStorageBytes,
		"relay_urls", cfg.RelayURLs,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		slog.Info("shutdown signal received")
		cancel()
	}()

	sharedState := state.NewSharedState(cfg.MaxStorageBytes)

	relayFetcher := discovery.NewHTTPRelayFetcher(5 * time.Second)
	var authorFetcher discovery.AuthorFetcher
	if len(cfg.RelayURLs) > 0 {
		authorFetcher = discovery.NewHTTPAuthorFetcher(cfg.RelayURLs[0], &http.Client{Timeout: 10 * time.Second})
	}
	authorCache := discovery.NewAuthorCache(authorFetcher)

	discoverySvc := discovery.NewService(
		cfg.RelayURLs,
		relayFetcher,
		authorCache,
		sharedState,
		time.Duration(cfg.SchedulerTickSeconds)*time.Second,
	)
	go discoverySvc.Run(ctx)

	queue := scheduler.NewQueue()
	extractor := mediaprobe.NewFFmpegFrameExtractor()
	engine := download.NewEngine(sharedState, cfg.TempDir, cfg.MaxParallelDownloads, extractor)

	targets := scheduler.Targets{
		VideosAhead:  cfg.TargetVideosAhead,
		MinutesAhead: cfg.TargetMinutesAhead,
	}
	onTick := func(admitted []*model.VideoDownload) {
		engine.Start(ctx, admitted, func(id string) {
			queue.Remove(id)
		})
	}
	schedulerTicker := scheduler.NewTicker(sharedState, queue, targets, time.Duration(cfg.SchedulerTickSeconds)*time.Second, onTick)
	go schedulerTicker.Run(ctx, cfg.MaxParallelDownloads)

	go runEvictionLoop(ctx, sharedState, cfg.MaxBehindSeconds, time.Duration(cfg.SchedulerTickSeconds)*time.Second)

	server := httpapi.NewServer(sharedState)
	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.Engine(),
	}

	ffi.Global().Bind(sharedState, func(ctx context.Context, addr string) (string, error) {
		return httpServer.Addr, nil
	})
	if _, err := ffi.Global().Start(ctx, httpServer.Addr); err != nil {
		slog.Error("ffi bridge failed to start", "error", err)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", "error", err)
		}
	}()

	slog.Info("http server listening", "addr", httpServer.Addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("http server error", "error", err)
		os.Exit(1)
	}

	slog.Info("shutting down gracefully")
	time.Sleep(1 * time.Second)
	slog.Info("server stopped")
}

// runEvictionLoop runs an eviction pass on the same cadence as the
// scheduler tick, until ctx is cancelled.
func runEvictionLoop(ctx context.Context, st *state.SharedState, maxBehindSeconds float64, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			eviction.Pass(st, maxBehindSeconds)
		}
	}
}
