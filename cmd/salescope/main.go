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

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/salescope/salescope/internal/config"
	"github.com/salescope/salescope/internal/engine"
	"github.com/salescope/salescope/internal/eth"
	"github.com/salescope/salescope/internal/metrics"
	"github.com/salescope/salescope/internal/notify"
	"github.com/salescope/salescope/pkg/markets"
)

var Version = "dev" // Overridden by release build script

func init() {
	logger := zap.Must(zap.NewProduction())
	if config.Get().LogZapMode == "development" {
		logger = zap.Must(zap.NewDevelopment())
	}
	zap.ReplaceGlobals(logger)
}

func main() {
	zap.L().Info("Starting salescope...", zap.String("Version", Version))

	// Main context: canceled when we want to stop normal operation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Get()
	if !common.IsHexAddress(cfg.ContractAddress) {
		zap.L().Fatal("CONTRACT_ADDRESS is not a valid address", zap.String("value", cfg.ContractAddress))
	}
	contract := common.HexToAddress(cfg.ContractAddress)

	m := metrics.Init()
	var metricsSrv *http.Server
	if cfg.MetricsPort != 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		metricsSrv = &http.Server{Addr: fmt.Sprintf(":%d", cfg.MetricsPort), Handler: mux}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				zap.L().Error("Metrics server failed", zap.Error(err))
			}
		}()
	}

	client, err := eth.CreateEthClient()
	if err != nil {
		zap.L().Fatal("Failed to create Ethereum client", zap.Error(err))
	}

	var dedup engine.Dedup = engine.NewLastHashDedup()
	if cfg.DedupSeenCapacity > 1 {
		dedup = engine.NewBoundedSeenDedup(int(cfg.DedupSeenCapacity))
	}

	eng := engine.New(
		contract,
		markets.DefaultMarketplaces(),
		markets.DefaultCurrencies(),
		dedup,
		notify.NewMultiNotifier(notify.LogNotifier{}),
		m,
	)
	watcher := eth.NewTransfersWatcher(ctx, client, eng)

	watcherErrs := make(chan error, 1)
	go func() {
		defer client.Close()
		if err := watcher.WatchTransfers(contract); err != nil {
			watcherErrs <- err
		}
	}()

	// Catch up to two signals: first for graceful, second to force
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-watcherErrs:
		zap.L().Error("Transfer watcher stopped", zap.Error(err))
	case <-sigCh:
		zap.L().Info("Received shutdown signal, initiating graceful shutdown...")
		go func() {
			// If a second signal arrives, force an immediate exit
			<-sigCh
			zap.L().Error("Received second signal, forcing shutdown")
			os.Exit(1)
		}()
	}

	cancel()
	if metricsSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			zap.L().Warn("Error shutting down metrics server", zap.Error(err))
		}
	}

	zap.L().Info("Shutdown complete")
	_ = zap.L().Sync()
}
