package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Shutdown gracefully shuts down the application in dependency order:
// stop taking traffic, stop the scan loops that depend on the orchestrator,
// stop the orchestrator itself, then close storage and the cache.
func (a *App) Shutdown() error {
	a.logger.Info("application-shutting-down")

	a.healthChecker.SetReady(false)
	a.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http-server-shutdown-error", zap.Error(err))
	}

	a.detector.Stop()
	a.matcher.Stop()
	a.orchestrator.Stop()

	if err := a.storage.Close(); err != nil {
		a.logger.Error("storage-close-error", zap.Error(err))
	}
	a.cache.Close()

	a.wg.Wait()

	a.logger.Info("application-shutdown-complete")
	return nil
}
