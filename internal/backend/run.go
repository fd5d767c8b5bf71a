package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"reci/internal/config"
	"reci/internal/db"
)

const purgeInterval = time.Minute

// Serve runs the development backend until ctx is cancelled. Only one
// instance may use a data directory at a time.
func Serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg == nil {
		return errors.New("serve requires a config")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	dataDir := cfg.Server.DataDir
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir %q: %w", dataDir, err)
	}

	lockPath := filepath.Join(dataDir, "reci-serve.lock")
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another reci server is already using %s", dataDir)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release server lock", "error", err)
		}
	}()

	database, err := db.Open(filepath.Join(dataDir, "reci.db"))
	if err != nil {
		return err
	}
	defer database.Close()

	srv := New(database, Options{
		DataDir:        dataDir,
		PublicURL:      cfg.Server.PublicURL,
		PageSize:       cfg.Server.PageSize,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		PolicyTTL:      cfg.PolicyTTL(),
	}, logger)

	listener, err := net.Listen("tcp", cfg.Server.Bind)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Server.Bind, err)
	}

	httpServer := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go purgeLoop(ctx, database, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(listener)
	}()
	logger.Info("reci server started",
		"bind", listener.Addr().String(),
		"public_url", cfg.Server.PublicURL,
		"data_dir", dataDir,
		"lock", lockPath,
	)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("reci server stopped")
	return nil
}

func purgeLoop(ctx context.Context, database *sql.DB, logger *slog.Logger) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := db.PurgePolicies(database, now)
			if err != nil {
				logger.Warn("purge upload policies failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug("purged upload policies", "count", n)
			}
		}
	}
}
