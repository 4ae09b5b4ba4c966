package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/nodus-deploy/internal/addressbook"
	"github.com/shaiso/nodus-deploy/internal/api"
	"github.com/shaiso/nodus-deploy/internal/config"
	"github.com/shaiso/nodus-deploy/internal/repo"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd создаёт команду serve: HTTP API и /metrics.
func NewServeCmd(configFn func() (*config.Config, error)) *cobra.Command {
	var port int
	var reload time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only HTTP API over run history and the address book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFn()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.APIPort = port
			}
			return serve(cmd.Context(), cfg, reload, slog.Default())
		},
	}

	cmd.Flags().IntVar(&port, "port", config.DefaultAPIPort, "HTTP port (overrides API_PORT)")
	cmd.Flags().DurationVar(&reload, "reload-interval", 10*time.Second, "How often to re-read the address book")

	return cmd
}

func serve(ctx context.Context, cfg *config.Config, reload time.Duration, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	book, err := addressbook.Open(cfg.AddressBook)
	if err != nil {
		return err
	}

	var runs api.RunReader
	if cfg.DBURL != "" {
		pool, err := repo.NewPool(ctx, cfg.DBURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := repo.Migrate(ctx, pool); err != nil {
			return err
		}
		runs = repo.NewRecorder(pool)
		logger.Info("connected to database")
	} else {
		logger.Warn("DB_URL is not set, run history is unavailable")
	}

	handler := api.NewHandler(api.Config{
		Runs:   runs,
		Book:   book,
		Logger: logger,
	})
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	addr := fmt.Sprintf(":%d", cfg.APIPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if reload > 0 {
		go reloadBook(ctx, book, reload, logger)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	}
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("stopped")
	return nil
}

// reloadBook перечитывает адресную книгу, пока не отменён ctx:
// её пишут запуски run из других процессов.
func reloadBook(ctx context.Context, book *addressbook.Book, every time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := book.Reload(); err != nil {
				logger.Warn("failed to reload address book", "path", book.Path(), "error", err)
			}
		}
	}
}
