package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/CageChen/pathquery/internal/config"
	"github.com/CageChen/pathquery/internal/handler"
	"github.com/CageChen/pathquery/internal/logging"
	"github.com/CageChen/pathquery/internal/watcher"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand(opts *options) *cobra.Command {
	var (
		port    int
		noWatch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve queries over the configured roots via HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.cfg
			if port != 0 {
				cfg.Port = port
			}
			if noWatch {
				cfg.Watch = false
			}

			ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
			if err != nil {
				return err
			}
			return serve(cmd.Context(), ln, cfg, logging.New("server", opts.logger.GetLevel().String()))
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP server port (default from config)")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "disable change notifications")
	return cmd
}

// serve runs the API on ln until ctx is cancelled.
func serve(ctx context.Context, ln net.Listener, cfg *config.Config, logger *log.Logger) error {
	logger.Info("serving roots", "count", len(cfg.Roots), "config", cfg.GetConfigFilePath())
	for i, r := range cfg.Roots {
		if r.GitRef != "" {
			logger.Info("root", "index", i, "alias", r.Alias, "path", r.Path, "git_ref", r.GitRef)
		} else {
			logger.Info("root", "index", i, "alias", r.Alias, "path", r.Path)
		}
	}

	queryHandler := handler.NewQueryHandler(cfg, logger)
	wsHandler := handler.NewWSHandler()

	if cfg.Watch {
		w, err := watcher.New(cfg, logging.New("watcher", logger.GetLevel().String()))
		if err != nil {
			logger.Warn("failed to create watcher", "error", err)
		} else {
			w.OnChange(wsHandler.OnPathChange)
			queryHandler.SetRootWatcher(w)
			if err := w.Start(); err != nil {
				logger.Warn("failed to start watcher", "error", err)
			}
			defer func() { _ = w.Stop() }()
			logger.Info("watching for changes", "suffixes", cfg.Suffixes, "ancestor", cfg.Ancestor)
		}
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Handler:           handler.NewRouter(queryHandler, wsHandler, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger.Info("server started", "address", ln.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("server stopped")
	return nil
}
