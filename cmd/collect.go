package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/errbeacon/errbeacon/internal/collector"
	"github.com/errbeacon/errbeacon/internal/config"
	"github.com/errbeacon/errbeacon/internal/logging"
)

// newCollectCmd creates the 'collect' subcommand, which runs the collector
// HTTP server until interrupted.
func newCollectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collect",
		Short: "Run the payload collector",
		Long: `Starts the HTTP collector that development sessions post captured
failures to. Payloads are logged and rendered to this terminal.`,
		RunE: runCollectCommand,
	}
}

func runCollectCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	srv, err := collector.NewServer(collector.Config{
		Path:        cfg.Collector.Path,
		Development: cfg.Collector.Development,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("build collector: %w", err)
	}

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("collector listening", zap.String("addr", addr), zap.String("path", cfg.Collector.Path))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve collector: %w", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown collector: %w", err)
		}
	}
	return nil
}
