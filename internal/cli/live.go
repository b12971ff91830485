package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/meltforce/liftlog/internal/live"
)

var liveListen string

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Serve the live workout API",
	Long: `Serve the live workout HTTP API on this device.

The workout is autosaved while it runs and flushed on shutdown, so it can be
resumed after a restart with POST /api/v1/workout/resume.

Examples:
  liftlog live                        # listen on device.listen
  liftlog live --listen 127.0.0.1:9000`,
	RunE: runLive,
}

func init() {
	rootCmd.AddCommand(liveCmd)
	liveCmd.Flags().StringVar(&liveListen, "listen", "", "listen address (overrides device.listen)")
}

func runLive(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx, os.Stdout)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	addr := a.cfg.Device.Listen
	if liveListen != "" {
		addr = liveListen
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	httpSrv := &http.Server{Handler: live.NewServer(a.host, a.log)}
	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	a.log.Info("live workout API listening", "addr", listener.Addr().String(), "version", Version)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		a.log.Info("shutting down", "signal", sig)
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("shutdown error", "error", err)
	}
	return nil
}
