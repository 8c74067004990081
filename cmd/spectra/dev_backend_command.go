package main

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

	"github.com/himanishpuri/spectra/internal/testbackend"
	"github.com/himanishpuri/spectra/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func newDevBackendCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:         "dev-backend",
		Short:       "Serve a scripted recognition backend for local testing",
		Hidden:      true,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", addr, err)
			}
			return serveDevBackend(sigCtx, cmd, ln)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:5000", "Address to listen on")
	return cmd
}

func serveDevBackend(ctx context.Context, cmd *cobra.Command, ln net.Listener) error {
	log := logger.GetLogger().WithPrefix("dev-backend")
	backend := testbackend.New(testbackend.DemoScript())
	backend.SetLogger(log)

	srv := &http.Server{
		Handler:           backend.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	log.Infof("Serving scripted backend on http://%s", ln.Addr())
	fmt.Fprintf(cmd.OutOrStdout(), "backend_url = \"http://%s\"\n", ln.Addr())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Infof("Shutdown signal received, draining connections")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Infof("Server stopped, handled %d submit(s) and %d poll(s)", backend.Submits(), backend.Polls())
	return nil
}
