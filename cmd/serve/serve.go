// Package serve runs the HTTP API
package serve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"fjacquet/recurring-ledger/cmd/root"
	"fjacquet/recurring-ledger/internal/api"
	"fjacquet/recurring-ledger/internal/container"
	"fjacquet/recurring-ledger/internal/logging"

	"github.com/spf13/cobra"
)

var addr string

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the recurring API over HTTP",
	Long: `Serve the recurring rules, occurrences and approvals as a JSON API.
Requests identify their user with the X-User-ID header.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return root.WithContainer(func(c *container.Container) error {
			if addr != "" {
				c.GetConfig().Server.Addr = addr
			}
			ln, err := net.Listen("tcp", c.GetConfig().Server.Addr)
			if err != nil {
				return fmt.Errorf("failed to listen: %w", err)
			}
			return Run(ctx, c, ln)
		})
	},
}

func init() {
	Cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
}

// Run serves the API on ln until ctx is cancelled, then drains in-flight
// requests for at most server.shutdown_timeout_seconds.
func Run(ctx context.Context, c *container.Container, ln net.Listener) error {
	log := c.GetLogger()
	server := &http.Server{
		Handler:           api.NewRouter(c.GetService(), c.GetClock(), log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting", logging.Field{Key: logging.FieldAddr, Value: ln.Addr().String()})
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	timeout := time.Duration(c.GetConfig().Server.ShutdownTimeoutSeconds) * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("Server exited")
	return nil
}
