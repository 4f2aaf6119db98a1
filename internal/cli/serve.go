package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ecopool-network/ecopool/internal/api"
	"github.com/ecopool-network/ecopool/internal/infra/observability"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ecopool HTTP API server",
	Long: `Run the HTTP API: the webhook entry point for billing contribution
events plus read-only pool and execution views. Address and metrics come
from the [api] section of config.toml.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	rt, err := openRuntime(metrics)
	if err != nil {
		return err
	}
	defer rt.close()

	srv := api.NewServer(rt.ledger, rt.executions, Version)
	if rt.cfg.API.Metrics {
		srv.EnableMetrics()
	}
	if rt.signer.IsConfigured() {
		srv.SetSignerAddress(rt.signer.Address())
	}

	addr := fmt.Sprintf("%s:%d", rt.cfg.API.Host, rt.cfg.API.Port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[serve] listening on %s", addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case sig := <-stop:
		log.Printf("[serve] received %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}
