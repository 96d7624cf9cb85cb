package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/procurehq/vendorscout/internal/api"
	"github.com/procurehq/vendorscout/internal/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the discovery HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	metricsSrv := metrics.Start(a.cfg.Server.MetricsPort, a.logger)

	srv := api.NewServer(a.service, a.logger)
	port := 8080
	if _, p, err := net.SplitHostPort(a.cfg.Server.Addr); err == nil {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			port = n
		}
	}
	srv.Start(port)

	<-ctx.Done()
	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		a.logger.Warn("api shutdown", "err", err)
	}
	if err := metricsSrv.Stop(shutdownCtx); err != nil {
		a.logger.Warn("metrics shutdown", "err", err)
	}
	return nil
}
