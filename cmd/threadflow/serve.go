package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/threadflow/threadflow/internal/server"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts the chat API, the Slack events endpoint, health, and
Prometheus metrics on the configured address.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg, slog.LevelDebug)
		slog.SetDefault(logger)

		a, err := buildApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		healthCtx, cancelHealth := context.WithTimeout(cmd.Context(), 10*time.Second)
		if a.board.Healthy(healthCtx) {
			logger.Info("board api reachable")
		} else {
			logger.Warn("board api unreachable, continuing; fetches will retry")
		}
		cancelHealth()

		srvOpts := []server.Option{
			server.WithAddr(cfg.Server.Addr),
			server.WithBotUserID(cfg.Notify.BotUserID),
			server.WithLogger(logger),
		}
		if a.notifier != nil {
			srvOpts = append(srvOpts, server.WithNotifier(a.notifier))
		}
		srv, err := server.New(a.supervisor, srvOpts...)
		if err != nil {
			return err
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case sig := <-stop:
			logger.Info("shutting down", "signal", sig.String())
		}

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return err
		}
		return <-errCh
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
