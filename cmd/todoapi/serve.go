package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Kerhoff/todoapi/internal/api"
	"github.com/Kerhoff/todoapi/internal/config"
	"github.com/Kerhoff/todoapi/internal/handlers"
	"github.com/Kerhoff/todoapi/internal/metrics"
	"github.com/Kerhoff/todoapi/internal/service"
	"github.com/Kerhoff/todoapi/internal/telegram"
)

func newServeCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the metrics listener and the optional Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, l, err := load()
			if err != nil {
				return err
			}
			l.Info("Starting todoapi...")

			// Database
			db, err := config.NewDatabase(cfg.DatabaseDriver, cfg.DatabaseURL, l)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			if cfg.AutoMigrate {
				if err := db.Migrate(); err != nil {
					return err
				}
			}

			m := metrics.New()
			svc := service.New(newTodoRepository(db), l, service.WithMetrics(m))

			// Context for graceful shutdown
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			go func() {
				select {
				case <-sigChan:
					l.Info("Received shutdown signal...")
					cancel()
				case <-ctx.Done():
				}
			}()

			// Telegram bot
			if cfg.BotEnabled() {
				bot, err := telegram.NewBot(cfg.TelegramToken, l)
				if err != nil {
					return fmt.Errorf("failed to create Telegram bot: %w", err)
				}
				handlers.Register(bot, svc, l)

				go func() {
					if err := bot.Start(ctx); err != nil {
						l.Errorf("Bot error: %v", err)
					}
				}()
			} else {
				l.Info("TELEGRAM_TOKEN not set, Telegram bot disabled")
			}

			// Metrics
			metricsMux := http.NewServeMux()
			metricsMux.Handle("GET /metrics", m.Handler())
			metricsServer := &http.Server{Addr: ":" + cfg.PrometheusPort, Handler: metricsMux}

			go func() {
				l.Infof("Metrics listening on :%s", cfg.PrometheusPort)
				if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					l.Errorf("Metrics server error: %v", err)
				}
			}()

			// API
			apiServer := api.NewServer(svc, l, m)
			httpServer := &http.Server{
				Addr:    ":" + cfg.Port,
				Handler: apiServer.Handler(),
			}

			serveErr := make(chan error, 1)
			go func() {
				l.Infof("HTTP server listening on :%s", cfg.Port)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
					cancel()
				}
			}()

			l.Info("todoapi started successfully")

			<-ctx.Done()

			l.Info("Shutting down HTTP server...")
			apiServer.Drain()

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer shutdownCancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				l.Errorf("HTTP server shutdown error: %v", err)
			}
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				l.Errorf("Metrics server shutdown error: %v", err)
			}

			l.Info("todoapi stopped")

			select {
			case err := <-serveErr:
				return fmt.Errorf("HTTP server error: %w", err)
			default:
				return nil
			}
		},
	}
}
