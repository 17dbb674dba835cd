package main

import (
	"context"
	"time"

	"jpltour/pkg/handlers"
	"jpltour/pkg/logger"
	"jpltour/pkg/notify"
	"jpltour/pkg/scheduler"
	"jpltour/pkg/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newWatchCmd(o *options) *cobra.Command {
	var (
		spec   string
		listen string
		now    bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run on a cron schedule until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.load(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()
			if cmd.Flags().Changed("cron") {
				cfg.Scheduler.Cron = spec
			}
			if cmd.Flags().Changed("listen") {
				cfg.Server.Listen = listen
			}

			sender, err := notify.NewSender(cfg.Notify)
			if err != nil {
				return err
			}
			ctrl, store, closeHistory := newController(cfg, "cron")
			defer closeHistory()

			ctx, cancel := signalContext(cmd.Context(), ctrl)
			defer cancel()

			w, err := scheduler.NewWatcher(ctx, "jpl-tours", cfg.Scheduler.Cron, func(ctx context.Context, runID string) error {
				res, err := ctrl.Run(ctx)
				deliver(ctx, sender, res)
				return err
			})
			if err != nil {
				return err
			}

			var srv *server.HTTPServer
			if cfg.Server.Listen != "" {
				var runs handlers.RunLister
				if store != nil {
					runs = store
				}
				srv = server.NewHTTPServer(cfg.Server, handlers.NewHandlerService(cfg, w, runs, Version))
				go func() {
					if err := srv.Start(); err != nil {
						logger.Error("Status API stopped", zap.Error(err))
					}
				}()
			}

			if now {
				go w.RunNow()
			}
			if err := w.Start(); err != nil {
				return err
			}

			shutdownCtx, stop := context.WithTimeout(context.Background(), 30*time.Second)
			defer stop()
			if srv != nil {
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Warn("Status API did not stop cleanly", zap.Error(err))
				}
			}
			if err := w.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Watcher did not stop cleanly", zap.Error(err))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&spec, "cron", "", "cron expression (default from config, */15 * * * *)")
	cmd.Flags().StringVar(&listen, "listen", "", "serve the status API on host:port")
	cmd.Flags().BoolVar(&now, "now", false, "run once immediately")
	return cmd
}
