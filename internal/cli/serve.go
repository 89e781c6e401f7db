package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"pension-forecast/internal/handler"
)

func serveCmd(opts *rootOptions) *cobra.Command {
	var address string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the projection API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()
			if address == "" {
				address = a.cfg.Server.Address
			}

			var export handler.Exporter
			if a.usage != nil {
				export = a.usage
			}
			h := handler.New(a.engine, export, a.logger)

			scheduler, err := scheduleReload(a)
			if err != nil {
				return err
			}
			if scheduler != nil {
				scheduler.Start()
				defer scheduler.Stop()
			}

			srv := &fasthttp.Server{
				Handler:     h.Handle,
				Name:        "pension-forecast",
				ReadTimeout: a.cfg.Server.ReadTimeout,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() {
				a.logger.Info("pension engine listening", zap.String("op", "serve"), zap.String("address", address))
				errc <- srv.ListenAndServe(address)
			}()

			select {
			case err := <-errc:
				return fmt.Errorf("server failed: %w", err)
			case <-ctx.Done():
				a.logger.Info("shutting down", zap.String("op", "serve"))
				return srv.Shutdown()
			}
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "listen address (overrides server.address)")
	return cmd
}

// scheduleReload registers the table reload job; nil when no schedule is set.
func scheduleReload(a *app) (*cron.Cron, error) {
	spec := a.cfg.Tables.ReloadSchedule
	if spec == "" {
		return nil, nil
	}
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		report := a.engine.Reload()
		a.logger.Info("scheduled table reload",
			zap.String("op", "serve.reload"),
			zap.String("loaded_at", report.LoadedAt),
			zap.Int("changes", len(report.Changes)),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid tables.reload_schedule %q: %w", spec, err)
	}
	return c, nil
}

