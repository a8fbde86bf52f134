package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/timecard-reconciler/internal/container"
	httpapi "github.com/garyjia/timecard-reconciler/internal/interfaces/http"
)

func newServeCommand(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *a.cfg
			if port > 0 {
				cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := container.NewContainer(&cfg, a.logger)
			if err != nil {
				return err
			}
			if err := c.Start(ctx); err != nil {
				return err
			}
			defer c.Close()

			svc := c.Services()
			server := httpapi.NewServer(httpapi.ServerConfig{
				Host:          cfg.Server.Host,
				Port:          cfg.Server.Port,
				ReadTimeout:   cfg.Server.ReadTimeout,
				WriteTimeout:  cfg.Server.WriteTimeout,
				MaxUploadSize: cfg.Server.MaxUploadSize,
				Persist:       cfg.Database.Enabled,
			}, svc.Timesheet, svc.Employee, func(ctx context.Context) (bool, any) {
				h := c.Health(ctx)
				return h.Overall, h.Components
			}, a.logger)

			a.logger.Info("Serving time-card API",
				zap.String("address", server.Address()),
				zap.Bool("persist", cfg.Database.Enabled),
				zap.String("allowlist_source", cfg.Allowlist.Source))
			return server.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override server.port")
	return cmd
}
