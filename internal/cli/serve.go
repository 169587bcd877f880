package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/raysh454/phishguard/internal/app"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the background service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
				cfg.Server.ListenAddr = listen
			}
			if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
				cfg.DataDir = dir
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a := app.NewApplication(cfg, newLogger(cmd.OutOrStdout(), cfg))
			if err := a.Start(ctx); err != nil {
				return err
			}
			<-ctx.Done()
			return a.Shutdown(context.Background())
		},
	}
	cmd.Flags().String("listen", "", "Listen address (default 127.0.0.1:8787)")
	cmd.Flags().String("data-dir", "", "Directory for the activity database")
	return cmd
}
