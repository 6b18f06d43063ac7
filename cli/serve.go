package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nixxel-company-limited/escp-print/config"
	"github.com/nixxel-company-limited/escp-print/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a raw TCP print server for the USB printer",
		Long: `Listen for raw print jobs (port 9100 style). Each connection is one job and
its bytes are sent to the printer unchanged. Jobs are printed one at a time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}

			dev, err := openDevice(cfg)
			if err != nil {
				return err
			}

			svr := server.New(dev, cfg.Address, cfg.FeederOptions()...)
			if err := svr.StartAsync(); err != nil {
				dev.Close()
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			return svr.Stop()
		},
	}

	cmd.Flags().String("address", "localhost:9100", "Address to listen on")
	return cmd
}
