package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nixxel-company-limited/escp-print/adapter"
	"github.com/nixxel-company-limited/escp-print/logging"
	"github.com/nixxel-company-limited/escp-print/transfer"
)

// Set at build time
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// NewRootCmd builds the escp command tree
func NewRootCmd() *cobra.Command {
	var verbosity int

	rootCmd := &cobra.Command{
		Use:   "escp",
		Short: "Print styled text on ESC/P dot-matrix printers",
		Long: `escp converts ANSI-coloured text and syntax-highlighted source code into
ESC/P control codes for dot-matrix printers, and delivers print jobs to a
USB printer.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLoggerTo(cmd.ErrOrStderr(), verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	flags.String("vendor", fmt.Sprintf("0x%04x", adapter.DefaultVendorID), "USB vendor id of the printer")
	flags.String("product", fmt.Sprintf("0x%04x", adapter.DefaultProductID), "USB product id of the printer")
	flags.String("serial", "", "Select the printer by serial number")
	flags.Int("interface", 0, "USB interface to claim (-1 to detect the printer interface)")
	flags.Int("endpoint", 1, "USB bulk OUT endpoint (-1 to use the first OUT endpoint)")
	flags.Duration("timeout", transfer.DefaultTimeout, "Timeout for each USB write")
	flags.Int("chunk-size", transfer.DefaultChunkSize, "Read size in binary mode")

	rootCmd.AddCommand(
		newANSICmd(),
		newPrintCmd(),
		newUSBCmd(),
		newServeCmd(),
		newDevicesCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

// Execute runs the command line
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// Describe names the operation that failed, for the top-level error report
func Describe(err error) string {
	var readErr *transfer.SourceReadError
	var transferErr *transfer.TransferError
	switch {
	case errors.As(err, &readErr):
		return "Unable to read input"
	case errors.As(err, &transferErr):
		return "Unable to write to printer"
	default:
		return "Command failed"
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "escp version %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", date)
		},
	}
}
