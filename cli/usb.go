package cli

import (
	"github.com/spf13/cobra"

	"github.com/nixxel-company-limited/escp-print/logging"
)

func newUSBCmd() *cobra.Command {
	var binary, formFeed bool

	cmd := &cobra.Command{
		Use:   "usb",
		Short: "Send stdin to the USB printer",
		Long: `Send stdin to the USB printer line by line, or as raw binary with --binary
(useful for Epson escape data produced by Ghostscript).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			p, err := openPrinter(cmd)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := p.Close(); err == nil {
					err = cerr
				}
			}()

			log := logging.GetLogger("usb")
			done := logging.LogOperationStart(log, "print job")
			defer done()

			if binary {
				if formFeed {
					log.Warn().Msg("Ignoring use of '--form-feed' in binary mode")
				}
				return p.feeder.FeedBinary(cmd.Context(), cmd.InOrStdin())
			}
			return p.feeder.FeedLines(cmd.Context(), cmd.InOrStdin(), formFeed)
		},
	}

	cmd.Flags().BoolVarP(&binary, "binary", "b", false, "Read binary from stdin and reset the printer first")
	cmd.Flags().BoolVarP(&formFeed, "form-feed", "f", false, "Add a form-feed to the end of the output (unavailable with --binary)")
	return cmd
}
