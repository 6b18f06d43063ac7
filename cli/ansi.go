package cli

import (
	"github.com/spf13/cobra"

	"github.com/nixxel-company-limited/escp-print/escp"
	"github.com/nixxel-company-limited/escp-print/source"
)

func newANSICmd() *cobra.Command {
	var toUSB bool

	cmd := &cobra.Command{
		Use:   "ansi",
		Short: "Convert ANSI-styled text from stdin to ESC/P",
		Long: `Read ANSI-coloured text from stdin and write it as ESC/P text. Bold, italic
and underline are kept; colours and other escape sequences are dropped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			content, err := readInput(cmd.InOrStdin(), "stdin")
			if err != nil {
				return err
			}
			blocks := source.ParseANSI(content)

			out, closeOut, err := outputSink(cmd.Context(), cmd, toUSB)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := closeOut(); err == nil {
					err = cerr
				}
			}()

			return escp.Render(out, source.ANSIFragments(blocks))
		},
	}

	cmd.Flags().BoolVarP(&toUSB, "usb", "u", false, "Send to the USB printer instead of stdout")
	return cmd
}
