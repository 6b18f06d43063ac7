package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nixxel-company-limited/escp-print/escp"
	"github.com/nixxel-company-limited/escp-print/logging"
	"github.com/nixxel-company-limited/escp-print/source"
	"github.com/nixxel-company-limited/escp-print/transfer"
)

type printOptions struct {
	header    bool
	title     string
	extension string
	toUSB     bool
}

func newPrintCmd() *cobra.Command {
	var opts printOptions

	cmd := &cobra.Command{
		Use:   "print [files...]",
		Short: "Print files or stdin with syntax highlighting",
		Long: `Print files, or stdin when no file is given, as ESC/P text. Source code in a
known language is printed with line numbers: keywords bold, comments italic
and strings underlined.`,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			out, closeOut, err := outputSink(cmd.Context(), cmd, opts.toUSB)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := closeOut(); err == nil {
					err = cerr
				}
			}()

			if len(args) == 0 {
				content, err := readInput(cmd.InOrStdin(), "stdin")
				if err != nil {
					return err
				}
				return printContent(out, source.HighlighterFor("", opts.extension), content)
			}

			for _, path := range args {
				if err := printFile(out, path, opts); err != nil {
					return err
				}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&opts.header, "header", "H", false, "Print a header with the file name and stats")
	flags.StringVarP(&opts.title, "title", "t", "", "Header title (defaults to the file name)")
	flags.StringVarP(&opts.extension, "extension", "e", "", "Language extension used when it cannot be taken from the file name")
	flags.BoolVarP(&opts.toUSB, "usb", "u", false, "Send to the USB printer instead of stdout")
	return cmd
}

func printFile(out io.Writer, path string, opts printOptions) error {
	log := logging.GetLogger("print").With().Str("file", path).Logger()

	if opts.header {
		if err := escp.HeaderForFile(path, opts.title).Render(out); err != nil {
			return err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return &transfer.SourceReadError{Source: path, Err: err}
	}

	h := source.HighlighterFor(path, opts.extension)
	if h != nil {
		log.Debug().Str("language", h.Name()).Msg("Highlighting")
	}
	return printContent(out, h, string(data))
}

// printContent renders content, highlighted when h is set, verbatim otherwise
func printContent(out io.Writer, h *source.Highlighter, content string) error {
	if h == nil {
		return escp.Render(out, escp.Fragments(escp.Fragment{Text: content}))
	}

	lines, err := h.Lines(content)
	if err != nil {
		return err
	}
	return escp.Render(out, source.HighlightFragments(lines))
}
