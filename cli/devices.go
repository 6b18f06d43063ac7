package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nixxel-company-limited/escp-print/adapter"
)

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List attached USB printers",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			printers := adapter.ListPrinters()
			if len(printers) == 0 {
				fmt.Fprintln(out, "No USB printers found")
				return
			}
			for _, p := range printers {
				fmt.Fprintf(out, "Bus %03d Device %03d: ID %04x:%04x %s %s", p.Bus, p.Address, p.VendorID, p.ProductID, p.Manufacturer, p.Product)
				if p.Serial != "" {
					fmt.Fprintf(out, " (serial %s)", p.Serial)
				}
				fmt.Fprintln(out)
			}
		},
	}
}
