// cmd/rates.go
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/govad/internal/vad"
)

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "List supported sample rates, frame lengths and modes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()

		header := []string{"RATE"}
		for _, d := range vad.FrameDurations() {
			header = append(header, d.String())
		}
		fmt.Fprintln(out, strings.Join(header, "\t"))

		for _, rate := range vad.SupportedRates() {
			row := []string{fmt.Sprint(rate.Hz())}
			for _, n := range vad.FrameLengths(rate) {
				row = append(row, fmt.Sprint(n))
			}
			fmt.Fprintln(out, strings.Join(row, "\t"))
		}

		fmt.Fprintln(out)
		fmt.Fprintln(out, "MODE\tNAME")
		for m := vad.ModeQuality; m <= vad.ModeVeryAggressive; m++ {
			fmt.Fprintf(out, "%d\t%s\n", m.Code(), m)
		}
		return nil
	},
}
