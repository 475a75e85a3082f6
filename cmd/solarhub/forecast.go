package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/awaistahir/solarhub/internal/engine"
	"github.com/awaistahir/solarhub/internal/scenario"
	"github.com/spf13/cobra"
)

func simulateCmd() *cobra.Command {
	var path string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Forecast a day described by a YAML scenario file, offline",
		Example: `  solarhub simulate --scenario examples/reference-day.yaml
  solarhub simulate -s day.yaml --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := scenario.Load(path)
			if err != nil {
				return fmt.Errorf("loading scenario: %w", err)
			}

			forecast := sc.Forecast()
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), forecast)
			}

			if sc.Name != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Scenario: %s\n\n", sc.Name)
			}
			return printForecast(cmd.OutOrStdout(), forecast)
		},
	}

	cmd.Flags().StringVarP(&path, "scenario", "s", "", "Scenario file (required)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.MarkFlagRequired("scenario")

	return cmd
}

// printForecast renders the hourly records and daily totals as a table
func printForecast(w io.Writer, f engine.DailyForecast) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "HOUR\tSOLAR\tLOAD\tBATTERY\tSOC\tGRID\tEXCESS\t")
	for _, h := range f.Hours {
		fmt.Fprintf(tw, "%02d:00\t%.2f\t%.2f\t%+.2f\t%.1f%%\t%.2f\t%.2f\t\n",
			h.Hour, h.ProductionKWh, h.ConsumptionKWh, h.BatteryKWh, h.BatterySoC, h.GridKWh, h.ExcessKWh)
	}
	fmt.Fprintf(tw, "TOTAL\t%.2f\t%.2f\t\t%.1f%%\t%.2f\t%.2f\t\n",
		f.TotalProductionKWh, f.TotalConsumptionKWh, f.FinalSoC, f.TotalGridKWh, f.TotalExcessKWh)
	return tw.Flush()
}
