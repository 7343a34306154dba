package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"MarketPulse/internal/model"
	"MarketPulse/internal/notifier"
	"MarketPulse/internal/strategy"

	"github.com/spf13/cobra"
)

func analyzeCmd() *cobra.Command {
	var (
		q         model.Quote
		precision int32
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "analyze [symbol]",
		Short: "Analyze one quote given on the command line",
		Example: `  marketpulse analyze IBOV --price 125000 --change 1.5 --high 126000 --low 124000
  marketpulse analyze --price 5.20 --change -0.4 --high 5.25 --low 5.15 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				q.Symbol = args[0]
			}
			for _, v := range []struct {
				flag  string
				value float64
			}{
				{"price", q.Price}, {"high", q.DayHigh}, {"low", q.DayLow},
				{"volume", q.Volume}, {"avg-volume", q.AverageVolume},
			} {
				if math.IsNaN(v.value) || math.IsInf(v.value, 0) {
					return fmt.Errorf("invalid --%s: value must be finite", v.flag)
				}
			}
			result := strategy.Analyze(&q)
			if result == nil {
				return errors.New("change is not a finite number")
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			name := q.Symbol
			if name == "" {
				name = "quote"
			}
			fmt.Fprint(out, notifier.PlainText(notifier.FormatAnalysis(model.BoardEntry{
				Instrument: model.Instrument{Symbol: name, Name: name, Precision: precision},
				Quote:      q,
				Analysis:   result,
			})))
			return nil
		},
	}

	f := cmd.Flags()
	f.Float64Var(&q.Price, "price", 0, "Last price")
	f.Float64Var(&q.ChangePercent, "change", 0, "Percent change for the day, 2.5 means +2.5%")
	f.Float64Var(&q.DayHigh, "high", 0, "Day high")
	f.Float64Var(&q.DayLow, "low", 0, "Day low")
	f.Float64Var(&q.Volume, "volume", 0, "Traded volume")
	f.Float64Var(&q.AverageVolume, "avg-volume", 0, "Average volume baseline, 0 for none")
	f.Int32Var(&precision, "precision", 2, "Decimal places for prices")
	f.BoolVar(&asJSON, "json", false, "Print the analysis as JSON")
	cmd.MarkFlagRequired("price")
	cmd.MarkFlagRequired("change")
	return cmd
}
