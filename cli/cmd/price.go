package cmd

import (
	"slices"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/zhaobenny/codextop/cli/internal/output"
	"github.com/zhaobenny/codextop/internal/pricing"
)

var priceCmd = &cobra.Command{
	Use:   "price [model]...",
	Short: "Show the price each model resolves to",
	Long: `Show the price record each model name resolves to, after aliases, prefix
matches and family fallbacks. Without arguments every priced model is listed.`,
	Example: `  codextop price gpt-5.1-codex-max "gpt-5 (beta):high"
  codextop price --pricing-file prices.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := resolveSettings(cfg, flags, cmd.Flags().Changed("days"))
		if err != nil {
			return err
		}

		table := s.priceTable()
		rows := priceRows(table, args)
		w := cmd.OutOrStdout()
		if flags.json {
			return output.PrintJSON(w, rows)
		}
		output.PrintPrices(w, rows, table.Meta)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(priceCmd)
}

// priceRows resolves names against table, or lists the whole table when
// names is empty
func priceRows(table *pricing.Table, names []string) []output.PriceRow {
	if len(names) == 0 {
		names = lo.Keys(table.Prices)
		slices.Sort(names)
	}

	rows := make([]output.PriceRow, 0, len(names))
	for _, name := range names {
		row := output.PriceRow{Model: name}
		if key, ok := table.ResolveKey(name); ok {
			row.Key = key
			row.Price = table.Prices[key]
			row.Priced = true
		}
		rows = append(rows, row)
	}
	return rows
}
