package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhaobenny/codextop/internal/report"
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Scan session logs and write a portable export",
	Long: `Scan session logs and write the report data wrapped in a versioned
envelope, ready to be merged on another machine. Files ending in .zst are
compressed with zstd.`,
	Example: `  codextop export laptop.json
  codextop export --days 30 desktop.json.zst`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := resolveSettings(cfg, flags, cmd.Flags().Changed("days"))
		if err != nil {
			return err
		}

		summary, err := scan(s)
		if err != nil {
			return err
		}

		now := time.Now()
		d := summary.Report(s.priceTable(), s.sessionsRoot, now)
		if err := report.ExportFile(args[0], d, now); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d days (%s to %s) to %s\n",
			d.Range.Days, d.Range.Start, d.Range.End, args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
