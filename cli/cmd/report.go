package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhaobenny/codextop/cli/internal/output"
	"github.com/zhaobenny/codextop/internal/pricing"
	"github.com/zhaobenny/codextop/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Scan session logs, write data.json and print a usage summary",
	Example: `  codextop report
  codextop report --since 2025-01-01 --until 2025-01-31
  codextop report --days 7 --timezone Europe/Berlin
  codextop report --json > usage.json`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	s, err := resolveSettings(cfg, flags, cmd.Flags().Changed("days"))
	if err != nil {
		return err
	}

	table := s.priceTable()
	d, err := generate(s, table, time.Now())
	if err != nil {
		return err
	}
	return present(cmd.OutOrStdout(), d, table)
}

// generate scans the session logs and writes <out>/data.json
func generate(s *settings, table *pricing.Table, now time.Time) (*report.Data, error) {
	summary, err := scan(s)
	if err != nil {
		return nil, err
	}

	d := summary.Report(table, s.sessionsRoot, now)
	path := filepath.Join(s.outDir, report.DataFile)
	if err := report.WriteFile(path, d); err != nil {
		return nil, err
	}
	slog.Info("report written", "path", path, "days", d.Range.Days, "events", len(d.Events))
	return d, nil
}

// present prints d as JSON or as the terminal summary
func present(w io.Writer, d *report.Data, table *pricing.Table) error {
	if flags.json {
		if err := output.PrintJSON(w, d); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return nil
	}

	costs := pricing.ModelCosts(d.ModelTotals(), table)
	output.PrintReport(w, d, costs, output.TableOptions{ForceCompact: flags.compact})
	return nil
}
