package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhaobenny/codextop/internal/report"
)

var errNothingToMerge = errors.New("no valid usage data in the given files")

var (
	mergeExport    string
	mergeWithLocal bool
)

var mergeCmd = &cobra.Command{
	Use:   "merge <file>...",
	Short: "Merge exports from several machines into one report",
	Long: `Merge exports or data.json files into a single report. Files that cannot
be read or hold no usage data are skipped. The merged report is written to
data.json in the output directory and summarized with the current price table.`,
	Example: `  codextop merge laptop.json desktop.json.zst
  codextop merge --with-local laptop.json
  codextop merge --export team.json.zst a.json b.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVar(&mergeExport, "export", "", "Also write the merged report as an export to this file")
	mergeCmd.Flags().BoolVar(&mergeWithLocal, "with-local", false, "Include usage from the local session logs")
	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	s, err := resolveSettings(cfg, flags, cmd.Flags().Changed("days"))
	if err != nil {
		return err
	}

	var datasets []*report.Data
	if mergeWithLocal {
		summary, err := scan(s)
		if err != nil {
			return err
		}
		datasets = append(datasets, summary.Report(nil, s.sessionsRoot, time.Now()))
	}

	imported, skipped := importAll(args)
	if len(imported) == 0 {
		return errNothingToMerge
	}
	datasets = append(datasets, imported...)

	merged := report.Merge(datasets...)
	if len(merged.Daily.Labels) == 0 {
		return errNothingToMerge
	}

	table := s.priceTable()
	now := time.Now()
	merged.Pricing = report.PricingFrom(table)
	merged.Meta = &report.Meta{
		GeneratedAt: now.Format(report.GeneratedAtLayout),
		SourcePath:  strings.Join(args, ", "),
	}

	path := filepath.Join(s.outDir, report.DataFile)
	if err := report.WriteFile(path, merged); err != nil {
		return err
	}
	if mergeExport != "" {
		if err := report.ExportFile(mergeExport, merged, now); err != nil {
			return err
		}
	}

	w := cmd.OutOrStdout()
	if !flags.json {
		printMergeStatus(w, len(imported), skipped)
	}
	return present(w, merged, table)
}

// importAll reads every file, skipping the ones without usage data
func importAll(paths []string) (imported []*report.Data, skipped []string) {
	for _, path := range paths {
		d, err := report.ImportFile(path)
		if err != nil {
			slog.Warn("skipping import", "path", path, "error", err)
			skipped = append(skipped, path)
			continue
		}
		imported = append(imported, d)
	}
	return imported, skipped
}

func printMergeStatus(w io.Writer, merged int, skipped []string) {
	fmt.Fprintf(w, "Merged %d file(s)", merged)
	if len(skipped) > 0 {
		fmt.Fprintf(w, ", skipped %d: %s", len(skipped), strings.Join(skipped, ", "))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)
}
