package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/zhaobenny/codextop/cli/internal/config"
	"github.com/zhaobenny/codextop/cli/internal/logging"
)

var version = "0.3.0"

// flagValues holds the scan flags shared by every command
type flagValues struct {
	codexHome    string
	sessionsRoot string
	since        string
	until        string
	days         int
	timezone     string
	pricingFile  string
	out          string
	json         bool
	compact      bool
}

var (
	flags     flagValues
	cfg       *config.Config
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "codextop",
	Short: "Codex token usage report",
	Long: `codextop scans Codex session logs and reports token usage by day,
hour and model, with estimated costs from a configurable price table.

Running codextop without a command is the same as 'codextop report'.`,
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
	RunE: runReport,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.codexHome, "codex-home", "", "Path to the .codex directory")
	pf.StringVar(&flags.sessionsRoot, "sessions-root", "", "Path to the sessions directory")
	pf.StringVar(&flags.since, "since", "", "Start date YYYY-MM-DD")
	pf.StringVar(&flags.until, "until", "", "End date YYYY-MM-DD")
	pf.IntVar(&flags.days, "days", 0, "Limit to the last N active days when no dates are set")
	pf.StringVar(&flags.timezone, "timezone", "", "Timezone for day and hour buckets (e.g. America/New_York)")
	pf.StringVar(&flags.pricingFile, "pricing-file", "", "Path to a JSON or YAML price table")
	pf.StringVarP(&flags.out, "out", "o", "", "Output directory for data.json")
	pf.BoolVar(&flags.json, "json", false, "Print the report data as JSON")
	pf.BoolVarP(&flags.compact, "compact", "c", false, "Force compact table output")
}

// setup loads the config file and installs the logger
func setup(cmd *cobra.Command, args []string) error {
	loaded, loadErr := config.Load()
	if loadErr != nil {
		// The config command must still run so a broken file can be rewritten
		if cmd != configCmd {
			return fmt.Errorf("failed to load config: %w", loadErr)
		}
		loaded = &config.Config{}
	}
	cfg = loaded

	closer, err := logging.Setup(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	logCloser = closer
	if loadErr != nil {
		slog.Warn("ignoring unreadable config, starting from defaults", "error", loadErr)
		return nil
	}
	slog.Debug("config loaded", "command", cmd.Name())
	return nil
}
