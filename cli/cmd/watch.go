package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"

	"github.com/zhaobenny/codextop/cli/internal/watch"
	"github.com/zhaobenny/codextop/internal/report"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [install|start|stop|uninstall|status]",
	Short: "Regenerate data.json whenever session logs change",
	Long: `Watch the sessions directory and regenerate data.json once changes have
settled. With an action, control the background service instead.

Actions:
  install     Install and start the watcher as a background service
  start       Start the background service
  stop        Stop the background service
  uninstall   Remove the background service
  status      Show service status`,
	Example: `  codextop watch
  codextop watch --out ~/codex-report install
  codextop watch status`,
	ValidArgs: watch.Actions,
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	RunE:      runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0, "Quiet period before regenerating (default from config, 2s)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	s, err := resolveSettings(cfg, flags, cmd.Flags().Changed("days"))
	if err != nil {
		return err
	}
	if watchDebounce > 0 {
		s.debounce = watchDebounce
	}

	out := cmd.OutOrStdout()
	prg := watch.NewProgram(func(ctx context.Context) error {
		return watchLoop(ctx, s, out)
	})

	svcArgs, err := serviceArgs(s)
	if err != nil {
		return err
	}
	svc, err := service.New(prg, watch.ServiceConfig(svcArgs))
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	if len(args) == 1 {
		return watch.Control(svc, args[0], out)
	}

	if service.Interactive() {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return watchLoop(ctx, s, out)
	}

	// Started by the service manager
	if logger, err := svc.Logger(nil); err == nil {
		prg.SetLogger(logger)
	}
	return svc.Run()
}

// serviceArgs are the arguments the service manager starts the watcher with.
// Paths are made absolute since services do not run in the current directory.
func serviceArgs(s *settings) ([]string, error) {
	root, err := filepath.Abs(s.sessionsRoot)
	if err != nil {
		return nil, err
	}
	out, err := filepath.Abs(s.outDir)
	if err != nil {
		return nil, err
	}

	args := []string{"watch", "--sessions-root", root, "--out", out, "--debounce", s.debounce.String()}
	if s.pricingFile != "" {
		pricingFile, err := filepath.Abs(s.pricingFile)
		if err != nil {
			return nil, err
		}
		args = append(args, "--pricing-file", pricingFile)
	}
	if loc := s.opts.Timezone; loc != nil && loc != time.Local {
		args = append(args, "--timezone", loc.String())
	}
	if s.days > 0 {
		args = append(args, "--days", fmt.Sprint(s.days))
	}
	return args, nil
}

// watchLoop writes the report once, then again after every settled burst of
// session log changes until ctx is cancelled
func watchLoop(ctx context.Context, s *settings, out io.Writer) error {
	table := s.priceTable()
	regenerate := func(changed []string) {
		start := time.Now()
		d, err := generate(s, table, start)
		if err != nil {
			slog.Error("failed to regenerate report", "error", err)
			return
		}
		slog.Info("report regenerated",
			"changed", len(changed),
			"total_tokens", d.Totals().TotalTokens,
			"duration", time.Since(start))
	}

	regenerate(nil)

	w, err := watch.New(s.sessionsRoot, watch.NewDebouncer(s.debounce, regenerate))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Watching %s, writing %s\n", s.sessionsRoot, filepath.Join(s.outDir, report.DataFile))
	return w.Run(ctx)
}
