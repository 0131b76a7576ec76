package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/zhaobenny/codextop/cli/internal/aggregator"
	"github.com/zhaobenny/codextop/cli/internal/config"
	"github.com/zhaobenny/codextop/internal/model"
	"github.com/zhaobenny/codextop/internal/parser"
	"github.com/zhaobenny/codextop/internal/pricing"
)

var errDaysNotPositive = errors.New("days must be positive")

// progressInterval throttles scan progress logging
const progressInterval = 2 * time.Second

// settings are the effective scan options once the config file and the
// command line flags have been merged
type settings struct {
	sessionsRoot string
	pricingFile  string
	outDir       string
	opts         aggregator.Options
	days         int
	debounce     time.Duration
}

// resolveSettings overlays flags on c. daysSet reports whether --days was
// given explicitly.
func resolveSettings(c *config.Config, f flagValues, daysSet bool) (*settings, error) {
	merged := *c
	if f.codexHome != "" {
		merged.CodexHome = f.codexHome
		merged.SessionsRoot = ""
	}
	if f.sessionsRoot != "" {
		merged.SessionsRoot = f.sessionsRoot
	}
	if f.timezone != "" {
		merged.Timezone = f.timezone
	}
	if f.pricingFile != "" {
		merged.PricingFile = f.pricingFile
	}
	if f.out != "" {
		merged.OutDir = f.out
	}
	if daysSet {
		if f.days <= 0 {
			return nil, errDaysNotPositive
		}
		merged.Days = f.days
	}
	if merged.Days < 0 {
		return nil, errDaysNotPositive
	}

	root, err := merged.SessionsDir()
	if err != nil {
		return nil, fmt.Errorf("cannot locate sessions: %w", err)
	}
	loc, err := merged.Location()
	if err != nil {
		return nil, err
	}

	s := &settings{
		sessionsRoot: root,
		pricingFile:  merged.PricingFile,
		outDir:       merged.Output(),
		opts:         aggregator.Options{Timezone: loc},
		days:         merged.Days,
		debounce:     merged.Debounce(),
	}
	if f.since != "" {
		if s.opts.Since, err = model.ParseDay(f.since, loc); err != nil {
			return nil, fmt.Errorf("invalid --since date %q, use YYYY-MM-DD", f.since)
		}
	}
	if f.until != "" {
		if s.opts.Until, err = model.ParseDay(f.until, loc); err != nil {
			return nil, fmt.Errorf("invalid --until date %q, use YYYY-MM-DD", f.until)
		}
	}
	if !s.opts.Since.IsZero() && !s.opts.Until.IsZero() && s.opts.Since.After(s.opts.Until) {
		return nil, aggregator.ErrInvalidRange
	}
	return s, nil
}

// priceTable loads the configured price table
func (s *settings) priceTable() *pricing.Table {
	return pricing.Load(s.pricingFile)
}

// scan folds every session log under the sessions root. With days set and no
// explicit range, a second pass keeps only the last days ending on the most
// recent active day.
func scan(s *settings) (*aggregator.Summary, error) {
	sources, err := parser.Sources(s.sessionsRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to list session logs: %w", err)
	}
	slog.Debug("found session logs", "root", s.sessionsRoot, "count", len(sources))

	agg, err := fold(sources, s.opts)
	if err != nil {
		return nil, err
	}

	if s.days > 0 && s.opts.Since.IsZero() && s.opts.Until.IsZero() {
		if last := agg.LastActiveDay(); last != "" {
			opts := lastDays(s.opts, last, s.days)
			slog.Debug("limiting to recent days", "since", opts.Since.Format(model.DayLayout), "days", s.days)
			if agg, err = fold(sources, opts); err != nil {
				return nil, err
			}
		}
	}
	return agg.Summary(), nil
}

// lastDays returns opts narrowed to the n days ending on lastDay
func lastDays(opts aggregator.Options, lastDay string, n int) aggregator.Options {
	end, err := model.ParseDay(lastDay, opts.Timezone)
	if err != nil {
		return opts
	}
	opts.Since = end.AddDate(0, 0, -(n - 1))
	return opts
}

func fold(sources []parser.Source, opts aggregator.Options) (*aggregator.Aggregator, error) {
	agg, err := aggregator.New(opts)
	if err != nil {
		return nil, err
	}

	progress := rate.Sometimes{Interval: progressInterval}
	for i, src := range sources {
		agg.AddSource(src.Path, src.Events)
		progress.Do(func() {
			slog.Info("scanning session logs", "done", i+1, "total", len(sources))
		})
	}
	return agg, nil
}
