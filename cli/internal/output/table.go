package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/zhaobenny/codextop/cli/internal/aggregator"
	"github.com/zhaobenny/codextop/internal/model"
	"github.com/zhaobenny/codextop/internal/pricing"
	"github.com/zhaobenny/codextop/internal/report"
)

const (
	compactThreshold = 100 // Terminal width below which compact mode kicks in
	defaultWidth     = 120
	dateWidth        = 10
)

// TableOptions controls table display behavior
type TableOptions struct {
	ForceCompact bool
	Width        int // 0 detects the terminal width
}

func (o TableOptions) compact() bool {
	if o.ForceCompact {
		return true
	}
	width := o.Width
	if width <= 0 {
		width = terminalWidth()
	}
	return width < compactThreshold
}

// FormatNumber formats a number with thousand separators
func FormatNumber(n int64) string {
	str := strconv.FormatInt(n, 10)
	negative := n < 0
	if negative {
		str = str[1:]
	}

	var b strings.Builder
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}

	if negative {
		return "-" + b.String()
	}
	return b.String()
}

// FormatShort abbreviates large counts: 1.5K, 2M, 3.2B
func FormatShort(n int64) string {
	abs := n
	if abs < 0 {
		abs = -abs
	}
	scaled := func(div float64, suffix string) string {
		s := strconv.FormatFloat(float64(n)/div, 'f', 1, 64)
		s = strings.TrimSuffix(s, ".0")
		return s + suffix
	}
	switch {
	case abs >= 1_000_000_000:
		return scaled(1e9, "B")
	case abs >= 1_000_000:
		return scaled(1e6, "M")
	case abs >= 1_000:
		return scaled(1e3, "K")
	default:
		return FormatNumber(n)
	}
}

// FormatPercent renders a ratio as a percentage with one decimal
func FormatPercent(ratio float64) string {
	return strconv.FormatFloat(ratio*100, 'f', 1, 64) + "%"
}

// modelRow is one line of the per-model table
type modelRow struct {
	name  string
	usage model.Usage
	cost  string
}

func modelRows(models map[string]model.Usage, costs pricing.Costs) []modelRow {
	rows := make([]modelRow, 0, len(models))
	for _, name := range lo.Keys(models) {
		cost, ok := costs.PerModel[name]
		rows = append(rows, modelRow{
			name:  name,
			usage: models[name],
			cost:  pricing.FormatCost(cost, ok),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].usage.TotalTokens != rows[j].usage.TotalTokens {
			return rows[i].usage.TotalTokens > rows[j].usage.TotalTokens
		}
		return rows[i].name < rows[j].name
	})
	return rows
}

// PrintReport prints the terminal summary of a report
func PrintReport(w io.Writer, d *report.Data, costs pricing.Costs, opts TableOptions) {
	if len(d.Daily.Labels) == 0 {
		fmt.Fprintln(w, "No usage data found.")
		return
	}

	compact := opts.compact()
	printOverview(w, d, costs)
	printDaily(w, d, compact)
	printModels(w, d.ModelTotals(), costs, compact)
	printTopEvents(w, d.Events)

	if compact {
		fmt.Fprintln(w, "(Compact mode - expand terminal for full view)")
		fmt.Fprintln(w)
	}
}

func printOverview(w io.Writer, d *report.Data, costs pricing.Costs) {
	totals := d.Totals()
	sessions := int64(len(d.SessionSpans))
	active := int64(d.ActiveDays())

	var cacheRate, perDay, perSession float64
	if totals.InputTokens > 0 {
		cacheRate = float64(totals.CachedInputTokens) / float64(totals.InputTokens)
	}
	if active > 0 {
		perDay = float64(totals.TotalTokens) / float64(active)
	}
	if sessions > 0 {
		perSession = float64(totals.TotalTokens) / float64(sessions)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Range      %s to %s (%d days)\n", d.Range.Start, d.Range.End, d.Range.Days)
	fmt.Fprintf(w, "Total      %s\n", FormatShort(totals.TotalTokens))
	fmt.Fprintf(w, "Input      %s  |  Output %s\n", FormatShort(totals.InputTokens), FormatShort(totals.OutputTokens))
	fmt.Fprintf(w, "Reasoning  %s  |  Cached %s  |  Cache rate %s\n",
		FormatShort(totals.ReasoningOutputTokens), FormatShort(totals.CachedInputTokens), FormatPercent(cacheRate))
	fmt.Fprintf(w, "Sessions   %s  |  Active days %s\n", FormatShort(sessions), FormatShort(active))
	fmt.Fprintf(w, "Per day    %s  |  Per session %s\n",
		FormatShort(int64(perDay+0.5)), FormatShort(int64(perSession+0.5)))

	cost := costs.TotalString()
	if costs.Partial() {
		cost += fmt.Sprintf(" (excludes unpriced: %s)", strings.Join(costs.Unpriced, ", "))
	}
	fmt.Fprintf(w, "Est. cost  %s\n", cost)
	fmt.Fprintln(w)
}

func printDaily(w io.Writer, d *report.Data, compact bool) {
	if compact {
		fmt.Fprintf(w, "%-*s  %12s  %12s  %12s\n", dateWidth, "Date", "Input", "Output", "Total")
		fmt.Fprintln(w, strings.Repeat("─", dateWidth+2+12+2+12+2+12))
		for i, day := range d.Daily.Labels {
			u := d.Daily.At(i)
			fmt.Fprintf(w, "%-*s  %12s  %12s  %12s\n", dateWidth, day,
				FormatNumber(u.InputTokens), FormatNumber(u.OutputTokens), FormatNumber(u.TotalTokens))
		}
	} else {
		fmt.Fprintf(w, "%-*s  %14s  %14s  %14s  %14s  %14s\n",
			dateWidth, "Date", "Input", "Cached", "Output", "Reasoning", "Total")
		fmt.Fprintln(w, strings.Repeat("─", dateWidth+5*(2+14)))
		for i, day := range d.Daily.Labels {
			u := d.Daily.At(i)
			fmt.Fprintf(w, "%-*s  %14s  %14s  %14s  %14s  %14s\n", dateWidth, day,
				FormatNumber(u.InputTokens),
				FormatNumber(u.CachedInputTokens),
				FormatNumber(u.OutputTokens),
				FormatNumber(u.ReasoningOutputTokens),
				FormatNumber(u.TotalTokens))
		}
	}
	fmt.Fprintln(w)
}

func printModels(w io.Writer, models map[string]model.Usage, costs pricing.Costs, compact bool) {
	rows := modelRows(models, costs)
	if len(rows) == 0 {
		return
	}

	keyWidth := len("Model")
	for _, r := range rows {
		keyWidth = max(keyWidth, utf8.RuneCountInString(r.name))
	}
	if compact && keyWidth > 16 {
		keyWidth = 16
	}

	if compact {
		fmt.Fprintf(w, "%-*s  %12s  %10s\n", keyWidth, "Model", "Total", "Cost")
		fmt.Fprintln(w, strings.Repeat("─", keyWidth+2+12+2+10))
		for _, r := range rows {
			name := r.name
			if runes := []rune(name); len(runes) > keyWidth {
				name = string(runes[:keyWidth])
			}
			fmt.Fprintf(w, "%-*s  %12s  %10s\n", keyWidth, name, FormatNumber(r.usage.TotalTokens), r.cost)
		}
	} else {
		fmt.Fprintf(w, "%-*s  %14s  %14s  %14s  %14s  %10s\n",
			keyWidth, "Model", "Input", "Cached", "Output", "Total", "Cost")
		fmt.Fprintln(w, strings.Repeat("─", keyWidth+4*(2+14)+2+10))
		for _, r := range rows {
			fmt.Fprintf(w, "%-*s  %14s  %14s  %14s  %14s  %10s\n", keyWidth, r.name,
				FormatNumber(r.usage.InputTokens),
				FormatNumber(r.usage.CachedInputTokens),
				FormatNumber(r.usage.OutputTokens+r.usage.ReasoningOutputTokens),
				FormatNumber(r.usage.TotalTokens),
				r.cost)
		}
	}
	fmt.Fprintln(w)
}

func printTopEvents(w io.Writer, events []report.Event) {
	top := aggregator.NewTopK[report.Event](aggregator.TopEventsCapacity)
	for _, ev := range events {
		top.Push(ev.Total, ev)
	}
	if top.Len() == 0 {
		return
	}

	fmt.Fprintln(w, "Top spikes:")
	for _, ev := range top.Sorted() {
		fmt.Fprintf(w, "  %s  %s\n", ev.TS, FormatShort(ev.Total))
	}
	fmt.Fprintln(w)
}

// PriceRow is one resolved model for PrintPrices
type PriceRow struct {
	Model  string
	Key    string
	Price  pricing.PriceRecord
	Priced bool
}

// PrintPrices prints resolved prices per million tokens
func PrintPrices(w io.Writer, rows []PriceRow, meta pricing.Meta) {
	keyWidth := len("Model")
	for _, r := range rows {
		keyWidth = max(keyWidth, utf8.RuneCountInString(r.Model))
	}

	fmt.Fprintf(w, "%-*s  %-20s  %10s  %10s  %10s\n", keyWidth, "Model", "Matched", "Input", "Cached", "Output")
	fmt.Fprintln(w, strings.Repeat("─", keyWidth+2+20+3*(2+10)))
	for _, r := range rows {
		if !r.Priced {
			fmt.Fprintf(w, "%-*s  %-20s\n", keyWidth, r.Model, "not priced")
			continue
		}
		cached := "-"
		if r.Price.CachedInput.Valid {
			cached = formatRate(r.Price.CachedInput.Decimal)
		}
		fmt.Fprintf(w, "%-*s  %-20s  %10s  %10s  %10s\n", keyWidth, r.Model, r.Key,
			formatRate(r.Price.Input), cached, formatRate(r.Price.Output))
	}
	fmt.Fprintf(w, "\n%s per 1M tokens, %s tier (%s, %s)\n", meta.Currency, meta.Tier, meta.SourceURL, meta.SourceDate)
}

func formatRate(d decimal.Decimal) string {
	return "$" + d.String()
}

// PrintJSON writes v as indented JSON
func PrintJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
