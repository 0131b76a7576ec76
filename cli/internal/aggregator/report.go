package aggregator

import (
	"time"

	"github.com/zhaobenny/codextop/internal/pricing"
	"github.com/zhaobenny/codextop/internal/report"
)

// Report renders the summary as a report document. table may be nil, in
// which case the report carries no pricing.
func (s *Summary) Report(table *pricing.Table, sourcePath string, now time.Time) *report.Data {
	d := report.Empty()
	d.Range = report.Range{Start: s.Start, End: s.End, Days: s.Days}

	for _, day := range s.Daily {
		d.Daily.Append(day.Day, day.Usage)
	}
	for day, models := range s.DailyModels {
		d.DailyModels[day] = models
	}
	for day, hours := range s.HourlyDaily {
		d.HourlyDaily[day] = hours
	}
	d.Hourly = report.NewHourlySeries(s.Hourly)

	for _, span := range s.SessionSpans {
		d.SessionSpans = append(d.SessionSpans, report.Span{Start: span.Start, End: span.End})
	}
	for _, ev := range s.Events {
		d.Events = append(d.Events, report.Event{
			TS:        ev.Timestamp.Format(report.EventTimeLayout),
			Day:       ev.Day,
			Value:     ev.Usage.TotalTokens,
			Input:     ev.Usage.InputTokens,
			Cached:    ev.Usage.CachedInputTokens,
			Output:    ev.Usage.OutputTokens,
			Reasoning: ev.Usage.ReasoningOutputTokens,
			Total:     ev.Usage.TotalTokens,
		})
	}
	report.SortEvents(d.Events)
	report.SortSpans(d.SessionSpans)

	if table != nil {
		d.Pricing = report.PricingFrom(table)
	}
	d.Meta = &report.Meta{
		GeneratedAt: now.Format(report.GeneratedAtLayout),
		SourcePath:  sourcePath,
	}
	return d
}
