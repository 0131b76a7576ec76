package report

import (
	"cmp"
	"slices"

	"github.com/samber/lo"

	"github.com/zhaobenny/codextop/internal/model"
)

// Merge combines reports from several machines or exports into one.
//
// Datasets without daily labels are skipped. Daily values, per-day model usage
// and per-day hours are summed by key; events and session spans are
// concatenated and sorted. The result covers every day from the earliest to
// the latest label. Pricing and Meta are left nil for the caller to attach.
func Merge(datasets ...*Data) *Data {
	days := make(map[string]model.Usage)
	dailyModels := make(map[string]map[string]model.Usage)
	hourlyDaily := make(map[string][24]int64)
	var events []Event
	var spans []Span

	for _, d := range datasets {
		if d == nil || len(d.Daily.Labels) == 0 {
			continue
		}

		for i, day := range d.Daily.Labels {
			u := days[day]
			u.Add(d.Daily.At(i))
			days[day] = u
		}

		for day, models := range d.DailyModels {
			out, ok := dailyModels[day]
			if !ok {
				out = make(map[string]model.Usage)
				dailyModels[day] = out
			}
			for name, u := range models {
				key := model.NormalizeName(name)
				rec := out[key]
				rec.Add(u)
				out[key] = rec
			}
		}

		for day, hours := range d.HourlyDaily {
			out := hourlyDaily[day]
			for h := range 24 {
				out[h] += hours[h]
			}
			hourlyDaily[day] = out
		}

		events = append(events, d.Events...)
		spans = append(spans, d.SessionSpans...)
	}

	merged := Empty()
	if len(days) == 0 {
		return merged
	}

	labels := lo.Keys(days)
	slices.Sort(labels)
	if filled := model.DaysBetween(labels[0], labels[len(labels)-1]); filled != nil {
		labels = filled
	}
	for _, day := range labels {
		merged.Daily.Append(day, days[day])
	}

	var hourly [24]int64
	for _, hours := range hourlyDaily {
		for h := range 24 {
			hourly[h] += hours[h]
		}
	}

	SortEvents(events)
	SortSpans(spans)

	merged.Range = Range{Start: labels[0], End: labels[len(labels)-1], Days: len(labels)}
	merged.DailyModels = dailyModels
	merged.Hourly = NewHourlySeries(hourly)
	merged.HourlyDaily = hourlyDaily
	if events != nil {
		merged.Events = events
	}
	if spans != nil {
		merged.SessionSpans = spans
	}
	return merged
}

// SortEvents orders events by time. Ties are broken on the token counts so the
// order does not depend on which dataset an event came from.
func SortEvents(events []Event) {
	slices.SortStableFunc(events, compareEvents)
}

// SortSpans orders session spans by start day, then end day
func SortSpans(spans []Span) {
	slices.SortStableFunc(spans, func(a, b Span) int {
		return cmp.Or(cmp.Compare(a.Start, b.Start), cmp.Compare(a.End, b.End))
	})
}

// compareEvents is a total order over every event field
func compareEvents(a, b Event) int {
	return cmp.Or(
		cmp.Compare(a.TS, b.TS),
		cmp.Compare(a.Day, b.Day),
		cmp.Compare(a.Total, b.Total),
		cmp.Compare(a.Value, b.Value),
		cmp.Compare(a.Input, b.Input),
		cmp.Compare(a.Cached, b.Cached),
		cmp.Compare(a.Output, b.Output),
		cmp.Compare(a.Reasoning, b.Reasoning),
	)
}
