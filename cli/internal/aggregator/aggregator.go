package aggregator

import (
	"errors"
	"iter"
	"sort"
	"time"

	"github.com/zhaobenny/codextop/internal/model"
)

// TopEventsCapacity is the number of spikes kept in Summary.TopEvents
const TopEventsCapacity = 5

// ErrInvalidRange is returned when Since falls after Until
var ErrInvalidRange = errors.New("since must be earlier than until")

// Options for aggregation
type Options struct {
	Since    time.Time // first day included, zero for no lower bound
	Until    time.Time // last day included, zero for no upper bound
	Timezone *time.Location
}

// Event is a single in-range usage event with a positive total
type Event struct {
	Timestamp time.Time
	Day       string
	Model     string
	Usage     model.Usage
}

// DayUsage is the usage of one calendar day
type DayUsage struct {
	Day   string
	Usage model.Usage
}

// SessionSpan is the inclusive day range one session log contributed to
type SessionSpan struct {
	Source string
	Start  string
	End    string
}

// Summary is the aggregated view over every scanned session log
type Summary struct {
	Start string
	End   string
	Days  int

	Totals       model.Usage
	Daily        []DayUsage
	Hourly       [24]int64
	Models       map[string]model.Usage
	DailyModels  map[string]map[string]model.Usage
	HourlyDaily  map[string][24]int64
	SessionSpans []SessionSpan
	ActiveDays   []string
	Sessions     int
	TopEvents    []Event
	Events       []Event

	FirstSeen time.Time
	LastSeen  time.Time
}

// Aggregator folds usage events into a Summary in a single pass
type Aggregator struct {
	loc   *time.Location
	since string
	until string

	totals      model.Usage
	daily       map[string]model.Usage
	hourly      [24]int64
	models      map[string]model.Usage
	dailyModels map[string]map[string]model.Usage
	hourlyDaily map[string][24]int64

	spans     map[string]*SessionSpan
	spanOrder []string
	firstDay  string
	lastDay   string
	firstSeen time.Time
	lastSeen  time.Time

	top    *TopK[Event]
	events []Event
}

// New creates an Aggregator, rejecting a range whose start is after its end
func New(opts Options) (*Aggregator, error) {
	loc := opts.Timezone
	if loc == nil {
		loc = time.Local
	}

	a := &Aggregator{
		loc:         loc,
		daily:       make(map[string]model.Usage),
		models:      make(map[string]model.Usage),
		dailyModels: make(map[string]map[string]model.Usage),
		hourlyDaily: make(map[string][24]int64),
		spans:       make(map[string]*SessionSpan),
		top:         NewTopK[Event](TopEventsCapacity),
	}
	if !opts.Since.IsZero() {
		a.since = opts.Since.Format(model.DayLayout)
	}
	if !opts.Until.IsZero() {
		a.until = opts.Until.Format(model.DayLayout)
	}
	if a.since != "" && a.until != "" && a.since > a.until {
		return nil, ErrInvalidRange
	}

	return a, nil
}

// InRange reports whether day falls inside the configured range
func (a *Aggregator) InRange(day string) bool {
	if a.since != "" && day < a.since {
		return false
	}
	if a.until != "" && day > a.until {
		return false
	}
	return true
}

// Add folds one event from the named source
func (a *Aggregator) Add(source string, ev model.UsageEvent) {
	local := ev.Timestamp.In(a.loc)
	day := model.DayOf(local)
	if !a.InRange(day) {
		return
	}

	name := ev.Model
	if name == "" {
		name = model.UnknownModel
	}
	delta := ev.Usage
	hour := local.Hour()

	a.totals.Add(delta)

	d := a.daily[day]
	d.Add(delta)
	a.daily[day] = d

	m := a.models[name]
	m.Add(delta)
	a.models[name] = m

	dm, ok := a.dailyModels[day]
	if !ok {
		dm = make(map[string]model.Usage)
		a.dailyModels[day] = dm
	}
	u := dm[name]
	u.Add(delta)
	dm[name] = u

	a.hourly[hour] += delta.TotalTokens
	hours := a.hourlyDaily[day]
	hours[hour] += delta.TotalTokens
	a.hourlyDaily[day] = hours

	if a.firstDay == "" || day < a.firstDay {
		a.firstDay = day
	}
	if a.lastDay == "" || day > a.lastDay {
		a.lastDay = day
	}
	if a.firstSeen.IsZero() || local.Before(a.firstSeen) {
		a.firstSeen = local
	}
	if a.lastSeen.IsZero() || local.After(a.lastSeen) {
		a.lastSeen = local
	}

	if delta.TotalTokens > 0 {
		event := Event{Timestamp: local, Day: day, Model: name, Usage: delta}
		a.events = append(a.events, event)
		a.top.Push(delta.TotalTokens, event)
	}

	span, ok := a.spans[source]
	if !ok {
		a.spans[source] = &SessionSpan{Source: source, Start: day, End: day}
		a.spanOrder = append(a.spanOrder, source)
		return
	}
	if day < span.Start {
		span.Start = day
	}
	if day > span.End {
		span.End = day
	}
}

// AddSource folds every event of one session log
func (a *Aggregator) AddSource(source string, events iter.Seq[model.UsageEvent]) {
	for ev := range events {
		a.Add(source, ev)
	}
}

// LastActiveDay returns the latest day with a positive total, or "" if none
func (a *Aggregator) LastActiveDay() string {
	last := ""
	for day, u := range a.daily {
		if u.TotalTokens > 0 && day > last {
			last = day
		}
	}
	return last
}

// Summary builds the aggregated result. Daily covers every day of the range,
// including days without any usage.
func (a *Aggregator) Summary() *Summary {
	today := time.Now().In(a.loc).Format(model.DayLayout)
	start := firstNonEmpty(a.since, a.firstDay, today)
	end := firstNonEmpty(a.until, a.lastDay, today)
	if start > end {
		// Only possible when one bound came from today's date
		if a.since == "" {
			start = end
		} else {
			end = start
		}
	}

	days := model.DaysBetween(start, end)
	daily := make([]DayUsage, 0, len(days))
	for _, day := range days {
		daily = append(daily, DayUsage{Day: day, Usage: a.daily[day]})
	}

	var active []string
	for day, u := range a.daily {
		if u.TotalTokens > 0 {
			active = append(active, day)
		}
	}
	sort.Strings(active)

	spans := make([]SessionSpan, 0, len(a.spanOrder))
	for _, source := range a.spanOrder {
		spans = append(spans, *a.spans[source])
	}

	return &Summary{
		Start:        start,
		End:          end,
		Days:         len(days),
		Totals:       a.totals,
		Daily:        daily,
		Hourly:       a.hourly,
		Models:       a.models,
		DailyModels:  a.dailyModels,
		HourlyDaily:  a.hourlyDaily,
		SessionSpans: spans,
		ActiveDays:   active,
		Sessions:     len(spans),
		TopEvents:    a.top.Sorted(),
		Events:       a.events,
		FirstSeen:    a.firstSeen,
		LastSeen:     a.lastSeen,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
