package aggregator

import (
	"errors"
	"math/rand"
	"reflect"
	"slices"
	"testing"
	"time"

	"github.com/zhaobenny/codextop/internal/model"
)

func event(ts string, name string, total int64) model.UsageEvent {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		panic(err)
	}
	return model.UsageEvent{
		Timestamp: t,
		Model:     name,
		Usage: model.Usage{
			InputTokens:           total / 2,
			CachedInputTokens:     total / 4,
			OutputTokens:          total / 2,
			ReasoningOutputTokens: total / 10,
			TotalTokens:           total,
		},
	}
}

func day(s string) time.Time {
	t, err := time.Parse(model.DayLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func newUTC(t *testing.T, opts Options) *Aggregator {
	t.Helper()
	opts.Timezone = time.UTC
	a, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func sampleEvents() []model.UsageEvent {
	return []model.UsageEvent{
		event("2025-01-01T09:00:00Z", "gpt-5", 100),
		event("2025-01-01T09:30:00Z", "gpt-5", 50),
		event("2025-01-01T14:00:00Z", "o3", 30),
		event("2025-01-03T23:00:00Z", "gpt-5", 400),
		event("2025-01-03T23:10:00Z", "gpt-5", 0),
		event("2025-01-04T01:00:00Z", "o3", 70),
	}
}

func TestNew_InvalidRange(t *testing.T) {
	_, err := New(Options{Since: day("2025-02-01"), Until: day("2025-01-01")})
	if !errors.Is(err, ErrInvalidRange) {
		t.Errorf("err = %v, want ErrInvalidRange", err)
	}

	if _, err := New(Options{Since: day("2025-01-01"), Until: day("2025-01-01")}); err != nil {
		t.Errorf("single-day range rejected: %v", err)
	}
}

func TestSummary_Buckets(t *testing.T) {
	a := newUTC(t, Options{})
	a.AddSource("s1", slices.Values(sampleEvents()))
	s := a.Summary()

	if s.Start != "2025-01-01" || s.End != "2025-01-04" || s.Days != 4 {
		t.Errorf("range = %s..%s (%d days)", s.Start, s.End, s.Days)
	}
	if s.Totals.TotalTokens != 650 {
		t.Errorf("totals = %d, want 650", s.Totals.TotalTokens)
	}

	wantDaily := []int64{180, 0, 400, 70}
	for i, d := range s.Daily {
		if d.Usage.TotalTokens != wantDaily[i] {
			t.Errorf("daily[%s] = %d, want %d", d.Day, d.Usage.TotalTokens, wantDaily[i])
		}
	}
	if s.Daily[1].Day != "2025-01-02" || !s.Daily[1].Usage.IsZero() {
		t.Errorf("gap day = %+v, want zero 2025-01-02", s.Daily[1])
	}

	if s.Models["gpt-5"].TotalTokens != 550 || s.Models["o3"].TotalTokens != 100 {
		t.Errorf("models = %+v", s.Models)
	}
	if s.Hourly[9] != 150 || s.Hourly[14] != 30 || s.Hourly[23] != 400 || s.Hourly[1] != 70 {
		t.Errorf("hourly = %v", s.Hourly)
	}
	if s.HourlyDaily["2025-01-03"][23] != 400 {
		t.Errorf("hourly_daily = %v", s.HourlyDaily["2025-01-03"])
	}
	if !slices.Equal(s.ActiveDays, []string{"2025-01-01", "2025-01-03", "2025-01-04"}) {
		t.Errorf("active days = %v", s.ActiveDays)
	}
	if len(s.Events) != 5 {
		t.Errorf("events = %d, want 5 (zero-total event excluded)", len(s.Events))
	}
	if s.Sessions != 1 || len(s.SessionSpans) != 1 {
		t.Fatalf("sessions = %d spans = %v", s.Sessions, s.SessionSpans)
	}
	if span := s.SessionSpans[0]; span.Start != "2025-01-01" || span.End != "2025-01-04" {
		t.Errorf("span = %+v", span)
	}
}

func TestSummary_DailyConsistency(t *testing.T) {
	a := newUTC(t, Options{})
	a.AddSource("s1", slices.Values(sampleEvents()))
	s := a.Summary()

	var sum model.Usage
	for _, d := range s.Daily {
		sum.Add(d.Usage)

		var models model.Usage
		for _, u := range s.DailyModels[d.Day] {
			models.Add(u)
		}
		if models != d.Usage {
			t.Errorf("day %s: daily_models sum %+v != daily %+v", d.Day, models, d.Usage)
		}
	}
	if sum != s.Totals {
		t.Errorf("sum(daily) = %+v, totals = %+v", sum, s.Totals)
	}
}

func TestSummary_RangeFilter(t *testing.T) {
	a := newUTC(t, Options{Since: day("2025-01-02"), Until: day("2025-01-03")})
	a.AddSource("s1", slices.Values(sampleEvents()))
	a.AddSource("s2", slices.Values([]model.UsageEvent{event("2024-12-31T10:00:00Z", "gpt-5", 999)}))
	s := a.Summary()

	if s.Start != "2025-01-02" || s.End != "2025-01-03" || len(s.Daily) != 2 {
		t.Errorf("range = %s..%s daily=%d", s.Start, s.End, len(s.Daily))
	}
	if s.Totals.TotalTokens != 400 {
		t.Errorf("totals = %d, want 400", s.Totals.TotalTokens)
	}
	if s.Sessions != 1 {
		t.Errorf("sessions = %d, want 1 (out-of-range source has no span)", s.Sessions)
	}
	if s.SessionSpans[0].Start != "2025-01-03" {
		t.Errorf("span = %+v", s.SessionSpans[0])
	}
}

func TestSummary_TimezoneBucketing(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	a, err := New(Options{Timezone: tokyo})
	if err != nil {
		t.Fatal(err)
	}
	a.Add("s1", event("2025-01-01T20:00:00Z", "gpt-5", 10))
	s := a.Summary()

	if s.Start != "2025-01-02" {
		t.Errorf("day = %s, want 2025-01-02", s.Start)
	}
	if s.Hourly[5] != 10 {
		t.Errorf("hourly = %v, want hour 5 bucket", s.Hourly)
	}
}

func TestSummary_TopEvents(t *testing.T) {
	a := newUTC(t, Options{})
	totals := []int64{10, 60, 20, 60, 5, 90, 40, 30}
	for i, total := range totals {
		ts := time.Date(2025, 1, 1, i, 0, 0, 0, time.UTC).Format(time.RFC3339)
		a.Add("s1", event(ts, "gpt-5", total))
	}
	s := a.Summary()

	var got []int64
	var hours []int
	for _, ev := range s.TopEvents {
		got = append(got, ev.Usage.TotalTokens)
		hours = append(hours, ev.Timestamp.Hour())
	}
	if !slices.Equal(got, []int64{90, 60, 60, 40, 30}) {
		t.Errorf("top totals = %v", got)
	}
	if hours[1] != 1 || hours[2] != 3 {
		t.Errorf("tie order = %v, want earlier event first", hours)
	}
}

func TestSummary_FoldIsOrderIndependent(t *testing.T) {
	events := sampleEvents()
	for i := 0; i < 20; i++ {
		events = append(events, event(time.Date(2025, 1, 2, i, 0, 0, 0, time.UTC).Format(time.RFC3339), "o4-mini", int64(i*7)))
	}

	base := newUTC(t, Options{})
	base.AddSource("s1", slices.Values(events))
	want := base.Summary()

	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 5; round++ {
		shuffled := slices.Clone(events)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		a := newUTC(t, Options{})
		a.AddSource("s1", slices.Values(shuffled))
		got := a.Summary()

		if got.Totals != want.Totals {
			t.Errorf("round %d: totals differ", round)
		}
		if !reflect.DeepEqual(got.Daily, want.Daily) {
			t.Errorf("round %d: daily differ", round)
		}
		if !reflect.DeepEqual(got.Models, want.Models) {
			t.Errorf("round %d: models differ", round)
		}
		if !reflect.DeepEqual(got.DailyModels, want.DailyModels) {
			t.Errorf("round %d: daily models differ", round)
		}
		if got.Hourly != want.Hourly {
			t.Errorf("round %d: hourly differ", round)
		}
	}
}

func TestSummary_NoEvents(t *testing.T) {
	a := newUTC(t, Options{Since: day("2025-01-01"), Until: day("2025-01-07")})
	s := a.Summary()

	if s.Days != 7 || len(s.Daily) != 7 {
		t.Errorf("days = %d, daily = %d, want 7", s.Days, len(s.Daily))
	}
	if !s.Totals.IsZero() || len(s.ActiveDays) != 0 || s.Sessions != 0 {
		t.Errorf("expected empty summary, got %+v", s.Totals)
	}
}

func TestLastActiveDay(t *testing.T) {
	a := newUTC(t, Options{})
	a.AddSource("s1", slices.Values(sampleEvents()))
	a.Add("s1", event("2025-01-09T10:00:00Z", "gpt-5", 0))

	if got := a.LastActiveDay(); got != "2025-01-04" {
		t.Errorf("LastActiveDay() = %q, want 2025-01-04", got)
	}
}

func TestAdd_EmptyModelIsUnknown(t *testing.T) {
	a := newUTC(t, Options{})
	a.Add("s1", event("2025-01-01T10:00:00Z", "", 10))
	if a.Summary().Models["unknown"].TotalTokens != 10 {
		t.Error("empty model name not folded into unknown")
	}
}
