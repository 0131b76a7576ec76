package report

import (
	"reflect"
	"slices"
	"testing"

	"github.com/zhaobenny/codextop/internal/model"
)

func usage(total int64) model.Usage {
	return model.Usage{
		InputTokens:           total / 2,
		CachedInputTokens:     total / 4,
		OutputTokens:          total / 2,
		ReasoningOutputTokens: total / 10,
		TotalTokens:           total,
	}
}

// dataset builds a report with one model per day and all usage at hour
func dataset(name string, hour int, days map[string]int64) *Data {
	d := Empty()
	labels := make([]string, 0, len(days))
	for day := range days {
		labels = append(labels, day)
	}
	slices.Sort(labels)

	var hourly [24]int64
	for _, day := range labels {
		total := days[day]
		d.Daily.Append(day, usage(total))
		d.DailyModels[day] = map[string]model.Usage{name: usage(total)}
		var hours [24]int64
		hours[hour] = total
		d.HourlyDaily[day] = hours
		hourly[hour] += total
		if total > 0 {
			d.Events = append(d.Events, Event{TS: day + " 10:00", Day: day, Value: total, Total: total})
		}
	}
	d.Hourly = NewHourlySeries(hourly)
	d.SessionSpans = []Span{{Start: labels[0], End: labels[len(labels)-1]}}
	d.Range = Range{Start: labels[0], End: labels[len(labels)-1], Days: len(labels)}
	return d
}

// mergedFields strips the fields Merge leaves untouched
func mergedFields(d *Data) *Data {
	c := *d
	c.Pricing = nil
	c.Meta = nil
	return &c
}

func TestMerge_Empty(t *testing.T) {
	got := Merge()
	if got.Range.Days != 0 || len(got.Daily.Labels) != 0 {
		t.Errorf("Merge() = %+v", got.Range)
	}
	if len(got.Hourly.Labels) != 24 {
		t.Errorf("hourly labels = %d, want 24", len(got.Hourly.Labels))
	}
	if got.Events == nil || got.SessionSpans == nil {
		t.Error("empty merge should encode events and spans as []")
	}
}

func TestMerge_Identity(t *testing.T) {
	a := dataset("gpt-5", 9, map[string]int64{"2025-01-01": 100, "2025-01-02": 0, "2025-01-03": 50})

	got := Merge(a)
	if !reflect.DeepEqual(mergedFields(got), mergedFields(a)) {
		t.Errorf("Merge(a) != a\ngot  %+v\nwant %+v", got, a)
	}
}

func TestMerge_SumsAndZeroFills(t *testing.T) {
	a := dataset("gpt-5", 9, map[string]int64{"2025-01-01": 100, "2025-01-02": 20})
	b := dataset("gpt-5 (beta)", 22, map[string]int64{"2025-01-02": 30, "2025-01-05": 40})

	got := Merge(a, b)

	wantLabels := []string{"2025-01-01", "2025-01-02", "2025-01-03", "2025-01-04", "2025-01-05"}
	if !slices.Equal(got.Daily.Labels, wantLabels) {
		t.Fatalf("labels = %v", got.Daily.Labels)
	}
	if !slices.Equal(got.Daily.Total, []int64{100, 50, 0, 0, 40}) {
		t.Errorf("totals = %v", got.Daily.Total)
	}
	if got.Range != (Range{Start: "2025-01-01", End: "2025-01-05", Days: 5}) {
		t.Errorf("range = %+v", got.Range)
	}
	if got.DailyModels["2025-01-02"]["gpt-5"].TotalTokens != 50 {
		t.Errorf("model names not normalized: %v", got.DailyModels["2025-01-02"])
	}
	if got.Hourly.Total[9] != 120 || got.Hourly.Total[22] != 70 {
		t.Errorf("hourly = %v", got.Hourly.Total)
	}
	if len(got.Events) != 4 || !slices.IsSortedFunc(got.Events, compareEvents) {
		t.Errorf("events = %+v", got.Events)
	}
	if len(got.SessionSpans) != 2 || got.SessionSpans[0].Start != "2025-01-01" {
		t.Errorf("spans = %+v", got.SessionSpans)
	}
	if got.Pricing != nil || got.Meta != nil {
		t.Error("merge must not attach pricing or meta")
	}
	if got.Totals().TotalTokens != 190 {
		t.Errorf("Totals() = %d", got.Totals().TotalTokens)
	}
}

func TestMerge_Commutative(t *testing.T) {
	a := dataset("gpt-5", 9, map[string]int64{"2025-01-01": 100, "2025-01-03": 5})
	b := dataset("o3", 9, map[string]int64{"2025-01-01": 100, "2025-01-02": 7})

	ab, ba := Merge(a, b), Merge(b, a)
	if !reflect.DeepEqual(ab, ba) {
		t.Errorf("Merge(a, b) != Merge(b, a)\n%+v\n%+v", ab, ba)
	}
}

func TestMerge_Associative(t *testing.T) {
	a := dataset("gpt-5", 1, map[string]int64{"2025-01-01": 10})
	b := dataset("o3", 2, map[string]int64{"2025-01-02": 20, "2025-01-04": 5})
	c := dataset("gpt-5", 3, map[string]int64{"2025-01-01": 30, "2025-01-06": 1})

	left := Merge(Merge(a, b), c)
	right := Merge(a, Merge(b, c))
	flat := Merge(a, b, c)
	if !reflect.DeepEqual(left, right) || !reflect.DeepEqual(left, flat) {
		t.Errorf("merge is not associative\nleft  %+v\nright %+v\nflat  %+v", left, right, flat)
	}
}

func TestMerge_SkipsDatasetsWithoutLabels(t *testing.T) {
	a := dataset("gpt-5", 9, map[string]int64{"2025-01-01": 100})
	hollow := Empty()
	hollow.Events = []Event{{TS: "2024-01-01 00:00", Day: "2024-01-01", Total: 999}}

	got := Merge(a, nil, hollow)
	if len(got.Events) != 1 || got.Range.Start != "2025-01-01" {
		t.Errorf("hollow dataset contributed: %+v", got)
	}
}

func TestMerge_ShortSeries(t *testing.T) {
	d := Empty()
	d.Daily.Labels = []string{"2025-01-01", "2025-01-02"}
	d.Daily.Total = []int64{5}

	got := Merge(d)
	if !slices.Equal(got.Daily.Total, []int64{5, 0}) || !slices.Equal(got.Daily.Input, []int64{0, 0}) {
		t.Errorf("daily = %+v", got.Daily)
	}
}
