package report

import (
	"fmt"

	"github.com/zhaobenny/codextop/internal/model"
	"github.com/zhaobenny/codextop/internal/pricing"
)

const (
	// EventTimeLayout is the minute-resolution local time of an event
	EventTimeLayout = "2006-01-02 15:04"
	// GeneratedAtLayout is the local time a report was written
	GeneratedAtLayout = "2006-01-02 15:04:05"
	// DataFile is the report file written into the output directory
	DataFile = "data.json"
)

// Range is the inclusive day range a report covers
type Range struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  int    `json:"days"`
}

// DailySeries holds one value per label for each usage field
type DailySeries struct {
	Labels    []string `json:"labels"`
	Total     []int64  `json:"total"`
	Input     []int64  `json:"input"`
	Output    []int64  `json:"output"`
	Reasoning []int64  `json:"reasoning"`
	Cached    []int64  `json:"cached"`
}

// Append adds one day to the series
func (s *DailySeries) Append(day string, u model.Usage) {
	s.Labels = append(s.Labels, day)
	s.Total = append(s.Total, u.TotalTokens)
	s.Input = append(s.Input, u.InputTokens)
	s.Output = append(s.Output, u.OutputTokens)
	s.Reasoning = append(s.Reasoning, u.ReasoningOutputTokens)
	s.Cached = append(s.Cached, u.CachedInputTokens)
}

// At returns the usage at index i. Series shorter than the labels read as zero.
func (s *DailySeries) At(i int) model.Usage {
	return model.Usage{
		InputTokens:           at(s.Input, i),
		CachedInputTokens:     at(s.Cached, i),
		OutputTokens:          at(s.Output, i),
		ReasoningOutputTokens: at(s.Reasoning, i),
		TotalTokens:           at(s.Total, i),
	}
}

func at(values []int64, i int) int64 {
	if i < len(values) {
		return values[i]
	}
	return 0
}

// HourlySeries is the hour-of-day histogram of total tokens
type HourlySeries struct {
	Labels []string `json:"labels"`
	Total  []int64  `json:"total"`
}

// NewHourlySeries builds the histogram with labels "00" through "23"
func NewHourlySeries(hours [24]int64) HourlySeries {
	s := HourlySeries{Labels: make([]string, 24), Total: make([]int64, 24)}
	for h := range 24 {
		s.Labels[h] = fmt.Sprintf("%02d", h)
		s.Total[h] = hours[h]
	}
	return s
}

// Span is the inclusive day range of one session
type Span struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Event is one usage delta with a positive total
type Event struct {
	TS        string `json:"ts"`
	Day       string `json:"day"`
	Value     int64  `json:"value"`
	Input     int64  `json:"input"`
	Cached    int64  `json:"cached"`
	Output    int64  `json:"output"`
	Reasoning int64  `json:"reasoning"`
	Total     int64  `json:"total"`
}

// Price is the float rendering of a price record used by report viewers
type Price struct {
	Input       float64  `json:"input"`
	CachedInput *float64 `json:"cached_input"`
	Output      float64  `json:"output"`
}

// Pricing is the price table embedded in a report
type Pricing struct {
	Prices  map[string]Price  `json:"prices"`
	Aliases map[string]string `json:"aliases"`
}

// Meta describes when and from where a report was generated
type Meta struct {
	GeneratedAt string `json:"generated_at"`
	SourcePath  string `json:"source_path"`
}

// Data is the report document consumed by viewers and merged across machines
type Data struct {
	Range        Range                             `json:"range"`
	Daily        DailySeries                       `json:"daily"`
	DailyModels  map[string]map[string]model.Usage `json:"daily_models"`
	Hourly       HourlySeries                      `json:"hourly"`
	HourlyDaily  map[string][24]int64              `json:"hourly_daily"`
	SessionSpans []Span                            `json:"session_spans"`
	Events       []Event                           `json:"events"`
	Pricing      *Pricing                          `json:"pricing,omitempty"`
	Meta         *Meta                             `json:"meta,omitempty"`
}

// Empty returns a report with no days
func Empty() *Data {
	return &Data{
		Daily: DailySeries{
			Labels:    []string{},
			Total:     []int64{},
			Input:     []int64{},
			Output:    []int64{},
			Reasoning: []int64{},
			Cached:    []int64{},
		},
		DailyModels:  map[string]map[string]model.Usage{},
		Hourly:       NewHourlySeries([24]int64{}),
		HourlyDaily:  map[string][24]int64{},
		SessionSpans: []Span{},
		Events:       []Event{},
	}
}

// Totals sums the daily series
func (d *Data) Totals() model.Usage {
	var total model.Usage
	for i := range d.Daily.Labels {
		total.Add(d.Daily.At(i))
	}
	return total
}

// ModelTotals sums daily_models over every day
func (d *Data) ModelTotals() map[string]model.Usage {
	totals := make(map[string]model.Usage)
	for _, models := range d.DailyModels {
		for name, u := range models {
			t := totals[name]
			t.Add(u)
			totals[name] = t
		}
	}
	return totals
}

// ActiveDays counts days with a positive total
func (d *Data) ActiveDays() int {
	n := 0
	for _, total := range d.Daily.Total {
		if total > 0 {
			n++
		}
	}
	return n
}

// PricingFrom renders a price table for embedding in a report
func PricingFrom(t *pricing.Table) *Pricing {
	p := &Pricing{
		Prices:  make(map[string]Price, len(t.Prices)),
		Aliases: t.Aliases,
	}
	if p.Aliases == nil {
		p.Aliases = map[string]string{}
	}
	for name, rec := range t.Prices {
		price := Price{
			Input:  rec.Input.InexactFloat64(),
			Output: rec.Output.InexactFloat64(),
		}
		if rec.CachedInput.Valid {
			cached := rec.CachedInput.Decimal.InexactFloat64()
			price.CachedInput = &cached
		}
		p.Prices[name] = price
	}
	return p
}
