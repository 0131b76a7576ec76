package model

import "time"

// DayLayout is the key format used for every per-day bucket
const DayLayout = "2006-01-02"

// Usage holds token counts for one event or an aggregated bucket
type Usage struct {
	InputTokens           int64 `json:"input_tokens"`
	CachedInputTokens     int64 `json:"cached_input_tokens"`
	OutputTokens          int64 `json:"output_tokens"`
	ReasoningOutputTokens int64 `json:"reasoning_output_tokens"`
	TotalTokens           int64 `json:"total_tokens"`
}

// Add accumulates other into u
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.CachedInputTokens += other.CachedInputTokens
	u.OutputTokens += other.OutputTokens
	u.ReasoningOutputTokens += other.ReasoningOutputTokens
	u.TotalTokens += other.TotalTokens
}

// IsZero reports whether every counter is zero
func (u Usage) IsZero() bool {
	return u == Usage{}
}

// UsageEvent is the usage attributed to a single log line
type UsageEvent struct {
	Timestamp time.Time
	Model     string
	Usage     Usage
}

// DayOf returns the day key of t in t's own location
func DayOf(t time.Time) string {
	return t.Format(DayLayout)
}

// ParseDay parses a YYYY-MM-DD day key as midnight in loc
func ParseDay(day string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DayLayout, day, loc)
}

// DaysBetween returns every day key from start to end inclusive.
// Returns nil if either key is invalid or start is after end.
func DaysBetween(start, end string) []string {
	from, err := time.Parse(DayLayout, start)
	if err != nil {
		return nil
	}
	to, err := time.Parse(DayLayout, end)
	if err != nil || from.After(to) {
		return nil
	}

	var days []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DayLayout))
	}
	return days
}
