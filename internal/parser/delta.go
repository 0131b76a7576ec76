package parser

import "github.com/zhaobenny/codextop/internal/model"

// MonotonicDelta returns how far a cumulative counter advanced from prev to cur.
// A regression (cur < prev) yields zero rather than a negative amount.
func MonotonicDelta(prev, cur int64) int64 {
	return max(0, cur-prev)
}

// Counter tracks the last cumulative snapshot seen in one session log
type Counter struct {
	last   model.Usage
	seeded bool
}

// Advance converts a cumulative snapshot into the delta since the previous one.
// The snapshot always becomes the new baseline, even after a regression.
func (c *Counter) Advance(snapshot model.Usage) model.Usage {
	prev := c.last
	if !c.seeded {
		prev = model.Usage{}
	}

	delta := model.Usage{
		InputTokens:           MonotonicDelta(prev.InputTokens, snapshot.InputTokens),
		CachedInputTokens:     MonotonicDelta(prev.CachedInputTokens, snapshot.CachedInputTokens),
		OutputTokens:          MonotonicDelta(prev.OutputTokens, snapshot.OutputTokens),
		ReasoningOutputTokens: MonotonicDelta(prev.ReasoningOutputTokens, snapshot.ReasoningOutputTokens),
		TotalTokens:           MonotonicDelta(prev.TotalTokens, snapshot.TotalTokens),
	}

	c.last = snapshot
	c.seeded = true
	return delta
}
