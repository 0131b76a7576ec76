package parser

import (
	"testing"

	"github.com/zhaobenny/codextop/internal/model"
)

func TestMonotonicDelta(t *testing.T) {
	tests := []struct {
		name      string
		prev, cur int64
		want      int64
	}{
		{"increase", 100, 250, 150},
		{"unchanged", 250, 250, 0},
		{"regression", 250, 80, 0},
		{"from zero", 0, 42, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MonotonicDelta(tt.prev, tt.cur); got != tt.want {
				t.Errorf("MonotonicDelta(%d, %d) = %d, want %d", tt.prev, tt.cur, got, tt.want)
			}
		})
	}
}

func TestCounterAdvance_RegressionResetsBaseline(t *testing.T) {
	var c Counter
	var got []int64
	for _, total := range []int64{100, 250, 80, 300} {
		got = append(got, c.Advance(model.Usage{TotalTokens: total}).TotalTokens)
	}

	want := []int64{100, 150, 0, 220}
	var sum int64
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("delta[%d] = %d, want %d", i, got[i], want[i])
		}
		sum += got[i]
	}
	if sum != 470 {
		t.Errorf("sum of deltas = %d, want 470", sum)
	}
}

func TestCounterAdvance_SumBoundedByFinal(t *testing.T) {
	sequences := [][]int64{
		{5, 10, 20, 40},
		{0, 0, 7},
		{3, 1, 2, 9},
		{50, 10, 60, 5, 70},
	}

	for _, seq := range sequences {
		var c Counter
		var sum, expected int64
		for i, v := range seq {
			sum += c.Advance(model.Usage{InputTokens: v}).InputTokens
			if i == 0 {
				expected += v
			} else if v >= seq[i-1] {
				expected += v - seq[i-1]
			}
		}
		if sum != expected {
			t.Errorf("seq %v: sum = %d, want %d", seq, sum, expected)
		}

		monotonic := true
		for i := 1; i < len(seq); i++ {
			if seq[i] < seq[i-1] {
				monotonic = false
			}
		}
		final := seq[len(seq)-1]
		if monotonic && sum != final {
			t.Errorf("seq %v: monotonic sum = %d, want final value %d", seq, sum, final)
		}
		if monotonic && sum > final {
			t.Errorf("seq %v: sum %d exceeds final %d", seq, sum, final)
		}
	}
}

func TestCounterAdvance_FirstSnapshotClampsNegative(t *testing.T) {
	var c Counter
	d := c.Advance(model.Usage{InputTokens: -5, OutputTokens: 7})
	if d.InputTokens != 0 || d.OutputTokens != 7 {
		t.Errorf("first delta = %+v, want input 0 output 7", d)
	}
}
