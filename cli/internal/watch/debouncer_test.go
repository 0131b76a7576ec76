package watch

import (
	"slices"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	calls [][]string
	fired chan struct{}
}

func newRecorder() *recorder {
	return &recorder{fired: make(chan struct{}, 16)}
}

func (r *recorder) record(paths []string) {
	r.mu.Lock()
	r.calls = append(r.calls, paths)
	r.mu.Unlock()
	r.fired <- struct{}{}
}

func (r *recorder) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

func waitFired(t *testing.T, r *recorder) {
	t.Helper()
	select {
	case <-r.fired:
	case <-time.After(5 * time.Second):
		t.Fatal("debouncer never fired")
	}
}

func TestDebouncer_CoalescesBurst(t *testing.T) {
	r := newRecorder()
	d := NewDebouncer(50*time.Millisecond, r.record)

	d.Schedule("b.jsonl")
	d.Schedule("a.jsonl")
	d.Schedule("b.jsonl")
	waitFired(t, r)

	// allow any stale timers to expire
	time.Sleep(150 * time.Millisecond)

	calls := r.snapshot()
	if len(calls) != 1 {
		t.Fatalf("fn called %d times, want 1", len(calls))
	}
	if !slices.Equal(calls[0], []string{"a.jsonl", "b.jsonl"}) {
		t.Errorf("paths = %v", calls[0])
	}
	if d.Pending() != 0 {
		t.Errorf("Pending() = %d after flush", d.Pending())
	}
}

func TestDebouncer_SeparateBursts(t *testing.T) {
	r := newRecorder()
	d := NewDebouncer(20*time.Millisecond, r.record)

	d.Schedule("a.jsonl")
	waitFired(t, r)
	d.Schedule("c.jsonl")
	waitFired(t, r)

	calls := r.snapshot()
	if len(calls) != 2 || calls[1][0] != "c.jsonl" {
		t.Errorf("calls = %v", calls)
	}
}
