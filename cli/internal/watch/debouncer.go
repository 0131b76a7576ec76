package watch

import (
	"slices"
	"sync"
	"time"
)

// Debouncer delays regeneration to batch bursts of file changes together
type Debouncer struct {
	delay time.Duration
	fn    func(paths []string)

	mu         sync.Mutex
	generation int
	pending    map[string]struct{}

	// run serializes fn so regenerations never overlap
	run sync.Mutex
}

// NewDebouncer creates a debouncer that calls fn once changes have been quiet for delay
func NewDebouncer(delay time.Duration, fn func(paths []string)) *Debouncer {
	return &Debouncer{
		delay:   delay,
		fn:      fn,
		pending: make(map[string]struct{}),
	}
}

// Schedule records a changed path, resetting the timer if a flush is already pending
func (d *Debouncer) Schedule(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending[path] = struct{}{}
	// Bumping the generation invalidates any earlier timer
	d.generation++
	gen := d.generation
	time.AfterFunc(d.delay, func() {
		d.flush(gen)
	})
}

// Pending returns the number of changed paths waiting for a flush
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

func (d *Debouncer) flush(generation int) {
	d.mu.Lock()
	if generation != d.generation || len(d.pending) == 0 {
		// Stale timer or already flushed
		d.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(d.pending))
	for path := range d.pending {
		paths = append(paths, path)
	}
	clear(d.pending)
	d.mu.Unlock()

	slices.Sort(paths)
	d.run.Lock()
	defer d.run.Unlock()
	d.fn(paths)
}
