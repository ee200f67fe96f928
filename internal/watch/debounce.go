package watch

import (
	"sort"
	"sync"
	"time"
)

// Debouncer coalesces bursts of change notifications into one callback
// carrying every location that changed during the quiet window.
type Debouncer struct {
	mu       sync.Mutex
	pending  map[string]struct{}
	timer    *time.Timer
	window   time.Duration
	stopped  bool
	callback func(locations []string)
}

// NewDebouncer creates a debouncer. A zero window fires on the next tick of
// the runtime timer, which still merges events queued in the same instant.
func NewDebouncer(window time.Duration, callback func(locations []string)) *Debouncer {
	return &Debouncer{
		pending:  make(map[string]struct{}),
		window:   window,
		callback: callback,
	}
}

// Add records a change and restarts the quiet window
func (d *Debouncer) Add(location string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.pending[location] = struct{}{}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

// Stop cancels any pending callback and ignores further Adds
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = make(map[string]struct{})
}

// Flush runs the callback synchronously with whatever is pending
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		if !d.timer.Stop() {
			// Already firing
			d.mu.Unlock()
			return
		}
		d.timer = nil
	}
	locations := d.drain()
	d.mu.Unlock()

	if len(locations) > 0 && d.callback != nil {
		d.callback(locations)
	}
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	locations := d.drain()
	d.mu.Unlock()

	if len(locations) > 0 && d.callback != nil {
		d.callback(locations)
	}
}

// drain must be called with mu held
func (d *Debouncer) drain() []string {
	locations := make([]string, 0, len(d.pending))
	for loc := range d.pending {
		locations = append(locations, loc)
	}
	sort.Strings(locations)
	d.pending = make(map[string]struct{})
	return locations
}
