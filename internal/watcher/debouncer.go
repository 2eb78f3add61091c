package watcher

import (
	"sync"
	"time"
)

// Debouncer turns bursts of triggers into one signal, emitted once no
// trigger has arrived for the window. A signal that nobody has received
// yet absorbs later ones.
type Debouncer struct {
	window  time.Duration
	mu      sync.Mutex
	timer   *time.Timer
	output  chan struct{}
	stopped bool
}

// NewDebouncer creates a debouncer with the given quiet window.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		window: window,
		output: make(chan struct{}, 1),
	}
}

// Trigger restarts the quiet window.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.emit)
}

func (d *Debouncer) emit() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	select {
	case d.output <- struct{}{}:
	default:
	}
}

// C returns the channel of debounced signals.
func (d *Debouncer) C() <-chan struct{} {
	return d.output
}

// Stop cancels a pending signal. Safe to call multiple times.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
