// Package preview schedules compensation preview calculations. Rapid edits
// collapse into one call, and a call superseded by a newer one is cancelled
// and its result discarded.
package preview

import (
	"context"
	"sync"
	"time"
)

// DefaultDelay is the quiet period before a preview call fires.
const DefaultDelay = 500 * time.Millisecond

// Func runs one calculation. seq identifies the call; the result may only be
// committed while Current(seq) holds.
type Func func(ctx context.Context, seq uint64)

// Debouncer runs the latest scheduled Func after a quiet period.
type Debouncer struct {
	delay time.Duration
	fn    Func

	mu       sync.Mutex
	timer    *time.Timer
	seq      uint64
	inflight context.CancelFunc
	closed   bool
	wg       sync.WaitGroup
}

func NewDebouncer(delay time.Duration, fn Func) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{delay: delay, fn: fn}
}

// Schedule (re)starts the quiet period. A pending call is dropped; an
// in-flight call keeps running but can no longer commit.
func (d *Debouncer) Schedule() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return d.seq
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq) })
	return seq
}

// Cancel drops a pending call and aborts the in-flight one.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.inflight != nil {
		d.inflight()
		d.inflight = nil
	}
}

func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	if d.closed || seq != d.seq {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	if d.inflight != nil {
		d.inflight()
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.inflight = cancel
	d.wg.Add(1)
	d.mu.Unlock()

	defer d.wg.Done()
	defer func() {
		d.mu.Lock()
		if seq == d.seq && d.inflight != nil {
			d.inflight = nil
		}
		d.mu.Unlock()
		cancel()
	}()
	d.fn(ctx, seq)
}

// Current reports whether seq is still the latest scheduled call.
func (d *Debouncer) Current(seq uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.closed && seq == d.seq
}

// Close stops scheduling, aborts the in-flight call and waits for it.
func (d *Debouncer) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.inflight != nil {
		d.inflight()
		d.inflight = nil
	}
	d.mu.Unlock()
	d.wg.Wait()
}
