package preview

import (
	"sync"
	"time"

	"github.com/NightCatCoding/NightCatWatermark/visible"
)

// DefaultDebounceDelay is tuned for slider drags: long enough to
// coalesce an event burst, short enough to feel instantaneous on a
// proxy-sized render.
const DefaultDebounceDelay = 50 * time.Millisecond

// Request is one preview render request. A later request arriving
// before the debounce delay elapses supersedes it entirely.
type Request struct {
	SourcePath string
	Params     visible.Params
	// MaxDimension bounds the proxy's larger dimension.
	MaxDimension int
}

// Debouncer collapses bursts of requests into a single trigger carrying
// the last request's values. Triggers are delivered on C, a buffered
// latest-wins channel: an undelivered trigger is replaced, never queued.
type Debouncer struct {
	delay time.Duration
	ch    chan Request

	mu      sync.Mutex
	timer   *time.Timer
	pending *Request
	// gen identifies the newest arming; a timer callback from an
	// earlier arming that lost the Stop race must not deliver.
	gen uint64
}

// NewDebouncer returns a Debouncer with the given quiet period
// (DefaultDebounceDelay when delay <= 0).
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounceDelay
	}
	return &Debouncer{
		delay: delay,
		ch:    make(chan Request, 1),
	}
}

// C delivers debounced triggers.
func (d *Debouncer) C() <-chan Request { return d.ch }

// Request stores req as the pending value and re-arms the timer,
// silently dropping any previously pending request.
func (d *Debouncer) Request(req Request) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = &req
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Cancel disarms the timer and discards any pending request without
// firing.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
	d.gen++
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.pending == nil {
		d.mu.Unlock()
		return
	}
	req := d.pending
	d.pending = nil
	d.mu.Unlock()
	// Replace an undelivered trigger rather than queueing behind it.
	select {
	case <-d.ch:
	default:
	}
	d.ch <- *req
}
