package preview

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/NightCatCoding/NightCatWatermark/visible"
)

// ErrNoImage reports a preview request without a source image.
var ErrNoImage = errors.New("no source image selected")

// DefaultGracePeriod bounds how long a superseding request waits for
// the previous job to acknowledge cancellation before detaching it.
const DefaultGracePeriod = 50 * time.Millisecond

// State is the orchestrator's observable render state.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateRendering
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRendering:
		return "rendering"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Event is one state notification. Image is set only for StateReady and
// Err only for StateError; a cancelled job emits nothing at all.
type Event struct {
	State State
	Job   uuid.UUID
	Image *image.RGBA
	Err   error
}

type job struct {
	id     uuid.UUID
	req    Request
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Orchestrator runs single-flight, cancellable preview renders: each
// debounced request supersedes the in-flight job, fetches a proxy,
// rescales the font size to proxy space and composites on a worker
// goroutine. At most one job is alive at any time, so the only
// deliverable result is always the most recently started one.
type Orchestrator struct {
	cache    *ProxyCache
	marker   *visible.Watermarker
	debounce *Debouncer
	grace    time.Duration
	logger   *slog.Logger
	events   chan Event

	mu      sync.Mutex
	current *job
}

type Option func(*Orchestrator)

// WithDebounceDelay overrides the debounce quiet period.
func WithDebounceDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.debounce = NewDebouncer(d) }
}

// WithGracePeriod overrides how long supersession waits for the old job.
func WithGracePeriod(d time.Duration) Option {
	return func(o *Orchestrator) { o.grace = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

func NewOrchestrator(cache *ProxyCache, marker *visible.Watermarker, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cache:  cache,
		marker: marker,
		grace:  DefaultGracePeriod,
		events: make(chan Event, 16),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.debounce == nil {
		o.debounce = NewDebouncer(DefaultDebounceDelay)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// Request submits a preview request. Bursts are debounced; only the
// last request in a quiet window reaches the render pipeline.
func (o *Orchestrator) Request(req Request) {
	o.debounce.Request(req)
}

// Events delivers state notifications. Notifications to a lagging
// consumer are dropped oldest-first; only the newest state matters for
// a preview surface.
func (o *Orchestrator) Events() <-chan Event { return o.events }

// Run consumes debounced triggers until ctx is cancelled. Blocking work
// happens on per-job worker goroutines, never on this loop.
func (o *Orchestrator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			o.debounce.Cancel()
			o.supersede()
			return
		case req := <-o.debounce.C():
			o.start(ctx, req)
		}
	}
}

// Cancel aborts pending and in-flight work without emitting anything.
func (o *Orchestrator) Cancel() {
	o.debounce.Cancel()
	o.supersede()
}

func (o *Orchestrator) start(ctx context.Context, req Request) {
	o.supersede()

	jctx, cancel := context.WithCancel(ctx)
	j := &job{
		id:     uuid.New(),
		req:    req,
		ctx:    jctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	o.mu.Lock()
	o.current = j
	o.mu.Unlock()

	o.emit(Event{State: StateStarting, Job: j.id})
	go o.render(j)
}

// supersede cancels the in-flight job, detaches it so late completions
// are ignored, and waits up to the grace period for it to yield.
func (o *Orchestrator) supersede() {
	o.mu.Lock()
	j := o.current
	o.current = nil
	o.mu.Unlock()
	if j == nil {
		return
	}
	j.cancel()
	select {
	case <-j.done:
	case <-time.After(o.grace):
		// Goroutines cannot be killed; the detached job's publications
		// are discarded by the identity check in publish.
		o.logger.Warn("preview job did not stop within grace period",
			"job", j.id, "grace", o.grace)
	}
}

func (o *Orchestrator) render(j *job) {
	defer close(j.done)
	defer j.cancel()

	if j.req.SourcePath == "" {
		o.publish(j, Event{State: StateError, Job: j.id, Err: ErrNoImage})
		return
	}

	if j.ctx.Err() != nil { // before proxy fetch
		return
	}
	proxy, origSize, err := o.cache.GetProxy(j.req.SourcePath, j.req.MaxDimension)
	if err != nil {
		o.publish(j, Event{State: StateError, Job: j.id, Err: err})
		return
	}
	if j.ctx.Err() != nil { // after proxy fetch
		return
	}

	o.publish(j, Event{State: StateRendering, Job: j.id})

	params := j.req.Params
	params.FontSize = previewFontSize(params.FontSize, proxy.Bounds().Size(), origSize)

	if j.ctx.Err() != nil { // before compositing
		return
	}
	out, err := o.marker.Apply(j.ctx, proxy, params)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		o.publish(j, Event{State: StateError, Job: j.id, Err: err})
		return
	}
	if j.ctx.Err() != nil { // after compositing
		return
	}

	o.publish(j, Event{State: StateReady, Job: j.id, Image: out})
}

// publish forwards ev only while j is still the current job, so a
// superseded job's eventual output is never observable.
func (o *Orchestrator) publish(j *job, ev Event) {
	o.mu.Lock()
	current := o.current == j
	o.mu.Unlock()
	if !current {
		return
	}
	if ev.State == StateError {
		o.logger.Debug("preview failed", "job", j.id, "error", ev.Err)
	}
	o.emit(ev)
}

func (o *Orchestrator) emit(ev Event) {
	for {
		select {
		case o.events <- ev:
			return
		default:
		}
		select {
		case <-o.events: // drop the oldest notification
		default:
		}
	}
}

// previewFontSize maps the requested full-resolution font size onto
// proxy space. Spacing ratios are dimensionless and follow the font
// size automatically, so they are never rescaled.
func previewFontSize(requested int, proxy, original image.Point) int {
	if original.X <= 0 || original.Y <= 0 {
		return requested
	}
	scale := math.Min(
		float64(proxy.X)/float64(original.X),
		float64(proxy.Y)/float64(original.Y),
	)
	size := int(math.Round(float64(requested) * scale))
	if size < 8 {
		size = 8
	}
	return size
}
