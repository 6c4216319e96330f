package preview

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/i-doll/tfl/internal/fs"
)

// DefaultDebounce is how long the selection must rest before a load starts.
const DefaultDebounce = 80 * time.Millisecond

// State is the engine's view of the current target.
type State int

const (
	StateIdle State = iota
	StateDebouncing
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDebouncing:
		return "debouncing"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Options configures an Engine.
type Options struct {
	Debounce  time.Duration
	CacheSize int
	// WarmStale lets a superseded job that succeeded populate the cache,
	// provided no newer generation already holds its key.
	WarmStale bool
	Logger    *zap.Logger
}

// Result is a job completion as delivered on the results channel.
type Result struct {
	Key        Key
	Generation uint64
	Payload    *Payload
	Err        error
}

// Engine turns a fast-moving selection into debounced, cached, asynchronous
// preview loads. Every method except the job goroutines runs on the owner's
// goroutine; jobs only talk back through the results channel.
type Engine struct {
	producer Producer
	opts     Options
	logger   *zap.Logger
	cache    *Cache
	results  chan Result
	done     chan struct{}
	group    singleflight.Group

	target     Key
	hasTarget  bool
	state      State
	generation uint64
	deadline   time.Time
	payload    *Payload
	err        error
	cancel     context.CancelFunc
	closed     bool

	// floors hold the generation current at the last invalidation of a
	// path; floorAll is the same for Purge and SetProducer. Results at or
	// below the floor describe content that was thrown away.
	floors   map[string]uint64
	floorAll uint64
}

// NewEngine builds an engine around producer.
func NewEngine(producer Producer, opts Options) *Engine {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		producer: producer,
		opts:     opts,
		logger:   logger,
		cache:    NewCache(opts.CacheSize),
		results:  make(chan Result, 16),
		done:     make(chan struct{}),
		floors:   make(map[string]uint64),
	}
}

func (e *Engine) State() State { return e.state }
func (e *Engine) Generation() uint64 { return e.generation }
func (e *Engine) Payload() *Payload { return e.payload }
func (e *Engine) Err() error { return e.err }
func (e *Engine) Cache() *Cache { return e.cache }
func (e *Engine) Results() <-chan Result { return e.results }

// Target returns the current (path, mode), if any.
func (e *Engine) Target() (Key, bool) {
	return e.target, e.hasTarget
}

// Message is the human-readable failure for StateFailed.
func (e *Engine) Message() string {
	if e.state != StateFailed || e.err == nil {
		return ""
	}
	return ErrorMessage(e.err)
}

// Deadline reports when the pending debounce fires.
func (e *Engine) Deadline() (time.Time, bool) {
	if e.state != StateDebouncing {
		return time.Time{}, false
	}
	return e.deadline, true
}

// Configure applies new options. The cache is resized, not purged.
func (e *Engine) Configure(opts Options) {
	if opts.Debounce > 0 {
		e.opts.Debounce = opts.Debounce
	}
	if opts.CacheSize > 0 && opts.CacheSize != e.opts.CacheSize {
		e.opts.CacheSize = opts.CacheSize
		e.cache.Resize(opts.CacheSize)
	}
	e.opts.WarmStale = opts.WarmStale
}

// SetProducer swaps the producer for future jobs. Jobs still running on the
// old producer can no longer be joined or cached.
func (e *Engine) SetProducer(p Producer) {
	e.producer = p
	e.raiseFloorAll()
}

// Select makes key the current target and restarts the debounce window.
// Reselecting the live target is ignored unless the last load failed.
// It reports whether anything changed.
func (e *Engine) Select(key Key, now time.Time) bool {
	if e.closed {
		return false
	}
	if e.hasTarget && key == e.target && e.state != StateFailed {
		return false
	}
	e.supersede()
	e.target = key
	e.hasTarget = true
	e.state = StateDebouncing
	e.deadline = now.Add(e.opts.Debounce)
	return true
}

// Clear drops the target, for example when the tree is empty.
func (e *Engine) Clear() {
	if !e.hasTarget && e.state == StateIdle {
		return
	}
	e.supersede()
	e.target = Key{}
	e.hasTarget = false
	e.state = StateIdle
}

// supersede invalidates whatever the previous target had in flight.
func (e *Engine) supersede() {
	e.generation++
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.payload = nil
	e.err = nil
}

// Poll fires an elapsed debounce and applies any finished jobs without
// blocking. It reports whether visible state changed.
func (e *Engine) Poll(now time.Time) bool {
	changed := false
	if e.state == StateDebouncing && !now.Before(e.deadline) {
		e.fire()
		changed = true
	}
	for {
		select {
		case r := <-e.results:
			if e.Apply(r) {
				changed = true
			}
		default:
			return changed
		}
	}
}

func (e *Engine) fire() {
	key := e.target
	if payload, ok := e.cache.Get(key); ok {
		e.state = StateReady
		e.payload = payload
		return
	}

	e.generation++
	gen := e.generation
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.state = StateLoading
	e.logger.Debug("preview job started",
		zap.String("path", key.Path),
		zap.Stringer("mode", key.Mode),
		zap.Uint64("generation", gen))

	go e.run(ctx, key, e.flightKey(key), gen, e.producer)
}

// flightKey names the singleflight call for key. It changes whenever key is
// invalidated so a new job never joins a call started before that.
func (e *Engine) flightKey(key Key) string {
	return fmt.Sprintf("%s@%d", key, e.floor(key.Path))
}

func (e *Engine) floor(path string) uint64 {
	return max(e.floors[path], e.floorAll)
}

func (e *Engine) raiseFloorAll() {
	e.floorAll = e.generation
	clear(e.floors)
}

func (e *Engine) run(ctx context.Context, key Key, flight string, gen uint64, producer Producer) {
	v, err, shared := e.group.Do(flight, func() (interface{}, error) {
		return produceSafely(ctx, producer, key)
	})
	// A shared call may have run under a context that was cancelled for
	// another caller; retry under our own if we are still wanted.
	if shared && isCancellation(err) && ctx.Err() == nil {
		v, err = produceSafely(ctx, producer, key)
	}

	r := Result{Key: key, Generation: gen, Err: err}
	if p, ok := v.(*Payload); ok {
		r.Payload = p
	}
	select {
	case e.results <- r:
	case <-e.done:
	}
}

func produceSafely(ctx context.Context, producer Producer, key Key) (p *Payload, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			p, err = nil, fmt.Errorf("preview producer panicked: %v", rec)
		}
	}()
	return producer.Produce(ctx, key.Path, key.Mode)
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Apply handles one completion. Completions from a superseded generation
// or for another target are dropped; with WarmStale a successful one may
// still seed the cache. It reports whether visible state changed.
func (e *Engine) Apply(r Result) bool {
	if e.state != StateLoading || !e.hasTarget || r.Generation != e.generation || r.Key != e.target {
		if e.opts.WarmStale && r.Err == nil && r.Payload != nil && r.Generation > e.floor(r.Key.Path) {
			if e.cache.Put(r.Key, r.Payload, r.Generation) {
				e.logger.Debug("stale preview cached",
					zap.String("path", r.Key.Path), zap.Uint64("generation", r.Generation))
				return false
			}
		}
		e.logger.Debug("stale preview discarded",
			zap.String("path", r.Key.Path),
			zap.Uint64("generation", r.Generation),
			zap.Uint64("live", e.generation))
		return false
	}

	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	if r.Err == nil && r.Payload == nil {
		r.Err = fs.NewError(fs.KindUnsupportedType, "preview", r.Key.Path, nil)
	}
	if r.Err != nil {
		e.state = StateFailed
		e.err = r.Err
		e.payload = nil
		e.logger.Debug("preview failed", zap.String("path", r.Key.Path), zap.Error(r.Err))
		return true
	}
	e.cache.Put(r.Key, r.Payload, r.Generation)
	e.state = StateReady
	e.payload = r.Payload
	return true
}

// Invalidate drops every cached mode of path. If path is the live target
// it is loaded again on the next Poll.
func (e *Engine) Invalidate(path string) {
	e.floors[path] = e.generation
	e.cache.RemovePath(path)
	if e.hasTarget && e.target.Path == path {
		e.restart()
	}
}

// Purge empties the cache and reloads the live target.
func (e *Engine) Purge() {
	e.raiseFloorAll()
	e.cache.Purge()
	if e.hasTarget {
		e.restart()
	}
}

func (e *Engine) restart() {
	if e.closed {
		return
	}
	e.supersede()
	e.state = StateDebouncing
	e.deadline = time.Time{}
}

// Close cancels any running job and releases blocked job goroutines.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	close(e.done)
}

// ErrorMessage turns a producer error into the text shown in the preview pane.
func ErrorMessage(err error) string {
	switch fs.KindOf(err) {
	case fs.KindTooLarge:
		return "File too large to preview"
	case fs.KindUnsupportedType:
		return "No preview available for this file type"
	case fs.KindParse:
		return "Could not parse file: " + rootCause(err)
	case fs.KindPermissionDenied:
		return "Permission denied"
	case fs.KindNotFound:
		return "File no longer exists"
	}
	return err.Error()
}

func rootCause(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
