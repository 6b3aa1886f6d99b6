package progress

import (
	"sync"
	"time"
)

// DefaultThrottleWindow matches the scroll-tick cadence the reading
// surface uses.
const DefaultThrottleWindow = 500 * time.Millisecond

// Recorder coalesces rapid scroll ticks into at most one store write
// per throttle window, trailing edge: the last tick observed in a
// window is the one persisted.
type Recorder struct {
	store  *Store
	window time.Duration

	mu      sync.Mutex
	pending *pendingTick
	timer   *time.Timer
	errFn   func(error)
}

type pendingTick struct {
	sourceURL string
	tick      Tick
}

// NewRecorder wraps a Store. errFn receives write failures, which are
// otherwise swallowed: a lost tick degrades to a no-op, never an
// interruption of reading. A nil errFn ignores them.
func NewRecorder(store *Store, window time.Duration, errFn func(error)) *Recorder {
	if window <= 0 {
		window = DefaultThrottleWindow
	}
	if errFn == nil {
		errFn = func(error) {}
	}
	return &Recorder{store: store, window: window, errFn: errFn}
}

// Observe notes a scroll tick. The first tick in a quiet period starts
// the window; later ticks replace the pending one.
func (r *Recorder) Observe(sourceURL string, tick Tick) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending = &pendingTick{sourceURL: sourceURL, tick: tick}
	if r.timer == nil {
		r.timer = time.AfterFunc(r.window, r.fire)
	}
}

// Flush writes any pending tick immediately and stops the timer.
func (r *Recorder) Flush() {
	r.mu.Lock()
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	pending := r.pending
	r.pending = nil
	r.mu.Unlock()

	if pending != nil {
		if err := r.store.RecordProgress(pending.sourceURL, pending.tick); err != nil {
			r.errFn(err)
		}
	}
}

func (r *Recorder) fire() {
	r.mu.Lock()
	r.timer = nil
	pending := r.pending
	r.pending = nil
	r.mu.Unlock()

	if pending != nil {
		if err := r.store.RecordProgress(pending.sourceURL, pending.tick); err != nil {
			r.errFn(err)
		}
	}
}
