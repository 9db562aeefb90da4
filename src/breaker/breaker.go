package breaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gammazero/deque"
)

// -----------------------------------------------------------------------------
// Circuit breaker wrapping a single fallible operation. One instance per
// wrapped upstream capability; shared by every caller of that capability.
// -----------------------------------------------------------------------------

type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned by Fire while the circuit is open and no fallback is
// registered.
var ErrOpen = errors.New("circuit open")

// -----------------------------------------------------------------------------

type Settings struct {
	Name string

	// Timeout is the per-call budget; an operation running past it counts
	// as a failure.
	Timeout time.Duration

	// ErrorThreshold opens the circuit when the failure rate over the
	// rolling window reaches it (0..1].
	ErrorThreshold float64

	// ResetTimeout is how long the circuit stays open before a half-open
	// trial call is allowed through.
	ResetTimeout time.Duration

	// WindowSize bounds the rolling outcome window.
	WindowSize int

	// OnStateChange observes transitions (logging/health). Called outside
	// the breaker lock.
	OnStateChange func(name string, from, to State)
}

// -----------------------------------------------------------------------------

type Breaker[A, V any] struct {
	name           string
	timeout        time.Duration
	errorThreshold float64
	resetTimeout   time.Duration
	windowSize     int
	onStateChange  func(name string, from, to State)

	op       func(ctx context.Context, arg A) (V, error)
	fallback func(arg A) V

	mu       sync.Mutex
	state    State
	window   deque.Deque[bool] // true = failure
	failures int
	openedAt time.Time
	trialing bool // a half-open trial call is in flight
}

// -----------------------------------------------------------------------------

func New[A, V any](st Settings, op func(ctx context.Context, arg A) (V, error)) *Breaker[A, V] {
	b := &Breaker[A, V]{
		name:           st.Name,
		timeout:        st.Timeout,
		errorThreshold: st.ErrorThreshold,
		resetTimeout:   st.ResetTimeout,
		windowSize:     st.WindowSize,
		onStateChange:  st.OnStateChange,
		op:             op,
	}
	if b.timeout <= 0 {
		b.timeout = 15 * time.Second
	}
	if b.errorThreshold <= 0 || b.errorThreshold > 1 {
		b.errorThreshold = 0.5
	}
	if b.resetTimeout <= 0 {
		b.resetTimeout = 30 * time.Second
	}
	if b.windowSize <= 0 {
		b.windowSize = 10
	}
	return b
}

// -----------------------------------------------------------------------------

// WithFallback registers a value returned instead of an error on open-circuit
// fast fails and on operation failures.
func (b *Breaker[A, V]) WithFallback(fn func(arg A) V) *Breaker[A, V] {
	b.fallback = fn
	return b
}

// -----------------------------------------------------------------------------

// Fire invokes the wrapped operation unless the circuit is open. While open
// it returns the fallback (or ErrOpen) without touching the upstream.
func (b *Breaker[A, V]) Fire(ctx context.Context, arg A) (V, error) {
	b.mu.Lock()

	if b.state == Open {
		if time.Since(b.openedAt) < b.resetTimeout {
			b.mu.Unlock()
			return b.reject(arg)
		}
		b.setState(HalfOpen)
		b.trialing = false
	}

	if b.state == HalfOpen {
		if b.trialing {
			// Only one trial call passes through
			b.mu.Unlock()
			return b.reject(arg)
		}
		b.trialing = true
	}
	b.mu.Unlock()

	val, err := b.call(ctx, arg)
	b.record(err == nil)

	if err != nil {
		if b.fallback != nil {
			return b.fallback(arg), nil
		}
		var zero V
		return zero, err
	}
	return val, nil
}

// -----------------------------------------------------------------------------

// IsOpen reports whether calls are currently fast-failed. Used by callers
// that annotate staleness on served records.
func (b *Breaker[A, V]) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == Open
}

func (b *Breaker[A, V]) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker[A, V]) Name() string {
	return b.name
}

// -----------------------------------------------------------------------------

// call runs op with the per-call timeout. The goroutine shields callers from
// operations that ignore context cancellation.
func (b *Breaker[A, V]) call(ctx context.Context, arg A) (V, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	type result struct {
		val V
		err error
	}
	done := make(chan result, 1)

	go func() {
		v, err := b.op(ctx, arg)
		done <- result{val: v, err: err}
	}()

	select {
	case r := <-done:
		return r.val, r.err
	case <-ctx.Done():
		var zero V
		return zero, fmt.Errorf("%s: %w", b.name, ctx.Err())
	}
}

// -----------------------------------------------------------------------------

func (b *Breaker[A, V]) reject(arg A) (V, error) {
	if b.fallback != nil {
		return b.fallback(arg), nil
	}
	var zero V
	return zero, fmt.Errorf("%s: %w", b.name, ErrOpen)
}

// -----------------------------------------------------------------------------

// record feeds one call outcome into the state machine.
func (b *Breaker[A, V]) record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case HalfOpen:
		b.trialing = false
		if success {
			b.setState(Closed)
			b.resetWindow()
		} else {
			b.setState(Open)
			b.openedAt = time.Now()
		}

	case Closed:
		b.push(!success)
		if b.window.Len() > 0 {
			rate := float64(b.failures) / float64(b.window.Len())
			if rate >= b.errorThreshold {
				b.setState(Open)
				b.openedAt = time.Now()
			}
		}

	case Open:
		// Late completion of a call that started before the circuit
		// opened; the opener already accounted for the window.
	}
}

// -----------------------------------------------------------------------------

// push appends an outcome to the rolling window, evicting the oldest entry
// once the window is full. Callers must hold b.mu.
func (b *Breaker[A, V]) push(failed bool) {
	b.window.PushBack(failed)
	if failed {
		b.failures++
	}
	for b.window.Len() > b.windowSize {
		if b.window.PopFront() {
			b.failures--
		}
	}
}

func (b *Breaker[A, V]) resetWindow() {
	b.window.Clear()
	b.failures = 0
}

// -----------------------------------------------------------------------------

// setState transitions and notifies. Callers must hold b.mu; the observer is
// invoked on a fresh goroutine so it can take its own locks.
func (b *Breaker[A, V]) setState(to State) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to
	if b.onStateChange != nil {
		go b.onStateChange(b.name, from, to)
	}
}
