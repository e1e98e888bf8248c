// Package circuit implements a minimal failure-count circuit breaker used by
// protocol clients to stop hammering an upstream (registry, DNS resolver)
// that is already failing.
package circuit

import "sync"

// State is the breaker's current disposition.
type State string

const (
	StateClosed State = "closed"
	StateOpen   State = "open"
)

// Change describes a state transition caused by a single Record call.
type Change struct {
	Opened bool
	Closed bool
}

// Breaker counts consecutive failures and successes and flips between
// StateClosed and StateOpen. There is no automatic half-open timer: callers
// decide when to retry and report the outcome via RecordSuccess/RecordFailure.
type Breaker struct {
	mu sync.Mutex

	name             string
	failureThreshold int
	successThreshold int

	state           State
	consecutiveFail int
	consecutiveOK   int
}

// Option configures a Breaker at construction.
type Option func(*Breaker)

// WithFailureThreshold sets how many consecutive failures open the circuit.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) { b.failureThreshold = n }
}

// WithSuccessThreshold sets how many consecutive successes close an open circuit.
func WithSuccessThreshold(n int) Option {
	return func(b *Breaker) { b.successThreshold = n }
}

// New creates a closed Breaker identified by name.
func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		failureThreshold: 5,
		successThreshold: 1,
		state:            StateClosed,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Breaker) Name() string { return b.name }

// State returns the breaker's current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// IsOpen reports whether the breaker is currently open.
func (b *Breaker) IsOpen() bool {
	return b.State() == StateOpen
}

// RecordFailure registers a failed call. useFallback is true when the caller
// should skip the primary path (breaker already open, or just opened).
func (b *Breaker) RecordFailure() (useFallback bool, change Change) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveOK = 0
	if b.state == StateOpen {
		return true, Change{}
	}

	b.consecutiveFail++
	if b.consecutiveFail >= b.failureThreshold {
		b.state = StateOpen
		b.consecutiveFail = 0
		return true, Change{Opened: true}
	}
	return false, Change{}
}

// RecordSuccess registers a successful call. usePrimary is true when the
// circuit is (now) closed and the primary path should be used going forward.
func (b *Breaker) RecordSuccess() (usePrimary bool, change Change) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFail = 0
	if b.state == StateClosed {
		return true, Change{}
	}

	b.consecutiveOK++
	if b.consecutiveOK >= b.successThreshold {
		b.state = StateClosed
		b.consecutiveOK = 0
		return true, Change{Closed: true}
	}
	return false, Change{}
}

// Reset forces the breaker back to StateClosed, clearing all counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.consecutiveFail = 0
	b.consecutiveOK = 0
}
