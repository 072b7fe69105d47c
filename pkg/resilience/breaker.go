package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned by Execute when the breaker short-circuits a call.
var ErrOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

type BreakerConfig struct {
	// WindowSize is the number of most recent call outcomes tracked while closed.
	WindowSize int
	// MinCalls is the number of recorded outcomes required before the failure
	// ratio is evaluated at all.
	MinCalls int
	// FailureThreshold is the failure ratio over the window that opens the breaker.
	FailureThreshold float64
	// Cooldown is how long the breaker stays open before admitting trial calls.
	Cooldown time.Duration
	// TrialCalls is how many consecutive trial calls must succeed in the
	// half-open state before the breaker closes again. It also caps how many
	// trials may be in flight at once.
	TrialCalls int
	// OnStateChange, if set, is called after every state transition.
	OnStateChange func(from, to State)
}

// Breaker is a circuit breaker guarding a single downstream operation group.
// State transitions are serialized by a mutex, so concurrent callers observe
// them in a consistent order.
type Breaker struct {
	cfg BreakerConfig
	now func() time.Time

	mu             sync.Mutex
	state          State
	window         []bool // ring buffer of outcomes, true marks a failure
	idx            int
	count          int
	failures       int
	openedAt       time.Time
	trialInFlight  int
	trialSuccesses int
}

func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 10
	}
	if cfg.MinCalls <= 0 {
		cfg.MinCalls = cfg.WindowSize / 2
	}
	if cfg.MinCalls <= 0 {
		cfg.MinCalls = 1
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 0.5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.TrialCalls <= 0 {
		cfg.TrialCalls = 1
	}
	return &Breaker{
		cfg:    cfg,
		now:    time.Now,
		window: make([]bool, cfg.WindowSize),
	}
}

// Execute runs fn unless the breaker is open, recording the outcome.
// When the breaker is open and the cooldown has not elapsed, fn is not
// invoked and ErrOpen is returned.
func (b *Breaker) Execute(fn func() error) error {
	if err := b.allow(); err != nil {
		return err
	}
	err := fn()
	b.record(err == nil)
	return err
}

// State returns the current breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.cfg.Cooldown {
			return ErrOpen
		}
		b.transition(StateHalfOpen)
		b.trialInFlight = 1
		b.trialSuccesses = 0
		return nil
	case StateHalfOpen:
		if b.trialInFlight >= b.cfg.TrialCalls {
			return ErrOpen
		}
		b.trialInFlight++
		return nil
	}
	return nil
}

func (b *Breaker) record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.push(!success)
		if b.count >= b.cfg.MinCalls && b.failureRatio() >= b.cfg.FailureThreshold {
			b.open()
		}
	case StateHalfOpen:
		// The trial slot is freed as soon as its outcome is known, so a
		// trial that never returns cannot pin the breaker in half-open.
		if b.trialInFlight > 0 {
			b.trialInFlight--
		}
		if !success {
			b.open()
			return
		}
		b.trialSuccesses++
		if b.trialSuccesses >= b.cfg.TrialCalls {
			b.transition(StateClosed)
			b.resetWindow()
		}
	case StateOpen:
		// A call admitted before another caller opened the breaker; its
		// outcome no longer matters.
	}
}

func (b *Breaker) open() {
	b.transition(StateOpen)
	b.openedAt = b.now()
	b.resetWindow()
}

func (b *Breaker) transition(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(from, to)
	}
}

func (b *Breaker) push(failed bool) {
	if b.count == len(b.window) {
		if b.window[b.idx] {
			b.failures--
		}
	} else {
		b.count++
	}
	b.window[b.idx] = failed
	if failed {
		b.failures++
	}
	b.idx = (b.idx + 1) % len(b.window)
}

func (b *Breaker) failureRatio() float64 {
	if b.count == 0 {
		return 0
	}
	return float64(b.failures) / float64(b.count)
}

func (b *Breaker) resetWindow() {
	for i := range b.window {
		b.window[i] = false
	}
	b.idx = 0
	b.count = 0
	b.failures = 0
	b.trialInFlight = 0
	b.trialSuccesses = 0
}
