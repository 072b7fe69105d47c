package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func newTestBreaker(cfg BreakerConfig) (*Breaker, *time.Time) {
	b := NewBreaker(cfg)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	return b, &now
}

func fail(b *Breaker) error    { return b.Execute(func() error { return errBoom }) }
func succeed(b *Breaker) error { return b.Execute(func() error { return nil }) }

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b, _ := newTestBreaker(BreakerConfig{WindowSize: 4, MinCalls: 4, FailureThreshold: 0.5, Cooldown: time.Minute})

	for i := 0; i < 4; i++ {
		assert.ErrorIs(t, fail(b), errBoom)
	}
	require.Equal(t, StateOpen, b.State())

	// Short-circuits without invoking the call.
	invoked := false
	err := b.Execute(func() error {
		invoked = true
		return nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, invoked)
}

func TestBreaker_StaysClosedUnderThreshold(t *testing.T) {
	b, _ := newTestBreaker(BreakerConfig{WindowSize: 10, MinCalls: 4, FailureThreshold: 0.6, Cooldown: time.Minute})

	for i := 0; i < 5; i++ {
		require.NoError(t, succeed(b))
	}
	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, fail(b), errBoom)
	}
	// 5 of 10 failed, below the 0.6 threshold.
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_MinCallsGuard(t *testing.T) {
	b, _ := newTestBreaker(BreakerConfig{WindowSize: 10, MinCalls: 5, FailureThreshold: 0.5, Cooldown: time.Minute})

	for i := 0; i < 4; i++ {
		assert.ErrorIs(t, fail(b), errBoom)
	}
	// 100% failure but only 4 samples.
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenClosesOnTrialSuccess(t *testing.T) {
	b, now := newTestBreaker(BreakerConfig{WindowSize: 2, MinCalls: 2, FailureThreshold: 0.5, Cooldown: time.Minute, TrialCalls: 1})

	fail(b)
	fail(b)
	require.Equal(t, StateOpen, b.State())

	// Still open before the cooldown elapses.
	assert.ErrorIs(t, succeed(b), ErrOpen)

	*now = now.Add(time.Minute)
	require.NoError(t, succeed(b))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenReopensOnTrialFailure(t *testing.T) {
	b, now := newTestBreaker(BreakerConfig{WindowSize: 2, MinCalls: 2, FailureThreshold: 0.5, Cooldown: time.Minute, TrialCalls: 1})

	fail(b)
	fail(b)
	require.Equal(t, StateOpen, b.State())

	*now = now.Add(time.Minute)
	assert.ErrorIs(t, fail(b), errBoom)
	assert.Equal(t, StateOpen, b.State())

	// The new open period starts from the failed trial.
	assert.ErrorIs(t, succeed(b), ErrOpen)
	*now = now.Add(time.Minute)
	require.NoError(t, succeed(b))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenLimitsConcurrentTrials(t *testing.T) {
	b, now := newTestBreaker(BreakerConfig{WindowSize: 2, MinCalls: 2, FailureThreshold: 0.5, Cooldown: time.Minute, TrialCalls: 2})

	fail(b)
	fail(b)
	*now = now.Add(time.Minute)

	release := make(chan struct{})
	done := make(chan error, 2)
	for i := 0; i < 2; i++ {
		started := make(chan struct{})
		go func() {
			done <- b.Execute(func() error {
				close(started)
				<-release
				return nil
			})
		}()
		<-started
	}

	// Both trial slots are occupied.
	assert.ErrorIs(t, succeed(b), ErrOpen)

	close(release)
	require.NoError(t, <-done)
	require.NoError(t, <-done)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_TrialCompletionFreesSlot(t *testing.T) {
	b, now := newTestBreaker(BreakerConfig{WindowSize: 2, MinCalls: 2, FailureThreshold: 0.5, Cooldown: time.Minute, TrialCalls: 2})

	fail(b)
	fail(b)
	*now = now.Add(time.Minute)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- b.Execute(func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	// Each completed trial releases its slot, so the hung trial holds one
	// slot while finished trials keep flowing through the other.
	require.NoError(t, succeed(b))
	require.NoError(t, succeed(b))
	assert.Equal(t, StateClosed, b.State())

	close(release)
	require.NoError(t, <-done)
}

func TestBreaker_StateChangeCallback(t *testing.T) {
	var transitions []string
	cfg := BreakerConfig{
		WindowSize: 2, MinCalls: 2, FailureThreshold: 0.5,
		Cooldown: time.Minute, TrialCalls: 1,
		OnStateChange: func(from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	}
	b, now := newTestBreaker(cfg)

	fail(b)
	fail(b)
	*now = now.Add(time.Minute)
	succeed(b)

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}
