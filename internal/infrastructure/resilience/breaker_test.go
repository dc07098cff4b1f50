package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream failed")

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name          string
		settings      Settings
		calls         []bool // true = success, false = failure
		expectedState State
	}{
		{
			name: "stays closed on successes",
			settings: Settings{
				Threshold: 3,
				Window:    time.Minute,
				Cooldown:  time.Minute,
			},
			calls:         []bool{true, true, true},
			expectedState: StateClosed,
		},
		{
			name: "opens after consecutive failures",
			settings: Settings{
				Threshold: 3,
				Window:    time.Minute,
				Cooldown:  time.Minute,
			},
			calls:         []bool{false, false, false},
			expectedState: StateOpen,
		},
		{
			name: "success resets the failure streak",
			settings: Settings{
				Threshold: 3,
				Window:    time.Minute,
				Cooldown:  time.Minute,
			},
			calls:         []bool{false, false, true, false, false},
			expectedState: StateClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			breaker := New("test", tt.settings)

			for _, success := range tt.calls {
				_ = breaker.Do(func() error {
					if success {
						return nil
					}
					return errUpstream
				})
			}

			assert.Equal(t, tt.expectedState, breaker.State())
		})
	}
}

func TestBreakerRejectsWhenOpen(t *testing.T) {
	breaker := New("test", Settings{
		Threshold: 1,
		Cooldown:  time.Minute,
	})

	require.Error(t, breaker.Do(func() error { return errUpstream }))
	assert.Equal(t, StateOpen, breaker.State())

	called := false
	err := breaker.Do(func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestBreakerRecovery(t *testing.T) {
	var transitions []State
	breaker := New("test", Settings{
		Threshold: 1,
		Cooldown:  10 * time.Millisecond,
		Probes:    1,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, to)
		},
	})

	require.Error(t, breaker.Do(func() error { return errUpstream }))
	assert.Equal(t, StateOpen, breaker.State())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, breaker.State())

	require.NoError(t, breaker.Do(func() error { return nil }))
	assert.Equal(t, StateClosed, breaker.State())
	assert.Equal(t, []State{StateOpen, StateHalfOpen, StateClosed}, transitions)
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	breaker := New("test", Settings{
		Threshold: 1,
		Cooldown:  10 * time.Millisecond,
		Probes:    1,
	})

	require.Error(t, breaker.Do(func() error { return errUpstream }))
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, StateHalfOpen, breaker.State())

	require.Error(t, breaker.Do(func() error { return errUpstream }))
	assert.Equal(t, StateOpen, breaker.State())
}

func TestBreakerHalfOpenProbeBudget(t *testing.T) {
	breaker := New("test", Settings{
		Threshold: 1,
		Cooldown:  10 * time.Millisecond,
		Probes:    1,
	})

	require.Error(t, breaker.Do(func() error { return errUpstream }))
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, StateHalfOpen, breaker.State())

	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = breaker.Do(func() error {
			<-release
			return nil
		})
	}()

	// Wait for the probe to occupy the half-open budget.
	assert.Eventually(t, func() bool {
		return breaker.Counts().Requests == 1
	}, time.Second, time.Millisecond)

	err := breaker.Do(func() error { return nil })
	assert.ErrorIs(t, err, ErrTooManyProbes)

	close(release)
	<-done
	assert.Equal(t, StateClosed, breaker.State())
}

func TestBreakerCounts(t *testing.T) {
	breaker := New("test", Settings{Threshold: 10})

	require.NoError(t, breaker.Do(func() error { return nil }))
	require.NoError(t, breaker.Do(func() error { return nil }))
	require.Error(t, breaker.Do(func() error { return errUpstream }))

	counts := breaker.Counts()
	assert.Equal(t, uint32(3), counts.Requests)
	assert.Equal(t, uint32(2), counts.TotalSuccesses)
	assert.Equal(t, uint32(1), counts.TotalFailures)
	assert.Equal(t, uint32(1), counts.ConsecutiveFailures)
	assert.Equal(t, uint32(0), counts.ConsecutiveSuccesses)
}

func TestBreakerNameAndDefaults(t *testing.T) {
	breaker := New("assistant", Settings{})
	assert.Equal(t, "assistant", breaker.Name())
	assert.Equal(t, StateClosed, breaker.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "unknown", State(99).String())
}
