package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBreaker(t *testing.T) {
	b := New("kafka")
	assert.Equal(t, "kafka", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.False(t, b.IsOpen())
}

// outcome is one produce attempt: true for success.
type outcome bool

const (
	ok   outcome = true
	fail outcome = false
)

func TestBreakerTransitions(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		successes int
		attempts  []outcome
		wantOpen  bool
		opened    int
		closed    int
	}{
		{
			name:     "opens on the threshold failure",
			failures: 3, successes: 1,
			attempts: []outcome{fail, fail, fail},
			wantOpen: true, opened: 1,
		},
		{
			name:     "a success between failures resets the run",
			failures: 3, successes: 1,
			attempts: []outcome{fail, fail, ok, fail, fail},
			wantOpen: false,
		},
		{
			name:     "broker outage then recovery",
			failures: 2, successes: 2,
			attempts: []outcome{fail, fail, ok, ok},
			wantOpen: false, opened: 1, closed: 1,
		},
		{
			name:     "a failure while recovering restarts the success run",
			failures: 1, successes: 2,
			attempts: []outcome{fail, ok, fail, ok},
			wantOpen: true, opened: 1,
		},
		{
			name:     "failures while open do not report a new opening",
			failures: 1, successes: 1,
			attempts: []outcome{fail, fail, fail},
			wantOpen: true, opened: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("kafka", WithFailureThreshold(tt.failures), WithSuccessThreshold(tt.successes))
			var opened, closed int
			for _, attempt := range tt.attempts {
				var change StateChange
				if attempt == ok {
					_, change = b.RecordSuccess()
				} else {
					_, change = b.RecordFailure()
				}
				if change.Opened {
					opened++
				}
				if change.Closed {
					closed++
				}
			}
			assert.Equal(t, tt.wantOpen, b.IsOpen())
			assert.Equal(t, tt.opened, opened)
			assert.Equal(t, tt.closed, closed)
		})
	}
}

func TestBreakerFallbackSignals(t *testing.T) {
	b := New("kafka", WithFailureThreshold(2), WithSuccessThreshold(1))

	useFallback, _ := b.RecordFailure()
	assert.False(t, useFallback, "below threshold keeps the primary path")

	useFallback, _ = b.RecordFailure()
	assert.True(t, useFallback)

	usePrimary, change := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
}

func TestBreakerReset(t *testing.T) {
	b := New("kafka", WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())

	_, change := b.RecordFailure()
	assert.True(t, change.Opened, "counters start fresh after reset")
}

func TestBreakerDefaultThresholds(t *testing.T) {
	b := New("kafka", WithFailureThreshold(0), WithSuccessThreshold(-1))
	for i := 0; i < defaultFailureThreshold-1; i++ {
		b.RecordFailure()
	}
	assert.False(t, b.IsOpen())
	b.RecordFailure()
	assert.True(t, b.IsOpen())

	for i := 0; i < defaultSuccessThreshold; i++ {
		b.RecordSuccess()
	}
	assert.False(t, b.IsOpen())
}
