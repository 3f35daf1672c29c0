package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tourvia/models"
)

// instantClock fires every timer immediately so polling loops run at test
// speed.
type instantClock struct{}

func (instantClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

func (instantClock) Now() time.Time { return time.Now() }

// frozenClock never fires a timer, so the loop parks on its first wait.
type frozenClock struct{}

func (frozenClock) After(d time.Duration) <-chan time.Time {
	return make(chan time.Time)
}

func (frozenClock) Now() time.Time { return time.Now() }

// scriptedCommitter replays a fixed error sequence, then keeps returning the
// last entry. A nil entry is a successful commit.
type scriptedCommitter struct {
	mu      sync.Mutex
	script  []error
	calls   int
	booking *models.Booking
}

func (c *scriptedCommitter) CommitTransition(ctx context.Context, bookingID int64, target models.BookingStatus, actor Actor, reason string) (*models.Booking, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	idx := c.calls - 1
	if idx >= len(c.script) {
		idx = len(c.script) - 1
	}
	if err := c.script[idx]; err != nil {
		return nil, err
	}
	return c.booking, nil
}

func (c *scriptedCommitter) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestPollerSucceedsAfterRetries(t *testing.T) {
	committer := &scriptedCommitter{
		script: []error{
			ErrReconciliationNotFound,
			ErrReconciliationNotFound,
			ErrReconciliationNotFound,
			nil,
		},
		booking: &models.Booking{BookingID: 1, Status: models.StatusCancelled},
	}
	p := NewPoller(1, ActorCustomer, committer, instantClock{}, zap.NewNop())

	result := <-p.Start(context.Background())
	require.Equal(t, PollSucceeded, result.Outcome)
	require.Equal(t, 4, result.Attempts)
	require.Equal(t, models.StatusCancelled, result.Booking.Status)

	// No attempt fires after the terminal result.
	p.wait()
	require.Equal(t, 4, committer.callCount())
}

func TestPollerExhaustsBudget(t *testing.T) {
	committer := &scriptedCommitter{script: []error{ErrReconciliationNotFound}}
	p := NewPoller(1, ActorCustomer, committer, instantClock{}, zap.NewNop())

	result := <-p.Start(context.Background())
	require.Equal(t, PollExhausted, result.Outcome)
	require.Equal(t, ReconcileMaxAttempts, result.Attempts)
	require.ErrorIs(t, result.LastErr, ErrReconciliationNotFound)
	require.Equal(t, ReconcileMaxAttempts, committer.callCount())
}

func TestPollerTransientFaultsShareBudget(t *testing.T) {
	committer := &scriptedCommitter{script: []error{&TransientError{Err: context.DeadlineExceeded}}}
	p := NewPoller(1, ActorCustomer, committer, instantClock{}, zap.NewNop())

	result := <-p.Start(context.Background())
	require.Equal(t, PollExhausted, result.Outcome)
	require.Equal(t, ReconcileMaxAttempts, result.Attempts)
	require.True(t, IsTransient(result.LastErr))
}

func TestPollerStopBeforeFirstAttempt(t *testing.T) {
	committer := &scriptedCommitter{script: []error{nil}}
	p := NewPoller(1, ActorCustomer, committer, frozenClock{}, zap.NewNop())

	results := p.Start(context.Background())
	p.Stop()

	result := <-results
	require.Equal(t, PollStopped, result.Outcome)
	require.Zero(t, result.Attempts)
	require.Zero(t, committer.callCount())
}

func TestPollerStoppedBeforeStartNeverCommits(t *testing.T) {
	// Even with a timer already expired, a stopped poller must not commit.
	committer := &scriptedCommitter{script: []error{nil}}
	p := NewPoller(1, ActorCustomer, committer, instantClock{}, zap.NewNop())
	p.Stop()

	result := <-p.Start(context.Background())
	require.Equal(t, PollStopped, result.Outcome)
	require.Zero(t, committer.callCount())
}

func TestPollerContextCancellation(t *testing.T) {
	committer := &scriptedCommitter{script: []error{nil}}
	p := NewPoller(1, ActorCustomer, committer, frozenClock{}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	results := p.Start(ctx)
	cancel()

	result := <-results
	require.Equal(t, PollStopped, result.Outcome)
	require.Zero(t, committer.callCount())
}

func TestRegistryRejectsConcurrentSessions(t *testing.T) {
	registry := NewPollerRegistry()
	committer := &scriptedCommitter{script: []error{ErrReconciliationNotFound}}

	p, _, err := registry.Begin(context.Background(), 7, ActorCustomer, committer, frozenClock{}, zap.NewNop())
	require.NoError(t, err)

	_, _, err = registry.Begin(context.Background(), 7, ActorCustomer, committer, frozenClock{}, zap.NewNop())
	require.Error(t, err)

	// A different booking is unaffected.
	_, _, err = registry.Begin(context.Background(), 8, ActorCustomer, committer, frozenClock{}, zap.NewNop())
	require.NoError(t, err)

	registry.StopFor(7)
	registry.StopFor(8)
	p.wait()
}

func TestRegistryStopForWaitsAndFreesSlot(t *testing.T) {
	registry := NewPollerRegistry()
	committer := &scriptedCommitter{script: []error{ErrReconciliationNotFound}}

	_, results, err := registry.Begin(context.Background(), 7, ActorCustomer, committer, frozenClock{}, zap.NewNop())
	require.NoError(t, err)

	registry.StopFor(7)
	result := <-results
	require.Equal(t, PollStopped, result.Outcome)

	// The slot is free again once the loop has exited.
	_, _, err = registry.Begin(context.Background(), 7, ActorCustomer, committer, frozenClock{}, zap.NewNop())
	require.NoError(t, err)
	registry.StopFor(7)
}

func TestRegistrySlotFreedAfterTerminalResult(t *testing.T) {
	registry := NewPollerRegistry()
	committer := &scriptedCommitter{
		script:  []error{nil},
		booking: &models.Booking{BookingID: 9, Status: models.StatusCancelled},
	}

	p, results, err := registry.Begin(context.Background(), 9, ActorCustomer, committer, instantClock{}, zap.NewNop())
	require.NoError(t, err)

	result := <-results
	require.Equal(t, PollSucceeded, result.Outcome)
	p.wait()

	_, _, err = registry.Begin(context.Background(), 9, ActorCustomer, committer, instantClock{}, zap.NewNop())
	require.NoError(t, err)
	registry.StopFor(9)
}
