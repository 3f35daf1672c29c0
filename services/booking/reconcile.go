package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tourvia/models"
	"tourvia/utils"

	"go.uber.org/zap"
)

// Reconciliation polling schedule. The budget is the attempt count, not a
// wall-clock timeout: each attempt already has its own completion semantics.
const (
	ReconcileMaxAttempts = 12
	ReconcileInterval    = 5 * time.Second
)

// PollOutcome classifies how a reconciliation session ended.
type PollOutcome string

const (
	PollSucceeded PollOutcome = "succeeded"
	PollExhausted PollOutcome = "exhausted"
	PollStopped   PollOutcome = "stopped"
)

// PollResult is the single terminal report of a poller. When the outcome is
// PollExhausted, LastErr tells the caller whether the last miss was the
// ordinary not-yet-settled result (steer the user to manual confirmation) or a
// transient fault (tell them to check connectivity).
type PollResult struct {
	Outcome  PollOutcome
	Booking  *models.Booking
	Attempts int
	LastErr  error
}

// Poller drives the bounded retry loop that detects a settled refund
// transfer. Every attempt issues the same idempotent commit the manual gate
// would; the server side is the arbiter of whether the transfer cleared.
// Attempts are strictly sequential and a stopped poller never commits again.
type Poller struct {
	bookingID   int64
	actor       Actor
	committer   Committer
	clock       utils.Clock
	interval    time.Duration
	maxAttempts int
	logger      *zap.Logger

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	stop    chan struct{}
	done    chan struct{}
	result  chan PollResult
	onDone  func()
}

// NewPoller builds a poller with the fixed production schedule.
func NewPoller(bookingID int64, actor Actor, committer Committer, clock utils.Clock, logger *zap.Logger) *Poller {
	if clock == nil {
		clock = utils.RealClock{}
	}
	return &Poller{
		bookingID:   bookingID,
		actor:       actor,
		committer:   committer,
		clock:       clock,
		interval:    ReconcileInterval,
		maxAttempts: ReconcileMaxAttempts,
		logger:      logger,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
		result:      make(chan PollResult, 1),
	}
}

// Start launches the polling loop. The returned channel delivers exactly one
// terminal PollResult. Starting twice returns the same channel.
func (p *Poller) Start(ctx context.Context) <-chan PollResult {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return p.result
	}
	p.started = true
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.mu.Unlock()

	go p.loop(runCtx)
	return p.result
}

// Stop deterministically prevents any further attempt from firing, including
// an attempt whose timer is already scheduled, and aborts an in-flight commit
// request.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.stopped = true
	close(p.stop)
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *Poller) isStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

// wait blocks until the loop has exited. Returns immediately for a poller
// that was never started.
func (p *Poller) wait() {
	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if started {
		<-p.done
	}
}

func (p *Poller) loop(ctx context.Context) {
	defer close(p.done)
	defer func() {
		if p.onDone != nil {
			p.onDone()
		}
	}()

	var lastErr error
	attempts := 0
	for attempts < p.maxAttempts {
		select {
		case <-ctx.Done():
			p.finish(PollResult{Outcome: PollStopped, Attempts: attempts})
			return
		case <-p.stop:
			p.finish(PollResult{Outcome: PollStopped, Attempts: attempts})
			return
		case <-p.clock.After(p.interval):
		}
		// The timer may have raced Stop; a stopped poller must not commit.
		if p.isStopped() || ctx.Err() != nil {
			p.finish(PollResult{Outcome: PollStopped, Attempts: attempts})
			return
		}

		attempts++
		booking, err := p.committer.CommitTransition(ctx, p.bookingID, models.StatusCancelled, p.actor, "")
		if err == nil {
			p.logger.Info("refund reconciliation succeeded",
				zap.Int64("booking", p.bookingID), zap.Int("attempts", attempts))
			p.finish(PollResult{Outcome: PollSucceeded, Booking: booking, Attempts: attempts})
			return
		}

		// Not-found is the expected steady state; transient faults retry
		// within the same budget so an outage cannot burn extra attempts.
		lastErr = err
		if errors.Is(err, ErrReconciliationNotFound) {
			p.logger.Debug("refund transfer not yet settled",
				zap.Int64("booking", p.bookingID), zap.Int("attempt", attempts))
		} else {
			p.logger.Warn("reconciliation attempt failed",
				zap.Int64("booking", p.bookingID), zap.Int("attempt", attempts), zap.Error(err))
		}
	}

	p.finish(PollResult{Outcome: PollExhausted, Attempts: attempts, LastErr: lastErr})
}

func (p *Poller) finish(r PollResult) {
	p.result <- r
}

// PollerRegistry guarantees at most one active reconciliation poller per
// booking and lets the manual gate stop a running one before taking over.
type PollerRegistry struct {
	mu     sync.Mutex
	active map[int64]*Poller
}

func NewPollerRegistry() *PollerRegistry {
	return &PollerRegistry{active: make(map[int64]*Poller)}
}

// Begin registers and starts a poller for the booking. It fails if a session
// is already active for the same booking.
func (r *PollerRegistry) Begin(ctx context.Context, bookingID int64, actor Actor, committer Committer, clock utils.Clock, logger *zap.Logger) (*Poller, <-chan PollResult, error) {
	r.mu.Lock()
	if _, exists := r.active[bookingID]; exists {
		r.mu.Unlock()
		return nil, nil, fmt.Errorf("a reconciliation session is already active for booking %d", bookingID)
	}
	p := NewPoller(bookingID, actor, committer, clock, logger)
	p.onDone = func() { r.remove(bookingID, p) }
	r.active[bookingID] = p
	r.mu.Unlock()

	results := p.Start(ctx)
	return p, results, nil
}

// StopFor stops the active poller for a booking, if any, and waits until its
// loop has fully exited so no commit can still be in flight.
func (r *PollerRegistry) StopFor(bookingID int64) {
	r.mu.Lock()
	p := r.active[bookingID]
	r.mu.Unlock()
	if p == nil {
		return
	}
	p.Stop()
	p.wait()
}

func (r *PollerRegistry) remove(bookingID int64, p *Poller) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active[bookingID] == p {
		delete(r.active, bookingID)
	}
}
