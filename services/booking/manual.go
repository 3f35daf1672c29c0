package booking

import (
	"context"
	"fmt"
	"sync"

	"tourvia/models"

	"go.uber.org/zap"
)

// ManualConfirmation is the user-asserted fallback commit path, used when
// automatic reconciliation is skipped, too slow, or has exhausted its budget.
// Opening the session stops any active poller for the booking, so the two
// paths are mutually exclusive; confirming is a second, distinct step to keep
// a single click from committing a destructive transition.
type ManualConfirmation struct {
	committer Committer
	registry  *PollerRegistry
	logger    *zap.Logger

	mu        sync.Mutex
	bookingID int64
	target    models.BookingStatus
	actor     Actor
	reason    string
	opened    bool
	confirmed bool
}

func NewManualConfirmation(committer Committer, registry *PollerRegistry, logger *zap.Logger) *ManualConfirmation {
	return &ManualConfirmation{
		committer: committer,
		registry:  registry,
		logger:    logger,
	}
}

// Open prepares a confirmation session. Cancellation transitions require a
// non-empty justification before the dialog may proceed.
func (g *ManualConfirmation) Open(bookingID int64, target models.BookingStatus, actor Actor, reason string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.opened {
		return fmt.Errorf("a confirmation session is already open")
	}
	if target == models.StatusCancelled && reason == "" {
		return NewValidationError("reason", "a justification is required to confirm a cancellation")
	}

	// Automatic polling must be fully stopped before the manual path may
	// commit; StopFor waits out any in-flight attempt.
	if g.registry != nil {
		g.registry.StopFor(bookingID)
	}

	g.bookingID = bookingID
	g.target = target
	g.actor = actor
	g.reason = reason
	g.opened = true
	return nil
}

// Confirm issues the same commit operation the poller's final attempt would
// have issued. It can run at most once per session.
func (g *ManualConfirmation) Confirm(ctx context.Context) (*models.Booking, error) {
	g.mu.Lock()
	if !g.opened {
		g.mu.Unlock()
		return nil, fmt.Errorf("confirmation session was never opened")
	}
	if g.confirmed {
		g.mu.Unlock()
		return nil, fmt.Errorf("confirmation session already used")
	}
	g.confirmed = true
	bookingID, target, actor, reason := g.bookingID, g.target, g.actor, g.reason
	g.mu.Unlock()

	booking, err := g.committer.CommitTransition(ctx, bookingID, target, actor, reason)
	if err != nil {
		g.logger.Warn("manual confirmation failed",
			zap.Int64("booking", bookingID), zap.Error(err))
		return nil, err
	}
	g.logger.Info("manual confirmation committed",
		zap.Int64("booking", bookingID), zap.String("to", target.String()))
	return booking, nil
}

// Cancel abandons the session without committing.
func (g *ManualConfirmation) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.opened = false
	g.confirmed = false
}
