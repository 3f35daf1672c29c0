package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tourvia/database/repository"
	bookingRepo "tourvia/database/repository/booking"
	"tourvia/models"

	"go.uber.org/zap"
)

// CommitTransition validates and commits a status change. Committing a
// transition the booking has already made is a success no-op: the response is
// identical whether the operation ran once or twice, and no side effect is
// re-applied.
//
// This is the trusted entry used by system and admin flows; it carries no
// caller identity, so customer-actor commits through it are always refused.
// Customer sessions use CommitTransitionFor.
func (s *DefaultStatusService) CommitTransition(ctx context.Context, bookingID int64, target models.BookingStatus, actor Actor, reason string) (*models.Booking, error) {
	updated, _, err := s.commit(ctx, "", bookingID, target, actor, reason, nil)
	return updated, err
}

// CommitTransitionFor is the identity-carrying commit the HTTP layer calls on
// behalf of an authenticated caller.
func (s *DefaultStatusService) CommitTransitionFor(ctx context.Context, callerID string, bookingID int64, target models.BookingStatus, actor Actor, reason string) (*models.Booking, error) {
	updated, _, err := s.commit(ctx, callerID, bookingID, target, actor, reason, nil)
	return updated, err
}

// commit is the shared transition core. The second return value reports
// whether this call actually performed the transition, so callers applying
// one-shot side effects (coin credit) only do so on the winning commit.
func (s *DefaultStatusService) commit(ctx context.Context, callerID string, bookingID int64, target models.BookingStatus, actor Actor, reason string, extraFields map[string]interface{}) (*models.Booking, bool, error) {
	current, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, false, err
	}
	// A customer may only move their own booking. Foreign bookings are
	// indistinguishable from missing ones.
	if actor == ActorCustomer && current.UserID != callerID {
		return nil, false, ErrBookingNotFound
	}
	if current.Status == target {
		return current, false, nil
	}

	// A reason recorded earlier (e.g. at refund request time) satisfies the
	// guard for the final reconciliation commit.
	effectiveReason := reason
	if effectiveReason == "" {
		effectiveReason = current.CancelReason
	}
	if err := ValidateTransition(current.Status, target, actor, effectiveReason); err != nil {
		return nil, false, err
	}

	if transitionNeedsSettledTransfer(current.Status, target) {
		if err := s.Ledger.FindSettledTransfer(ctx, models.TransferReference(current.BookingCode)); err != nil {
			return nil, false, err
		}
	}

	fields := map[string]interface{}{}
	if reason != "" {
		fields["cancelReason"] = reason
	}
	for k, v := range extraFields {
		fields[k] = v
	}

	updated, err := s.Repo.CommitStatus(ctx, bookingID, []models.BookingStatus{current.Status}, target, fields)
	if errors.Is(err, bookingRepo.ErrStatusNotMatched) {
		// Lost a race. If the other writer committed the same target the
		// operation still counts as an idempotent success.
		latest, getErr := s.getBooking(ctx, bookingID)
		if getErr != nil {
			return nil, false, getErr
		}
		if latest.Status == target {
			return latest, false, nil
		}
		return nil, false, &TransitionRejectedError{From: latest.Status, To: target}
	}
	if err != nil {
		return nil, false, &TransientError{Err: err}
	}

	if checkErr := updated.CheckAmounts(); checkErr != nil {
		s.Logger.Error("booking violates pricing invariant after transition",
			zap.String("booking", updated.BookingCode), zap.Error(checkErr))
	}

	s.notifyStatusChange(ctx, updated)
	s.Logger.Info("booking transition committed",
		zap.String("booking", updated.BookingCode),
		zap.String("from", current.Status.String()),
		zap.String("to", target.String()),
		zap.String("actor", string(actor)))
	return updated, true, nil
}

func (s *DefaultStatusService) getBooking(ctx context.Context, bookingID int64) (*models.Booking, error) {
	b, err := s.Repo.GetByID(ctx, bookingID)
	if errors.Is(err, bookingRepo.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	return b, nil
}

func (s *DefaultStatusService) notifyStatusChange(ctx context.Context, b *models.Booking) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.NotifyBookingUpdate(ctx, b.UserID, b.BookingCode, b.Status); err != nil {
		s.Logger.Warn("failed to publish booking update",
			zap.String("booking", b.BookingCode), zap.Error(err))
	}
}

// RequestBankRefund moves a booking into PENDING_REFUND with the customer's
// bank destination recorded, and returns the transfer reference the refund QR
// code encodes. Refund requests are always customer-initiated, so the caller
// must own the booking.
func (s *DefaultStatusService) RequestBankRefund(ctx context.Context, callerID string, req models.RefundRequest) (*models.Booking, *RefundInstructions, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, NewValidationError("refundRequest", err.Error())
	}
	if req.Reason == "" {
		return nil, nil, NewValidationError("reason", "a cancellation reason is required to request a refund")
	}

	fields := map[string]interface{}{
		"accountName":   req.AccountName,
		"accountNumber": req.AccountNumber,
		"bank":          req.Bank,
	}
	updated, _, err := s.commit(ctx, callerID, req.BookingID, models.StatusPendingRefund, ActorCustomer, req.Reason, fields)
	if err != nil {
		return nil, nil, err
	}

	instructions := &RefundInstructions{
		TransferReference: models.TransferReference(updated.BookingCode),
		AccountName:       updated.AccountName,
		AccountNumber:     updated.AccountNumber,
		Bank:              updated.Bank,
	}
	return updated, instructions, nil
}

// CancelWithCoinRefund cancels a booking and converts the owed refund into
// account coins. The credit is applied exactly once, by whichever call
// actually performs the transition.
func (s *DefaultStatusService) CancelWithCoinRefund(ctx context.Context, callerID string, bookingID int64, actor Actor, reason string) (*models.Booking, error) {
	updated, committed, err := s.commit(ctx, callerID, bookingID, models.StatusCancelled, actor, reason, nil)
	if err != nil {
		return nil, err
	}
	if committed {
		refund := updated.TotalPrice + updated.PaidByCoin
		if err := s.Wallet.CreditCoins(ctx, updated.UserID, refund); err != nil {
			// The cancellation is committed; the credit must not be lost.
			s.Logger.Error("coin refund credit failed, needs replay",
				zap.String("booking", updated.BookingCode),
				zap.Float64("amount", refund), zap.Error(err))
			return updated, &TransientError{Err: err}
		}
	}
	return updated, nil
}

// SubmitReview records a customer review and commits PAID -> REVIEWED.
func (s *DefaultStatusService) SubmitReview(ctx context.Context, userID string, req models.ReviewRequest) (*models.Booking, error) {
	if err := req.Validate(); err != nil {
		return nil, NewValidationError("review", err.Error())
	}

	fields := map[string]interface{}{
		"reviewRating":  req.Rating,
		"reviewComment": req.Comment,
		"reviewedAt":    time.Now(),
	}
	updated, _, err := s.commit(ctx, userID, req.BookingID, models.StatusReviewed, ActorCustomer, "", fields)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// GetBooking fetches one booking by numeric id.
func (s *DefaultStatusService) GetBooking(ctx context.Context, bookingID int64) (*models.Booking, error) {
	return s.getBooking(ctx, bookingID)
}

// GetBookingByCode fetches one booking by its human-readable code.
func (s *DefaultStatusService) GetBookingByCode(ctx context.Context, bookingCode string) (*models.Booking, error) {
	b, err := s.Repo.GetByCode(ctx, bookingCode)
	if errors.Is(err, bookingRepo.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	return b, nil
}

// SearchBookings lists bookings filtered by status and free-text query.
func (s *DefaultStatusService) SearchBookings(ctx context.Context, filter repository.BookingSearchFilter) ([]models.Booking, error) {
	return s.Repo.Search(ctx, filter)
}

// ExpireOverduePayments marks every PENDING_PAYMENT booking past its deadline
// as OVERDUE_PAYMENT. Invoked by the background sweep; returns how many
// bookings were flagged.
func (s *DefaultStatusService) ExpireOverduePayments(ctx context.Context) (int, error) {
	expired, err := s.Repo.ListPaymentExpired(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to list expired bookings: %w", err)
	}

	flagged := 0
	for i := range expired {
		b := expired[i]
		if _, committed, err := s.commit(ctx, "", b.BookingID, models.StatusOverduePayment, ActorSystem, "", nil); err != nil {
			s.Logger.Warn("failed to flag overdue booking",
				zap.String("booking", b.BookingCode), zap.Error(err))
		} else if committed {
			flagged++
		}
	}
	return flagged, nil
}

// CancelOverdueBookings closes out bookings that were flagged OVERDUE_PAYMENT
// on an earlier sweep. Keeping the two passes separate leaves the overdue state
// visible to the customer for at least one sweep interval before the booking is
// cancelled.
func (s *DefaultStatusService) CancelOverdueBookings(ctx context.Context) (int, error) {
	overdue, err := s.Repo.Search(ctx, repository.BookingSearchFilter{Status: models.StatusOverduePayment})
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue bookings: %w", err)
	}

	cancelled := 0
	for i := range overdue {
		b := overdue[i]
		if _, committed, err := s.commit(ctx, "", b.BookingID, models.StatusCancelled, ActorSystem, "", nil); err != nil {
			s.Logger.Warn("failed to cancel overdue booking",
				zap.String("booking", b.BookingCode), zap.Error(err))
		} else if committed {
			cancelled++
		}
	}
	return cancelled, nil
}
