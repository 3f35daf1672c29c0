package booking

import (
	"context"

	"tourvia/database/repository"
	"tourvia/models"
	"tourvia/services/notification"

	"go.uber.org/zap"
)

// Committer is the single commit operation every transition path goes
// through: admin actions, the reconciliation poller and the manual
// confirmation gate all call the same method, so idempotency lives in one
// place.
type Committer interface {
	CommitTransition(ctx context.Context, bookingID int64, target models.BookingStatus, actor Actor, reason string) (*models.Booking, error)
}

// StatusService is the authoritative booking lifecycle API. The client never
// infers a new status locally; a booking changes state only through a
// successful response from one of these operations.
//
// Customer-actor mutations carry the caller's identity and are refused on
// bookings the caller does not own. CommitTransition is the trusted entry for
// system and admin flows; customer commits go through CommitTransitionFor.
type StatusService interface {
	Committer

	CommitTransitionFor(ctx context.Context, callerID string, bookingID int64, target models.BookingStatus, actor Actor, reason string) (*models.Booking, error)
	RequestBankRefund(ctx context.Context, callerID string, req models.RefundRequest) (*models.Booking, *RefundInstructions, error)
	CancelWithCoinRefund(ctx context.Context, callerID string, bookingID int64, actor Actor, reason string) (*models.Booking, error)
	SubmitReview(ctx context.Context, userID string, req models.ReviewRequest) (*models.Booking, error)

	GetBooking(ctx context.Context, bookingID int64) (*models.Booking, error)
	GetBookingByCode(ctx context.Context, bookingCode string) (*models.Booking, error)
	SearchBookings(ctx context.Context, filter repository.BookingSearchFilter) ([]models.Booking, error)

	ExpireOverduePayments(ctx context.Context) (int, error)
	CancelOverdueBookings(ctx context.Context) (int, error)
}

// RefundInstructions is returned alongside a booking entering PENDING_REFUND:
// the transfer reference the customer's QR code encodes, so reconciliation can
// later match the settled transfer.
type RefundInstructions struct {
	TransferReference string `json:"transferReference"`
	AccountName       string `json:"accountName"`
	AccountNumber     string `json:"accountNumber"`
	Bank              string `json:"bank"`
}

// DefaultStatusService implements StatusService.
type DefaultStatusService struct {
	Repo     repository.BookingRepository
	Wallet   repository.WalletRepository
	Ledger   TransferLedger
	Notifier notification.NotificationService
	Logger   *zap.Logger
}
