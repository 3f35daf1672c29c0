package bookingRepo

import (
	"context"
	"errors"
	"time"

	"tourvia/models"
)

// ErrNotFound is returned when no booking matches the given identity.
var ErrNotFound = errors.New("booking not found")

// ErrStatusNotMatched is returned by CommitStatus when the compare-and-set
// filter did not match, i.e. the booking was not in any of the expected source
// states at commit time.
var ErrStatusNotMatched = errors.New("booking status did not match expected state")

// SearchFilter narrows booking queries. Zero values are ignored.
type SearchFilter struct {
	UserID string
	Status models.BookingStatus
	Query  string // free-text match on bookingCode or tourName
	Limit  int64
}

// BookingRepository defines data access for booking records.
type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, bookingID int64) (*models.Booking, error)
	GetByCode(ctx context.Context, bookingCode string) (*models.Booking, error)
	Search(ctx context.Context, filter SearchFilter) ([]models.Booking, error)

	// CommitStatus atomically moves a booking from one of the expected source
	// states to the target state, applying any extra field updates in the same
	// write. Returns the updated record, or ErrStatusNotMatched if the booking
	// was not in an expected state.
	CommitStatus(ctx context.Context, bookingID int64, from []models.BookingStatus, to models.BookingStatus, fields map[string]interface{}) (*models.Booking, error)

	// ListPaymentExpired returns PENDING_PAYMENT bookings whose timeLimit has
	// passed, for the expiry sweep.
	ListPaymentExpired(ctx context.Context, now time.Time) ([]models.Booking, error)
}
