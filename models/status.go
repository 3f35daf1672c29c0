package models

import "fmt"

// BookingStatus enumerates every state a booking can be in. All status
// comparisons across the codebase go through these constants; handlers and
// services never branch on raw strings.
type BookingStatus string

const (
	StatusPendingPayment      BookingStatus = "PENDING_PAYMENT"
	StatusPendingConfirmation BookingStatus = "PENDING_CONFIRMATION"
	StatusPaid                BookingStatus = "PAID"
	StatusPendingRefund       BookingStatus = "PENDING_REFUND"
	StatusCancelled           BookingStatus = "CANCELLED"
	StatusOverduePayment      BookingStatus = "OVERDUE_PAYMENT"
	StatusReviewed            BookingStatus = "REVIEWED"
)

// ParseBookingStatus maps a wire value onto a known status.
func ParseBookingStatus(s string) (BookingStatus, error) {
	switch BookingStatus(s) {
	case StatusPendingPayment, StatusPendingConfirmation, StatusPaid,
		StatusPendingRefund, StatusCancelled, StatusOverduePayment, StatusReviewed:
		return BookingStatus(s), nil
	}
	return "", fmt.Errorf("unknown booking status %q", s)
}

// IsTerminal reports whether no further application-level transition is
// defined from this status.
func (s BookingStatus) IsTerminal() bool {
	return s == StatusCancelled || s == StatusReviewed
}

func (s BookingStatus) String() string {
	return string(s)
}
