package models

import "fmt"

// ReviewRequest is submitted by a customer for a PAID booking and drives the
// PAID -> REVIEWED transition.
type ReviewRequest struct {
	BookingID int64  `json:"bookingId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

func (r *ReviewRequest) Validate() error {
	if r.BookingID == 0 {
		return fmt.Errorf("bookingId is required")
	}
	if r.Rating < 1 || r.Rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5")
	}
	return nil
}
