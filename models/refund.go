package models

import "fmt"

// TransferReferencePrefix is the fixed prefix of the bank-transfer reference a
// customer puts on their refund transfer. Reconciliation matches settled
// transfers against "HOANTIEN <bookingCode>".
const TransferReferencePrefix = "HOANTIEN"

// RefundRequest carries the bank destination for a refund paid out by
// transfer. All three destination fields are required before the request may
// be submitted.
type RefundRequest struct {
	BookingID     int64  `json:"bookingId"`
	AccountName   string `json:"accountName"`
	AccountNumber string `json:"accountNumber"`
	Bank          string `json:"bank"`
	Reason        string `json:"reason"`
}

// Validate rejects the request before it ever reaches the network.
func (r *RefundRequest) Validate() error {
	if r.BookingID == 0 {
		return fmt.Errorf("bookingId is required")
	}
	if r.AccountName == "" {
		return fmt.Errorf("accountName is required")
	}
	if r.AccountNumber == "" {
		return fmt.Errorf("accountNumber is required")
	}
	if r.Bank == "" {
		return fmt.Errorf("bank is required")
	}
	return nil
}

// TransferReference builds the reference string encoded into the refund QR
// code for the given booking.
func TransferReference(bookingCode string) string {
	return TransferReferencePrefix + " " + bookingCode
}
