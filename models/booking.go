package models

import (
	"fmt"
	"math"
	"time"
)

// Booking represents a tour booking record. Status is mutated exclusively by
// the status service; every other component treats its copy as a cache of the
// server's authoritative state.
type Booking struct {
	BookingID   int64         `bson:"bookingId" json:"bookingId"`     // Server-assigned, immutable
	BookingCode string        `bson:"bookingCode" json:"bookingCode"` // Human-readable, immutable
	UserID      string        `bson:"userId" json:"userId"`
	TourName    string        `bson:"tourName" json:"tourName"`
	Status      BookingStatus `bson:"status" json:"bookingStatus"`

	// Financials. The server guarantees the total equation; clients verify it
	// via CheckAmounts and never recompute totals themselves.
	TotalPrice     float64 `bson:"totalPrice" json:"totalPrice"`
	SubtotalPrice  float64 `bson:"subtotalPrice" json:"subtotalPrice"`
	Surcharge      float64 `bson:"surcharge" json:"surcharge"`
	CouponDiscount float64 `bson:"couponDiscount" json:"couponDiscount"`
	PaidByCoin     float64 `bson:"paidByCoin" json:"paidByCoin"`

	// Refund destination, present only once a bank-transfer refund has been
	// requested.
	AccountName   string `bson:"accountName,omitempty" json:"accountName,omitempty"`
	AccountNumber string `bson:"accountNumber,omitempty" json:"accountNumber,omitempty"`
	Bank          string `bson:"bank,omitempty" json:"bank,omitempty"`

	CancelReason string     `bson:"cancelReason,omitempty" json:"cancelReason,omitempty"`
	TimeLimit    *time.Time `bson:"timeLimit,omitempty" json:"timeLimit,omitempty"` // Payment deadline for PENDING_PAYMENT

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// CheckAmounts verifies the pricing identity the server is expected to hold:
// totalPrice = subtotalPrice + surcharge - couponDiscount - paidByCoin,
// with every component non-negative.
func (b *Booking) CheckAmounts() error {
	for _, v := range []struct {
		name  string
		value float64
	}{
		{"totalPrice", b.TotalPrice},
		{"subtotalPrice", b.SubtotalPrice},
		{"surcharge", b.Surcharge},
		{"couponDiscount", b.CouponDiscount},
		{"paidByCoin", b.PaidByCoin},
	} {
		if v.value < 0 {
			return fmt.Errorf("booking %s: negative %s (%.2f)", b.BookingCode, v.name, v.value)
		}
	}
	expected := b.SubtotalPrice + b.Surcharge - b.CouponDiscount - b.PaidByCoin
	if math.Abs(expected-b.TotalPrice) > 0.001 {
		return fmt.Errorf("booking %s: totalPrice %.2f does not match subtotal %.2f + surcharge %.2f - coupon %.2f - coin %.2f",
			b.BookingCode, b.TotalPrice, b.SubtotalPrice, b.Surcharge, b.CouponDiscount, b.PaidByCoin)
	}
	return nil
}

// PaymentExpired reports whether the payment deadline has passed. Advisory
// only; the expiry sweep is what actually commits the transition.
func (b *Booking) PaymentExpired(now time.Time) bool {
	return b.Status == StatusPendingPayment && b.TimeLimit != nil && now.After(*b.TimeLimit)
}
