package models

import "time"

// Notification type tags, used by clients to route navigation on tap.
const (
	NotificationTypeCoupon  = "coupon"
	NotificationTypeBooking = "booking"
	NotificationTypePayment = "payment"
	NotificationTypeOther   = "other"
)

// Notification is a push payload delivered on the per-user channel and
// persisted so sessions can catch up after a disconnect.
type Notification struct {
	NotificationID string    `bson:"notificationId" json:"notificationId"`
	UserID         string    `bson:"userId" json:"userId"`
	Type           string    `bson:"type" json:"type"`
	Title          string    `bson:"title" json:"title"`
	Message        string    `bson:"message" json:"message"`
	IsRead         bool      `bson:"isRead" json:"isRead"`
	RelatedCode    string    `bson:"relatedCode,omitempty" json:"relatedCode,omitempty"` // bookingCode or email for navigation
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
}
