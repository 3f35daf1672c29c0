package notification

import (
	"context"

	"tourvia/models"
)

// UserTopic returns the pub/sub topic scoped to a single user identity. Every
// session of that user subscribes to exactly this one topic.
func UserTopic(userID string) string {
	return "notify.user." + userID
}

// NotificationService is the server side of the notification channel: it
// persists notifications, maintains the canonical unread counter, publishes to
// the per-user topic and mirrors to FCM for offline devices.
type NotificationService interface {
	Publish(ctx context.Context, n models.Notification) error
	NotifyBookingUpdate(ctx context.Context, userID, bookingCode string, status models.BookingStatus) error
	ListForUser(ctx context.Context, userID string, limit int64) ([]models.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, userID string, notificationIDs []string) (int64, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	RegisterDeviceToken(ctx context.Context, userID, token string) error
}
