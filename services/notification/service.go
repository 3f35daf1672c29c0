package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tourvia/database/repository"
	"tourvia/models"

	"firebase.google.com/go/v4/messaging"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	unreadKeyPrefix      = "notify:unread:"
	deviceTokenKeyPrefix = "notify:device:"
)

// DefaultNotificationService is the production implementation.
type DefaultNotificationService struct {
	Repo        repository.NotificationRepository
	CacheClient *redis.Client // unread counters + device tokens
	PubClient   *redis.Client // per-user topic publishing
	FCM         *messaging.Client
	Logger      *zap.Logger
}

func NewDefaultNotificationService(
	repo repository.NotificationRepository,
	cacheClient, pubClient *redis.Client,
	fcm *messaging.Client,
	logger *zap.Logger,
) (*DefaultNotificationService, error) {
	if repo == nil || cacheClient == nil || pubClient == nil || logger == nil {
		return nil, fmt.Errorf("notification service initialization error: missing dependency")
	}
	return &DefaultNotificationService{
		Repo:        repo,
		CacheClient: cacheClient,
		PubClient:   pubClient,
		FCM:         fcm,
		Logger:      logger,
	}, nil
}

// Publish stores the notification, bumps the unread counter and pushes the
// payload on the user's topic. Channel delivery is best effort; the stored
// record and counter are what disconnected sessions reconcile against.
func (s *DefaultNotificationService) Publish(ctx context.Context, n models.Notification) error {
	if n.UserID == "" {
		return fmt.Errorf("notification is missing userId")
	}
	if n.NotificationID == "" {
		n.NotificationID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if n.Type == "" {
		n.Type = models.NotificationTypeOther
	}

	if err := s.Repo.Insert(ctx, &n); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}
	if err := s.CacheClient.Incr(ctx, unreadKeyPrefix+n.UserID).Err(); err != nil {
		s.Logger.Warn("failed to bump unread counter", zap.String("user", n.UserID), zap.Error(err))
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}
	if err := s.PubClient.Publish(ctx, UserTopic(n.UserID), payload).Err(); err != nil {
		s.Logger.Warn("failed to publish notification", zap.String("user", n.UserID), zap.Error(err))
	}

	s.sendPushMirror(ctx, n)
	return nil
}

// NotifyBookingUpdate publishes a booking status-change notification.
func (s *DefaultNotificationService) NotifyBookingUpdate(ctx context.Context, userID, bookingCode string, status models.BookingStatus) error {
	title, message, kind := bookingUpdateText(bookingCode, status)
	return s.Publish(ctx, models.Notification{
		UserID:      userID,
		Type:        kind,
		Title:       title,
		Message:     message,
		RelatedCode: bookingCode,
	})
}

func bookingUpdateText(bookingCode string, status models.BookingStatus) (title, message, kind string) {
	switch status {
	case models.StatusPaid:
		return "Booking confirmed", fmt.Sprintf("Booking %s has been paid and confirmed.", bookingCode), models.NotificationTypePayment
	case models.StatusPendingRefund:
		return "Refund in progress", fmt.Sprintf("Your refund request for booking %s is being processed.", bookingCode), models.NotificationTypePayment
	case models.StatusCancelled:
		return "Booking cancelled", fmt.Sprintf("Booking %s has been cancelled.", bookingCode), models.NotificationTypeBooking
	case models.StatusOverduePayment:
		return "Payment overdue", fmt.Sprintf("The payment deadline for booking %s has passed.", bookingCode), models.NotificationTypePayment
	case models.StatusReviewed:
		return "Thanks for your review", fmt.Sprintf("Your review for booking %s has been recorded.", bookingCode), models.NotificationTypeBooking
	default:
		return "Booking updated", fmt.Sprintf("Booking %s is now %s.", bookingCode, status), models.NotificationTypeBooking
	}
}

// sendPushMirror forwards the notification to the user's registered device via
// FCM. Failures are logged, never surfaced: the channel and the stored record
// are the delivery guarantees, the push is a convenience.
func (s *DefaultNotificationService) sendPushMirror(ctx context.Context, n models.Notification) {
	if s.FCM == nil {
		return
	}
	token, err := s.CacheClient.Get(ctx, deviceTokenKeyPrefix+n.UserID).Result()
	if err != nil || token == "" {
		return
	}
	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Message,
		},
		Data: map[string]string{
			"type":        n.Type,
			"relatedCode": n.RelatedCode,
		},
	}
	if _, err := s.FCM.Send(ctx, msg); err != nil {
		s.Logger.Warn("failed to send FCM push", zap.String("user", n.UserID), zap.Error(err))
	}
}

// ListForUser returns stored notifications, most recent first.
func (s *DefaultNotificationService) ListForUser(ctx context.Context, userID string, limit int64) ([]models.Notification, error) {
	return s.Repo.ListByUser(ctx, userID, limit)
}

// UnreadCount returns the canonical unread count. The cached counter is
// authoritative for speed; a cache miss falls back to the store and backfills.
func (s *DefaultNotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	count, err := s.CacheClient.Get(ctx, unreadKeyPrefix+userID).Int64()
	if err == nil {
		return count, nil
	}
	if err != redis.Nil {
		s.Logger.Warn("unread counter unavailable, falling back to store", zap.Error(err))
	}
	count, err = s.Repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := s.CacheClient.Set(ctx, unreadKeyPrefix+userID, count, 0).Err(); err != nil {
		s.Logger.Warn("failed to backfill unread counter", zap.Error(err))
	}
	return count, nil
}

// MarkRead flags the given notifications read and lowers the counter by the
// number actually updated.
func (s *DefaultNotificationService) MarkRead(ctx context.Context, userID string, notificationIDs []string) (int64, error) {
	if len(notificationIDs) == 0 {
		return 0, nil
	}
	modified, err := s.Repo.MarkRead(ctx, userID, notificationIDs)
	if err != nil {
		return 0, err
	}
	s.lowerUnread(ctx, userID, modified)
	return modified, nil
}

// MarkAllRead flags everything read and resets the counter.
func (s *DefaultNotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	modified, err := s.Repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := s.CacheClient.Set(ctx, unreadKeyPrefix+userID, 0, 0).Err(); err != nil {
		s.Logger.Warn("failed to reset unread counter", zap.Error(err))
	}
	return modified, nil
}

func (s *DefaultNotificationService) lowerUnread(ctx context.Context, userID string, delta int64) {
	if delta <= 0 {
		return
	}
	count, err := s.CacheClient.DecrBy(ctx, unreadKeyPrefix+userID, delta).Result()
	if err != nil {
		s.Logger.Warn("failed to lower unread counter", zap.Error(err))
		return
	}
	if count < 0 {
		s.CacheClient.Set(ctx, unreadKeyPrefix+userID, 0, 0)
	}
}

// RegisterDeviceToken stores the FCM token for the user's current device.
func (s *DefaultNotificationService) RegisterDeviceToken(ctx context.Context, userID, token string) error {
	if token == "" {
		return fmt.Errorf("device token is empty")
	}
	if err := s.CacheClient.Set(ctx, deviceTokenKeyPrefix+userID, token, 0).Err(); err != nil {
		return fmt.Errorf("failed to store device token: %w", err)
	}
	return nil
}
