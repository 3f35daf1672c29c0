package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"tourvia/models"
	"tourvia/utils"

	"go.uber.org/zap"
)

const (
	defaultSyncInterval   = 60 * time.Second
	defaultReconnectDelay = 5 * time.Second
)

// FeedOptions configures a Feed.
type FeedOptions struct {
	Subscriber Subscriber
	Service    NotificationService // backs mark-read calls and the unread fallback fetch
	Clock      utils.Clock
	Logger     *zap.Logger

	SyncInterval   time.Duration // fallback unread-count fetch cadence
	ReconnectDelay time.Duration // wait between resubscribe attempts
}

// Feed is the session-side view of a user's notification channel: one
// subscription per authenticated identity, an in-memory most-recent-first
// list and an unread counter reconciled against the server. A Feed outlives
// any single view; views observe it and are torn down independently.
type Feed struct {
	userID string
	opts   FeedOptions

	mu     sync.Mutex
	items  []models.Notification
	unread int64

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRedisFeed builds a feed over the notify Redis instance, the production
// wiring used when a session comes online.
func NewRedisFeed(userID string, svc NotificationService, logger *zap.Logger) (*Feed, error) {
	return NewFeed(userID, FeedOptions{
		Subscriber: &RedisSubscriber{Client: utils.GetNotifyClient()},
		Service:    svc,
		Logger:     logger,
	})
}

// NewFeed builds a disconnected feed for the given identity.
func NewFeed(userID string, opts FeedOptions) (*Feed, error) {
	if userID == "" {
		return nil, fmt.Errorf("feed requires a user identity")
	}
	if opts.Subscriber == nil || opts.Service == nil || opts.Logger == nil {
		return nil, fmt.Errorf("feed initialization error: missing dependency")
	}
	if opts.Clock == nil {
		opts.Clock = utils.RealClock{}
	}
	if opts.SyncInterval <= 0 {
		opts.SyncInterval = defaultSyncInterval
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = defaultReconnectDelay
	}
	return &Feed{userID: userID, opts: opts}, nil
}

// Connect opens the subscription and starts the consume loop. Calling Connect
// on an already connected feed is a no-op.
func (f *Feed) Connect(ctx context.Context) {
	f.mu.Lock()
	if f.cancel != nil {
		f.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.done = make(chan struct{})
	f.mu.Unlock()

	go f.run(runCtx)
}

// Close tears the subscription down and waits for the consume loop to exit.
// After Close no message can mutate the feed.
func (f *Feed) Close() {
	f.mu.Lock()
	cancel := f.cancel
	done := f.done
	f.cancel = nil
	f.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (f *Feed) run(ctx context.Context) {
	defer close(f.done)

	// Prime the unread counter so the badge is correct before any push lands.
	f.refreshUnread(ctx)

	for {
		sub, err := f.opts.Subscriber.Subscribe(ctx, UserTopic(f.userID))
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			f.opts.Logger.Warn("notification subscribe failed, retrying",
				zap.String("user", f.userID), zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-f.opts.Clock.After(f.opts.ReconnectDelay):
			}
			continue
		}

		f.consume(ctx, sub)
		sub.Close()
		if ctx.Err() != nil {
			return
		}

		// Messages may have been lost while disconnected; the counter fetch
		// corrects the badge even when the list is momentarily stale.
		f.refreshUnread(ctx)
		select {
		case <-ctx.Done():
			return
		case <-f.opts.Clock.After(f.opts.ReconnectDelay):
		}
	}
}

// consume drains the subscription until it closes or the context ends,
// interleaving the low-frequency fallback count fetch. The sync timer is
// armed once per session and re-armed only after it fires, so a steady
// message stream cannot postpone the fallback fetch forever.
func (f *Feed) consume(ctx context.Context, sub Subscription) {
	sync := f.opts.Clock.After(f.opts.SyncInterval)
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-sub.Messages():
			if !ok {
				return
			}
			f.onMessage(payload)
		case <-sync:
			f.refreshUnread(ctx)
			sync = f.opts.Clock.After(f.opts.SyncInterval)
		}
	}
}

func (f *Feed) onMessage(payload []byte) {
	var n models.Notification
	if err := json.Unmarshal(payload, &n); err != nil {
		f.opts.Logger.Warn("dropping malformed notification payload", zap.Error(err))
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	// Insertion only, newest first. Nothing ever reorders the list.
	f.items = append([]models.Notification{n}, f.items...)
	if !n.IsRead {
		f.unread++
	}
}

// refreshUnread replaces the local counter with the server's canonical count.
// A fetch failure leaves the previous value in place until the next attempt.
func (f *Feed) refreshUnread(ctx context.Context) {
	count, err := f.opts.Service.UnreadCount(ctx, f.userID)
	if err != nil {
		f.opts.Logger.Debug("unread fallback fetch failed", zap.Error(err))
		return
	}
	f.mu.Lock()
	f.unread = count
	f.mu.Unlock()
}

// MarkRead optimistically marks the given notifications read locally, then
// confirms server-side. On failure the counter is re-fetched rather than
// trusted locally.
func (f *Feed) MarkRead(ctx context.Context, notificationIDs []string) error {
	f.mu.Lock()
	var marked int64
	for i := range f.items {
		for _, id := range notificationIDs {
			if f.items[i].NotificationID == id && !f.items[i].IsRead {
				f.items[i].IsRead = true
				marked++
			}
		}
	}
	f.unread -= marked
	if f.unread < 0 {
		f.unread = 0
	}
	f.mu.Unlock()

	if _, err := f.opts.Service.MarkRead(ctx, f.userID, notificationIDs); err != nil {
		f.refreshUnread(ctx)
		return fmt.Errorf("mark-read not confirmed by server: %w", err)
	}
	return nil
}

// MarkAllRead clears the local state optimistically, then confirms.
func (f *Feed) MarkAllRead(ctx context.Context) error {
	f.mu.Lock()
	for i := range f.items {
		f.items[i].IsRead = true
	}
	f.unread = 0
	f.mu.Unlock()

	if _, err := f.opts.Service.MarkAllRead(ctx, f.userID); err != nil {
		f.refreshUnread(ctx)
		return fmt.Errorf("mark-all-read not confirmed by server: %w", err)
	}
	return nil
}

// Notifications returns a snapshot of the feed, most recent first.
func (f *Feed) Notifications() []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Notification, len(f.items))
	copy(out, f.items)
	return out
}

// Unread returns the current unread counter.
func (f *Feed) Unread() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unread
}
