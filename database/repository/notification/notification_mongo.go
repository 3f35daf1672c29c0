package notificationRepo

import (
	"context"
	"fmt"
	"log"
	"time"

	"tourvia/database"
	"tourvia/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationRepository defines data access for stored notifications.
type NotificationRepository interface {
	Insert(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID string, limit int64) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID string, notificationIDs []string) (int64, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
}

// MongoNotificationRepo implements NotificationRepository.
type MongoNotificationRepo struct {
	coll *mongo.Collection
}

func NewMongoNotificationRepo() *MongoNotificationRepo {
	coll := database.MongoClient.Database("tourvia").Collection("notifications")
	repo := &MongoNotificationRepo{coll: coll}
	repo.ensureIndexes()
	return repo
}

func (repo *MongoNotificationRepo) ensureIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "isRead", Value: 1}}},
	}
	if _, err := repo.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("notifications: failed to ensure indexes: %v", err)
	}
}

// Insert stores a new notification document.
func (repo *MongoNotificationRepo) Insert(ctx context.Context, n *models.Notification) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := repo.coll.InsertOne(ctxWithTimeout, n); err != nil {
		return fmt.Errorf("error inserting notification: %w", err)
	}
	return nil
}

// ListByUser returns notifications for a user, most recent first.
func (repo *MongoNotificationRepo) ListByUser(ctx context.Context, userID string, limit int64) ([]models.Notification, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit)

	cursor, err := repo.coll.Find(ctxWithTimeout, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing notifications for %s: %w", userID, err)
	}
	defer cursor.Close(ctxWithTimeout)

	var notifications []models.Notification
	if err := cursor.All(ctxWithTimeout, &notifications); err != nil {
		return nil, fmt.Errorf("error decoding notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead flags the given notifications as read and returns how many were
// actually updated, so the caller can adjust the unread counter by the real
// delta rather than the requested one.
func (repo *MongoNotificationRepo) MarkRead(ctx context.Context, userID string, notificationIDs []string) (int64, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"userId":         userID,
		"notificationId": bson.M{"$in": notificationIDs},
		"isRead":         false,
	}
	res, err := repo.coll.UpdateMany(ctxWithTimeout, filter, bson.M{"$set": bson.M{"isRead": true}})
	if err != nil {
		return 0, fmt.Errorf("error marking notifications read: %w", err)
	}
	return res.ModifiedCount, nil
}

// MarkAllRead flags every unread notification of the user as read.
func (repo *MongoNotificationRepo) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"userId": userID, "isRead": false}
	res, err := repo.coll.UpdateMany(ctxWithTimeout, filter, bson.M{"$set": bson.M{"isRead": true}})
	if err != nil {
		return 0, fmt.Errorf("error marking all notifications read: %w", err)
	}
	return res.ModifiedCount, nil
}

// CountUnread returns the stored unread count, the source of truth the cached
// counter reconciles against.
func (repo *MongoNotificationRepo) CountUnread(ctx context.Context, userID string) (int64, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	count, err := repo.coll.CountDocuments(ctxWithTimeout, bson.M{"userId": userID, "isRead": false})
	if err != nil {
		return 0, fmt.Errorf("error counting unread notifications: %w", err)
	}
	return count, nil
}
