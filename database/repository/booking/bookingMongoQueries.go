package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"tourvia/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Search lists bookings matching the filter, most recent first.
func (repo *MongoBookingRepo) Search(ctx context.Context, filter SearchFilter) ([]models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := bson.M{}
	if filter.UserID != "" {
		query["userId"] = filter.UserID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Query != "" {
		regex := primitive.Regex{Pattern: filter.Query, Options: "i"}
		query["$or"] = bson.A{
			bson.M{"bookingCode": regex},
			bson.M{"tourName": regex},
		}
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit)

	cursor, err := repo.coll.Find(ctxWithTimeout, query, opts)
	if err != nil {
		return nil, fmt.Errorf("error searching bookings: %w", err)
	}
	defer cursor.Close(ctxWithTimeout)

	var bookings []models.Booking
	if err := cursor.All(ctxWithTimeout, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding bookings: %w", err)
	}
	return bookings, nil
}

// ListPaymentExpired returns PENDING_PAYMENT bookings whose deadline passed.
func (repo *MongoBookingRepo) ListPaymentExpired(ctx context.Context, now time.Time) ([]models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := bson.M{
		"status":    models.StatusPendingPayment,
		"timeLimit": bson.M{"$lt": now},
	}
	cursor, err := repo.coll.Find(ctxWithTimeout, query)
	if err != nil {
		return nil, fmt.Errorf("error listing expired bookings: %w", err)
	}
	defer cursor.Close(ctxWithTimeout)

	var bookings []models.Booking
	if err := cursor.All(ctxWithTimeout, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding expired bookings: %w", err)
	}
	return bookings, nil
}
