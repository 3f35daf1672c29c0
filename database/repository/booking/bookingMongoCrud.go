package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tourvia/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Create inserts a new booking document.
func (repo *MongoBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := repo.coll.InsertOne(ctxWithTimeout, booking); err != nil {
		return fmt.Errorf("error creating booking: %w", err)
	}
	return nil
}

// GetByID retrieves a booking by its numeric identifier.
func (repo *MongoBookingRepo) GetByID(ctx context.Context, bookingID int64) (*models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var booking models.Booking
	err := repo.coll.FindOne(ctxWithTimeout, bson.M{"bookingId": bookingID}).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching booking %d: %w", bookingID, err)
	}
	return &booking, nil
}

// GetByCode retrieves a booking by its human-readable code.
func (repo *MongoBookingRepo) GetByCode(ctx context.Context, bookingCode string) (*models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var booking models.Booking
	err := repo.coll.FindOne(ctxWithTimeout, bson.M{"bookingCode": bookingCode}).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching booking %s: %w", bookingCode, err)
	}
	return &booking, nil
}

// CommitStatus performs the compare-and-set transition write. The filter pins
// the current status to the expected source states so a concurrent or repeated
// commit can never apply the transition twice.
func (repo *MongoBookingRepo) CommitStatus(ctx context.Context, bookingID int64, from []models.BookingStatus, to models.BookingStatus, fields map[string]interface{}) (*models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	set := bson.M{
		"status":    to,
		"updatedAt": time.Now(),
	}
	for k, v := range fields {
		set[k] = v
	}

	filter := bson.M{
		"bookingId": bookingID,
		"status":    bson.M{"$in": from},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Booking
	err := repo.coll.FindOneAndUpdate(ctxWithTimeout, filter, bson.M{"$set": set}, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrStatusNotMatched
	}
	if err != nil {
		return nil, fmt.Errorf("error committing status %s on booking %d: %w", to, bookingID, err)
	}
	return &updated, nil
}
