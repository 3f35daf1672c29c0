package bookingRepo

import (
	"context"
	"log"
	"time"

	"tourvia/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoBookingRepo implements BookingRepository backed by MongoDB.
type MongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo returns a repository bound to the bookings collection.
func NewMongoBookingRepo() *MongoBookingRepo {
	coll := database.MongoClient.Database("tourvia").Collection("bookings")
	repo := &MongoBookingRepo{coll: coll}
	repo.ensureIndexes()
	return repo
}

func (repo *MongoBookingRepo) ensureIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "bookingId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "bookingCode", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "timeLimit", Value: 1}},
		},
	}
	if _, err := repo.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("bookings: failed to ensure indexes: %v", err)
	}
}
