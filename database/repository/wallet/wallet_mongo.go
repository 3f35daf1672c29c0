package walletRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tourvia/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// WalletRepository tracks per-user coin balances for store-credit refunds.
type WalletRepository interface {
	CreditCoins(ctx context.Context, userID string, amount float64) error
	GetBalance(ctx context.Context, userID string) (float64, error)
}

// MongoWalletRepo implements WalletRepository.
type MongoWalletRepo struct {
	coll *mongo.Collection
}

func NewMongoWalletRepo() *MongoWalletRepo {
	coll := database.MongoClient.Database("tourvia").Collection("wallets")
	return &MongoWalletRepo{coll: coll}
}

// CreditCoins adds the amount to the user's coin balance, creating the wallet
// document on first use.
func (repo *MongoWalletRepo) CreditCoins(ctx context.Context, userID string, amount float64) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if amount < 0 {
		return fmt.Errorf("cannot credit negative amount %.2f", amount)
	}
	filter := bson.M{"userId": userID}
	update := bson.M{
		"$inc": bson.M{"coins": amount},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := repo.coll.UpdateOne(ctxWithTimeout, filter, update, opts); err != nil {
		return fmt.Errorf("error crediting %s coins to %s: %w", fmt.Sprintf("%.2f", amount), userID, err)
	}
	return nil
}

// GetBalance returns the current coin balance, zero if no wallet exists yet.
func (repo *MongoWalletRepo) GetBalance(ctx context.Context, userID string) (float64, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var doc struct {
		Coins float64 `bson:"coins"`
	}
	err := repo.coll.FindOne(ctxWithTimeout, bson.M{"userId": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("error fetching wallet for %s: %w", userID, err)
	}
	return doc.Coins, nil
}
