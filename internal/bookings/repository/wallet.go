package repository

import (
	"context"
	"fmt"
	"time"

	"hotelbook/pkg/config"
	mongotx "hotelbook/pkg/db/mongo"
	"hotelbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const WalletsCollectionName = "Wallets"

type WalletRepository interface {
	// AddPoints creates the wallet on first use.
	AddPoints(ctx context.Context, userID string, points int64) (*model.Wallet, error)
}

type mongoWalletRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoWalletRepository(cfg *config.Config) WalletRepository {
	return newMongoWalletRepository(cfg, cfg.Client.Mongo.Database(cfg.MongoDatabaseName))
}

func newMongoWalletRepository(cfg *config.Config, db *mongo.Database) *mongoWalletRepository {
	return &mongoWalletRepository{
		cfg:        cfg,
		collection: db.Collection(WalletsCollectionName),
	}
}

func (r *mongoWalletRepository) AddPoints(ctx context.Context, userID string, points int64) (*model.Wallet, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := bson.M{
		"$inc": bson.M{"points": points},
		"$set": bson.M{"last_updated": time.Now().UTC().Truncate(time.Millisecond)},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var wallet model.Wallet
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"user_id": userID}, update, opts).Decode(&wallet); err != nil {
		return nil, fmt.Errorf("failed to add loyalty points: %w", err)
	}
	return &wallet, nil
}
