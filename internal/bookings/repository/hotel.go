package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "hotelbook/internal/bookings/errors"
	"hotelbook/pkg/config"
	mongotx "hotelbook/pkg/db/mongo"
	"hotelbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const HotelsCollectionName = "Hotels"

type HotelRepository interface {
	Create(ctx context.Context, hotel *model.Hotel) error
	FindByID(ctx context.Context, id string) (*model.Hotel, error)
	FindAll(ctx context.Context) ([]*model.Hotel, error)
	FindByManager(ctx context.Context, managerUserID string) ([]*model.Hotel, error)
	// Update rewrites the descriptive fields and updated_at. Ownership and
	// version are left alone.
	Update(ctx context.Context, hotel *model.Hotel) error
	// LockForAdmission takes the store-level hotel lock for the surrounding
	// transaction. Concurrent admissions for the same hotel conflict on it.
	LockForAdmission(ctx context.Context, id string) (*model.Hotel, error)
}

type mongoHotelRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoHotelRepository(cfg *config.Config) HotelRepository {
	return newMongoHotelRepository(cfg, cfg.Client.Mongo.Database(cfg.MongoDatabaseName))
}

func newMongoHotelRepository(cfg *config.Config, db *mongo.Database) *mongoHotelRepository {
	return &mongoHotelRepository{
		cfg:        cfg,
		collection: db.Collection(HotelsCollectionName),
	}
}

func (r *mongoHotelRepository) Create(ctx context.Context, hotel *model.Hotel) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	hotel.ID = ""
	result, err := r.collection.InsertOne(ctx, hotel)
	if err != nil {
		return fmt.Errorf("failed to create hotel: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		hotel.ID = oid.Hex()
	}
	return nil
}

func (r *mongoHotelRepository) FindByID(ctx context.Context, id string) (*model.Hotel, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrHotelNotFound, id)
	}

	var hotel model.Hotel
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&hotel); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrHotelNotFound
		}
		return nil, fmt.Errorf("failed to find hotel: %w", err)
	}
	return &hotel, nil
}

func (r *mongoHotelRepository) FindAll(ctx context.Context) ([]*model.Hotel, error) {
	return r.find(ctx, bson.M{})
}

func (r *mongoHotelRepository) FindByManager(ctx context.Context, managerUserID string) ([]*model.Hotel, error) {
	return r.find(ctx, bson.M{"manager_user_id": managerUserID})
}

func (r *mongoHotelRepository) find(ctx context.Context, filter bson.M) ([]*model.Hotel, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find hotels: %w", err)
	}
	defer cursor.Close(ctx)

	hotels := []*model.Hotel{}
	if err := cursor.All(ctx, &hotels); err != nil {
		return nil, fmt.Errorf("failed to decode hotels: %w", err)
	}
	return hotels, nil
}

func (r *mongoHotelRepository) Update(ctx context.Context, hotel *model.Hotel) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(hotel.ID)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrHotelNotFound, hotel.ID)
	}

	update := bson.M{
		"$set": bson.M{
			"name":            hotel.Name,
			"location":        hotel.Location,
			"description":     hotel.Description,
			"price_per_night": hotel.PricePerNight,
			"updated_at":      hotel.UpdatedAt,
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update hotel: %w", err)
	}
	if result.MatchedCount == 0 {
		return bookingserrors.ErrHotelNotFound
	}
	return nil
}

// LockForAdmission bumps the hotel version inside the transaction, so two
// transactions admitting bookings for the same hotel hit a write conflict.
func (r *mongoHotelRepository) LockForAdmission(ctx context.Context, id string) (*model.Hotel, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrHotelNotFound, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var hotel model.Hotel
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, bson.M{"$inc": bson.M{"version": 1}}, opts).Decode(&hotel)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrHotelNotFound
		}
		return nil, fmt.Errorf("failed to lock hotel: %w", err)
	}
	return &hotel, nil
}

func managedHotelIDs(ctx context.Context, hotels *mongo.Collection, managerUserID string, timeout time.Duration) ([]string, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := hotels.Find(ctx, bson.M{"manager_user_id": managerUserID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find managed hotels: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode managed hotels: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID.Hex())
	}
	return ids, nil
}
