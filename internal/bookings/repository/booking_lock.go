package repository

import (
	"context"
	"fmt"
	"time"

	"hotelbook/pkg/config"
	"hotelbook/pkg/lock"
	"hotelbook/pkg/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const BookingLocksCollectionName = "Booking_locks"

// BookingLockRepository stores advisory lock documents keyed by hotel.
type BookingLockRepository interface {
	// Create fails with a duplicate key error while the lock is held.
	Create(ctx context.Context, lock *model.BookingLock) error
	Delete(ctx context.Context, lockID, owner string) error
	DeleteExpired(ctx context.Context, lockID string, now time.Time) error
}

type mongoBookingLockRepository struct {
	collection *mongo.Collection
}

func NewBookingLockRepository(cfg *config.Config) BookingLockRepository {
	return &mongoBookingLockRepository{
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(BookingLocksCollectionName),
	}
}

func (r *mongoBookingLockRepository) Create(ctx context.Context, lock *model.BookingLock) error {
	_, err := r.collection.InsertOne(ctx, lock)
	return err
}

func (r *mongoBookingLockRepository) Delete(ctx context.Context, lockID, owner string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID, "owner": owner})
	return err
}

// DeleteExpired clears a lock left behind by a holder that never released it.
// The TTL index does the same eventually, but only about once a minute.
func (r *mongoBookingLockRepository) DeleteExpired(ctx context.Context, lockID string, now time.Time) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID, "expires_at": bson.M{"$lte": now}})
	return err
}

// MongoLocker is a lock.Locker backed by the Booking_locks collection.
type MongoLocker struct {
	repo  BookingLockRepository
	ttl   time.Duration
	wait  time.Duration
	retry time.Duration
	now   func() time.Time
}

func NewMongoLocker(repo BookingLockRepository, ttl, wait, retry time.Duration) *MongoLocker {
	return &MongoLocker{
		repo:  repo,
		ttl:   ttl,
		wait:  wait,
		retry: retry,
		now:   time.Now,
	}
}

func (l *MongoLocker) Acquire(ctx context.Context, key string) (lock.Release, error) {
	ctx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	owner := uuid.NewString()
	lockID := "hotel:" + key

	for {
		now := l.now().UTC()
		err := l.repo.Create(ctx, &model.BookingLock{
			ID:        lockID,
			Owner:     owner,
			ExpiresAt: now.Add(l.ttl),
			CreatedAt: now,
		})
		if err == nil {
			return l.release(lockID, owner), nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %s: %v", lock.ErrNotAcquired, key, ctx.Err())
			}
			return nil, fmt.Errorf("mongo lock %s: %w", key, err)
		}

		if err := l.repo.DeleteExpired(ctx, lockID, now); err != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("mongo lock %s: %w", key, err)
		}

		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: %s: %v", lock.ErrNotAcquired, key, ctx.Err())
		case <-timer.C:
		}
	}
}

func (l *MongoLocker) release(lockID, owner string) lock.Release {
	released := false
	return func(ctx context.Context) error {
		if released {
			return nil
		}
		released = true
		if err := l.repo.Delete(ctx, lockID, owner); err != nil {
			return fmt.Errorf("mongo unlock %s: %w", lockID, err)
		}
		return nil
	}
}
