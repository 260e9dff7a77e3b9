package repository

import (
	"context"
	"fmt"
	bookingserrors "rentals/internal/bookings/errors"
	"rentals/pkg/config"
	mongotx "rentals/pkg/db/mongo"
	"rentals/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// BookingLockRepository stores the per-product advisory locks.
type BookingLockRepository interface {
	// Create inserts the lock or returns ErrLockHeld.
	Create(ctx context.Context, lock *model.BookingLock) error
	// Delete removes the lock only if owner still holds it.
	Delete(ctx context.Context, lockID, owner string) error
	// DeleteExpired removes the lock if it expired before now and reports
	// whether it did.
	DeleteExpired(ctx context.Context, lockID string, now time.Time) (bool, error)
	// Extend pushes the expiry of a lock owner still holds or returns
	// ErrLockLost.
	Extend(ctx context.Context, lockID, owner string, expiresAt time.Time) error
}

type mongoBookingLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewBookingLockRepository(cfg *config.Config) BookingLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingLockRepository{
		cfg:        cfg,
		collection: db.Collection(mongotx.BookingLocksCollection),
	}
}

func (r *mongoBookingLockRepository) Create(ctx context.Context, lock *model.BookingLock) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bookingserrors.ErrLockHeld
		}
		return fmt.Errorf("failed to create booking lock: %w", err)
	}
	return nil
}

func (r *mongoBookingLockRepository) Delete(ctx context.Context, lockID, owner string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID, "owner": owner}); err != nil {
		return fmt.Errorf("failed to delete booking lock: %w", err)
	}
	return nil
}

func (r *mongoBookingLockRepository) DeleteExpired(ctx context.Context, lockID string, now time.Time) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{
		"_id":        lockID,
		"expires_at": bson.M{"$lt": now},
	})
	if err != nil {
		return false, fmt.Errorf("failed to reclaim booking lock: %w", err)
	}
	return result.DeletedCount == 1, nil
}

func (r *mongoBookingLockRepository) Extend(ctx context.Context, lockID, owner string, expiresAt time.Time) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": lockID, "owner": owner},
		bson.M{"$set": bson.M{"expires_at": expiresAt}},
	)
	if err != nil {
		return fmt.Errorf("failed to extend booking lock: %w", err)
	}
	if result.MatchedCount == 0 {
		return bookingserrors.ErrLockLost
	}
	return nil
}
