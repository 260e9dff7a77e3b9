package repository

import (
	"context"
	"errors"
	"fmt"
	bookingserrors "rentals/internal/bookings/errors"
	"rentals/pkg/config"
	mongotx "rentals/pkg/db/mongo"
	"rentals/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ProductReader is the read-only view of the product catalogue the booking
// service needs.
type ProductReader interface {
	FindProduct(ctx context.Context, id string) (*model.Product, error)
	FindProducts(ctx context.Context, ids []string) (map[string]*model.Product, error)
}

// UserReader resolves user summaries for booking responses.
type UserReader interface {
	FindUser(ctx context.Context, id string) (*model.User, error)
}

type MongoLookupRepository struct {
	cfg      *config.Config
	products *mongo.Collection
	users    *mongo.Collection
}

func NewMongoLookupRepository(cfg *config.Config) *MongoLookupRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &MongoLookupRepository{
		cfg:      cfg,
		products: db.Collection(mongotx.ProductsCollection),
		users:    db.Collection(mongotx.UsersCollection),
	}
}

func (r *MongoLookupRepository) FindProduct(ctx context.Context, id string) (*model.Product, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, bookingserrors.ErrProductNotFound
	}

	var product model.Product
	if err := r.products.FindOne(ctx, bson.M{"_id": objectID}).Decode(&product); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return &product, nil
}

func (r *MongoLookupRepository) FindProducts(ctx context.Context, ids []string) (map[string]*model.Product, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			objectIDs = append(objectIDs, oid)
		}
	}

	found := make(map[string]*model.Product, len(objectIDs))
	if len(objectIDs) == 0 {
		return found, nil
	}

	cursor, err := r.products.Find(ctx, bson.M{"_id": bson.M{"$in": objectIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	defer cursor.Close(ctx)

	var products []*model.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	for _, p := range products {
		found[p.ID] = p
	}
	return found, nil
}

func (r *MongoLookupRepository) FindUser(ctx context.Context, id string) (*model.User, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, bookingserrors.ErrUserNotFound
	}

	var user model.User
	if err := r.users.FindOne(ctx, bson.M{"_id": objectID}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}
