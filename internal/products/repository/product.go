package repository

import (
	"context"
	"errors"
	"fmt"
	productserrors "rentals/internal/products/errors"
	"rentals/pkg/config"
	mongotx "rentals/pkg/db/mongo"
	"rentals/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Product, error)
	Count(ctx context.Context) (int64, error)
	FindByOwner(ctx context.Context, ownerID string, limit int, offset int64) ([]*model.Product, error)
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
	Update(ctx context.Context, id string, product *model.Product) error
	Delete(ctx context.Context, id string) error
	// CountOpenBookings counts bookings of the product that end at or after now.
	CountOpenBookings(ctx context.Context, productID string, now time.Time) (int64, error)
	FindOwners(ctx context.Context, ownerIDs []string) (map[string]*model.User, error)
}

type mongoProductRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	bookings   *mongo.Collection
	users      *mongo.Collection
}

func NewMongoProductRepository(cfg *config.Config) ProductRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoProductRepository{
		cfg:        cfg,
		collection: db.Collection(mongotx.ProductsCollection),
		bookings:   db.Collection(mongotx.BookingsCollection),
		users:      db.Collection(mongotx.UsersCollection),
	}
}

func (r *mongoProductRepository) Create(ctx context.Context, product *model.Product) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, product)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		product.ID = oid.Hex()
	}
	return nil
}

func (r *mongoProductRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", productserrors.ErrInvalidID, id)
	}

	var product model.Product
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&product); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, productserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return &product, nil
}

func (r *mongoProductRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Product, error) {
	return r.find(ctx, bson.M{}, limit, offset)
}

func (r *mongoProductRepository) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, bson.M{})
}

func (r *mongoProductRepository) FindByOwner(ctx context.Context, ownerID string, limit int, offset int64) ([]*model.Product, error) {
	return r.find(ctx, bson.M{"owner_id": ownerID}, limit, offset)
}

func (r *mongoProductRepository) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	return r.count(ctx, bson.M{"owner_id": ownerID})
}

func (r *mongoProductRepository) find(ctx context.Context, filter bson.M, limit int, offset int64) ([]*model.Product, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	defer cursor.Close(ctx)

	products := []*model.Product{}
	if err = cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

func (r *mongoProductRepository) count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

func (r *mongoProductRepository) Update(ctx context.Context, id string, product *model.Product) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", productserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"name":        product.Name,
			"description": product.Description,
			"images":      product.Images,
			"address":     product.Address,
			"updated_at":  product.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if result.MatchedCount == 0 {
		return productserrors.ErrNotFound
	}
	return nil
}

func (r *mongoProductRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", productserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.DeletedCount == 0 {
		return productserrors.ErrNotFound
	}
	return nil
}

func (r *mongoProductRepository) CountOpenBookings(ctx context.Context, productID string, now time.Time) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.bookings.CountDocuments(ctx, bson.M{
		"product_id": productID,
		"to":         bson.M{"$gte": now},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count product bookings: %w", err)
	}
	return count, nil
}

func (r *mongoProductRepository) FindOwners(ctx context.Context, ownerIDs []string) (map[string]*model.User, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectIDs := make([]primitive.ObjectID, 0, len(ownerIDs))
	for _, id := range ownerIDs {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			objectIDs = append(objectIDs, oid)
		}
	}

	owners := make(map[string]*model.User, len(objectIDs))
	if len(objectIDs) == 0 {
		return owners, nil
	}

	opts := options.Find().SetProjection(bson.M{"name": 1, "email": 1})
	cursor, err := r.users.Find(ctx, bson.M{"_id": bson.M{"$in": objectIDs}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find product owners: %w", err)
	}
	defer cursor.Close(ctx)

	var users []*model.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode product owners: %w", err)
	}
	for _, u := range users {
		owners[u.ID] = u
	}
	return owners, nil
}
