package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stylehub/storefront/wishlist-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		collection: db.Collection("wishlist_items"),
	}
}

func (m *MongoRepository) List(ctx context.Context, owner string) ([]domain.WishlistItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "added_at", Value: -1}})
	cursor, err := m.collection.Find(ctx, bson.M{"owner": owner}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlist: %w", err)
	}
	defer cursor.Close(ctx)

	items := make([]domain.WishlistItem, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode wishlist: %w", err)
	}
	return items, nil
}

// Add inserts item, assigning its id and timestamp. A second insert for the
// same owner and product fails with ErrAlreadyExists.
func (m *MongoRepository) Add(ctx context.Context, item *domain.WishlistItem) error {
	item.ID = uuid.NewString()
	item.AddedAt = time.Now().UTC()

	_, err := m.collection.InsertOne(ctx, item)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to add wishlist item: %w", err)
	}
	return nil
}

func (m *MongoRepository) Remove(ctx context.Context, owner, productID string) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"owner": owner, "product_id": productID})
	if err != nil {
		return fmt.Errorf("failed to remove wishlist item: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (m *MongoRepository) Clear(ctx context.Context, owner string) (int64, error) {
	result, err := m.collection.DeleteMany(ctx, bson.M{"owner": owner})
	if err != nil {
		return 0, fmt.Errorf("failed to clear wishlist: %w", err)
	}
	return result.DeletedCount, nil
}

func (m *MongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner", Value: 1}, {Key: "product_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "owner", Value: 1}, {Key: "added_at", Value: -1}},
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
