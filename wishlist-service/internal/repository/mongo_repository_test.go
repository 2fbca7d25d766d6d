package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stylehub/storefront/wishlist-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func setupTestDB(t *testing.T) (*MongoRepository, func()) {
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, MongoConfig{URI: uri, Database: "testdb", MaxPoolSize: 10})
	require.NoError(t, err)

	repo := NewMongoRepository(db)
	require.NoError(t, repo.CreateIndexes(ctx))

	cleanup := func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return repo, cleanup
}

func item(owner, productID string) *domain.WishlistItem {
	return &domain.WishlistItem{
		Owner:     owner,
		ProductID: productID,
		Name:      "Denim Jacket",
		Price:     89.99,
		Category:  "outerwear",
	}
}

func TestList_Empty(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	items, err := repo.List(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestAdd_AssignsIDAndListsNewestFirst(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	first := item("s1", "p1")
	require.NoError(t, repo.Add(ctx, first))
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.AddedAt.IsZero())

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, repo.Add(ctx, item("s1", "p2")))

	items, err := repo.List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "p2", items[0].ProductID)
	assert.Equal(t, "p1", items[1].ProductID)
}

func TestAdd_Duplicate(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, item("s1", "p1")))
	err := repo.Add(ctx, item("s1", "p1"))
	assert.ErrorIs(t, err, ErrAlreadyExists)

	// a different owner may save the same product
	require.NoError(t, repo.Add(ctx, item("s2", "p1")))

	items, err := repo.List(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestRemove(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, item("s1", "p1")))
	require.NoError(t, repo.Remove(ctx, "s1", "p1"))
	assert.ErrorIs(t, repo.Remove(ctx, "s1", "p1"), ErrItemNotFound)
}

func TestClear(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, item("s1", "p1")))
	require.NoError(t, repo.Add(ctx, item("s1", "p2")))
	require.NoError(t, repo.Add(ctx, item("s2", "p1")))

	n, err := repo.Clear(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	items, err := repo.List(ctx, "s2")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestContextCancellation(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Nanosecond)
	defer cancel()
	time.Sleep(10 * time.Millisecond)

	_, err := repo.List(ctx, "s1")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "context")
}
