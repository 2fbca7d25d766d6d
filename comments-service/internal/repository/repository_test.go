package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stylehub/storefront/comments-service/internal/domain"
	"github.com/stylehub/storefront/comments-service/internal/repository"
)

func setupTestDB(t *testing.T) *repository.Repository {
	t.Helper()

	repo, err := repository.NewRepository(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	require.NoError(t, repo.RunMigrations("./migrations"))
	return repo
}

func TestListByProduct_EmptyAfterMigrations(t *testing.T) {
	repo := setupTestDB(t)

	comments, err := repo.ListByProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.NotNil(t, comments)
	assert.Empty(t, comments)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	repo := setupTestDB(t)
	assert.NoError(t, repo.RunMigrations("./migrations"))
}

func TestAdd_AssignsIDAndTimestamp(t *testing.T) {
	repo := setupTestDB(t)

	c := &domain.Comment{ProductID: "p1", Author: "Ann", Comment: "Lovely fabric", Rating: 5}
	require.NoError(t, repo.Add(context.Background(), c))

	assert.NotEmpty(t, c.ID)
	assert.WithinDuration(t, time.Now(), c.CreatedAt, 5*time.Second)
}

func TestListByProduct_NewestFirstAndScoped(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, &domain.Comment{ProductID: "p1", Author: "Ann", Comment: "first", Rating: 4}))
	require.NoError(t, repo.Add(ctx, &domain.Comment{ProductID: "p2", Author: "Bob", Comment: "other product"}))
	require.NoError(t, repo.Add(ctx, &domain.Comment{ProductID: "p1", Author: "Cid", Comment: "second", Email: "cid@example.com"}))

	comments, err := repo.ListByProduct(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, comments, 2)

	assert.Equal(t, "second", comments[0].Comment)
	assert.Equal(t, "cid@example.com", comments[0].Email)
	assert.Equal(t, 0, comments[0].Rating)
	assert.Equal(t, "first", comments[1].Comment)
	assert.Equal(t, 4, comments[1].Rating)
}

func TestListByProduct_CancelledContext(t *testing.T) {
	repo := setupTestDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.ListByProduct(ctx, "p1")
	assert.Error(t, err)
}
