package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stylehub/storefront/comments-service/internal/domain"
	_ "modernc.org/sqlite"
)

type CommentRepository interface {
	Add(ctx context.Context, c *domain.Comment) error
	ListByProduct(ctx context.Context, productID string) ([]domain.Comment, error)
}

type Repository struct {
	db *sqlx.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer; ":memory:" databases also live per connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(migrationsPath string) error {
	driver, err := sqlite.WithInstance(r.db.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

// Add assigns the id and creation time and stores the comment.
func (r *Repository) Add(ctx context.Context, c *domain.Comment) error {
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO comments (id, product_id, author, email, comment, rating, created_at)
		VALUES (:id, :product_id, :author, :email, :comment, :rating, :created_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

// ListByProduct returns the product's comments, newest first.
func (r *Repository) ListByProduct(ctx context.Context, productID string) ([]domain.Comment, error) {
	query := `
		SELECT id, product_id, author, email, comment, rating, created_at
		FROM comments
		WHERE product_id = ?
		ORDER BY created_at DESC, rowid DESC
	`

	comments := []domain.Comment{}
	if err := r.db.SelectContext(ctx, &comments, query, productID); err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	return comments, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
