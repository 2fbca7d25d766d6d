package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	d "github.com/stylehub/storefront/checkout-service/domain"
)

var (
	ErrMessageNotFound   = errors.New("no checkout message for session")
	ErrStaleReceipt      = errors.New("receipt handle is stale or already used")
	ErrOrderNotFound     = errors.New("order not found")
	ErrDuplicateCheckout = errors.New("order for this checkout already exists")
	ErrStatusConflict    = errors.New("order status changed concurrently")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// QueuedMessage is one enqueued checkout. ReceiptHandle changes on every
// receive; only the latest handle can consume the message.
type QueuedMessage struct {
	ID            string          `db:"id"`
	SessionID     string          `db:"session_id"`
	Payload       []byte          `db:"payload"`
	Status        d.MessageStatus `db:"status"`
	ReceiptHandle sql.NullString  `db:"receipt_handle"`
	ReceiveCount  int             `db:"receive_count"`
	OrderID       sql.NullString  `db:"order_id"`
	PaymentMethod sql.NullString  `db:"payment_method"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

type OutboxEvent struct {
	ID          int64     `db:"id"`
	AggregateID string    `db:"aggregate_id"`
	EventType   string    `db:"event_type"`
	Payload     []byte    `db:"payload"`
	CreatedAt   time.Time `db:"created_at"`
}

type RepoInterface interface {
	Close() error
	RunMigrations(*Credentials) error

	Enqueue(ctx context.Context, msg *QueuedMessage) error
	Receive(ctx context.Context, sessionID, receiptHandle string) (*QueuedMessage, error)
	MarkConsumed(ctx context.Context, receiptHandle, orderID string, method d.PaymentMethod) (*QueuedMessage, error)
	MarkCompleted(ctx context.Context, messageID string) error
	GetStaleConsumed(ctx context.Context, olderThan time.Time, limit int) ([]*QueuedMessage, error)
	CountMessagesByStatus(ctx context.Context) (map[d.MessageStatus]int, error)

	CreateOrderWithEvent(ctx context.Context, order *d.Order, eventType string, payload []byte) error
	GetOrderByID(ctx context.Context, orderID string) (*d.Order, error)
	ListOrdersBySession(ctx context.Context, sessionID string) ([]*d.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, from, to d.OrderStatus, eventType string, payload []byte) error

	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
}

type Repository struct {
	db *sqlx.DB
}

func NewRepository(cred *Credentials) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sqlx.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &Repository{db: db}, nil
}

// NewRepositoryFromDB wraps an existing connection pool.
func NewRepositoryFromDB(db *sql.DB) *Repository {
	return &Repository{db: sqlx.NewDb(db, "postgres")}
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db.DB, &postgres.Config{
		MigrationsTable: "checkout_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
