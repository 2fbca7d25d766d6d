package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	d "github.com/stylehub/storefront/checkout-service/domain"
)

type orderRow struct {
	d.Order
	ItemsJSON    []byte `db:"items"`
	UserInfoJSON []byte `db:"user_info"`
}

func (row *orderRow) toOrder() (*d.Order, error) {
	order := row.Order
	if err := json.Unmarshal(row.ItemsJSON, &order.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	if len(row.UserInfoJSON) > 0 {
		if err := json.Unmarshal(row.UserInfoJSON, &order.UserInfo); err != nil {
			return nil, fmt.Errorf("unmarshal order user info: %w", err)
		}
	}
	return &order, nil
}

const orderColumns = `id, session_id, checkout_message_id, status, total, items, user_info, payment_method, created_at, updated_at`

// CreateOrderWithEvent stores the order and its outbox event in one
// transaction. A second order for the same checkout message returns
// ErrDuplicateCheckout and writes nothing.
func (r *Repository) CreateOrderWithEvent(ctx context.Context, order *d.Order, eventType string, payload []byte) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}
	userInfoJSON, err := json.Marshal(order.UserInfo)
	if err != nil {
		return fmt.Errorf("failed to marshal user info: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO orders (`+orderColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		 ON CONFLICT (checkout_message_id) DO NOTHING`,
		order.OrderID,
		order.SessionID,
		order.CheckoutMessageID,
		order.Status,
		order.Total,
		itemsJSON,
		userInfoJSON,
		order.PaymentMethod,
		order.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	if n == 0 {
		return ErrDuplicateCheckout
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO outbox_events (aggregate_id, event_type, payload, created_at) VALUES ($1, $2, $3, NOW())`,
		order.OrderID, eventType, payload); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	return nil
}

func (r *Repository) GetOrderByID(ctx context.Context, orderID string) (*d.Order, error) {
	var row orderRow
	err := r.db.QueryRowxContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID).StructScan(&row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}
	return row.toOrder()
}

func (r *Repository) ListOrdersBySession(ctx context.Context, sessionID string) ([]*d.Order, error) {
	var rows []orderRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+orderColumns+` FROM orders WHERE session_id = $1 ORDER BY created_at DESC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query orders by session: %w", err)
	}

	orders := make([]*d.Order, 0, len(rows))
	for i := range rows {
		order, err := rows[i].toOrder()
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// UpdateOrderStatus moves the order from one status to another and records
// the outbox event. ErrStatusConflict means the order was no longer in from.
func (r *Repository) UpdateOrderStatus(ctx context.Context, orderID string, from, to d.OrderStatus, eventType string, payload []byte) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`,
		orderID, from, to)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if n == 0 {
		return ErrStatusConflict
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO outbox_events (aggregate_id, event_type, payload, created_at) VALUES ($1, $2, $3, NOW())`,
		orderID, eventType, payload); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit status change: %w", err)
	}
	return nil
}
