package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	d "github.com/stylehub/storefront/checkout-service/domain"
)

const messageColumns = `id, session_id, payload, status, receipt_handle, receive_count, order_id, payment_method, created_at, updated_at`

func (r *Repository) Enqueue(ctx context.Context, msg *QueuedMessage) error {
	query := `INSERT INTO checkout_messages (id, session_id, payload, status, receive_count, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, 0, NOW(), NOW())`

	if _, err := r.db.ExecContext(ctx, query, msg.ID, msg.SessionID, msg.Payload, d.MessageStatusQueued); err != nil {
		return fmt.Errorf("insert checkout message: %w", err)
	}
	msg.Status = d.MessageStatusQueued
	return nil
}

// Receive hands out the oldest receivable message for the session (any
// session when sessionID is empty) under a fresh receipt handle.
func (r *Repository) Receive(ctx context.Context, sessionID, receiptHandle string) (*QueuedMessage, error) {
	query := `UPDATE checkout_messages
	          SET status = $3, receipt_handle = $2, receive_count = receive_count + 1, updated_at = NOW()
	          WHERE id = (
	              SELECT id FROM checkout_messages
	              WHERE ($1 = '' OR session_id = $1) AND status IN ($4, $3)
	              ORDER BY created_at, id
	              LIMIT 1
	              FOR UPDATE SKIP LOCKED
	          )
	          RETURNING ` + messageColumns

	var msg QueuedMessage
	err := r.db.QueryRowxContext(ctx, query, sessionID, receiptHandle,
		d.MessageStatusInFlight, d.MessageStatusQueued).StructScan(&msg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("receive checkout message: %w", err)
	}
	return &msg, nil
}

// MarkConsumed is the first confirm step: only the current receipt handle of
// an IN_FLIGHT message succeeds, and the order id is reserved with it.
func (r *Repository) MarkConsumed(ctx context.Context, receiptHandle, orderID string, method d.PaymentMethod) (*QueuedMessage, error) {
	query := `UPDATE checkout_messages
	          SET status = $4, order_id = $2, payment_method = $3, updated_at = NOW()
	          WHERE receipt_handle = $1 AND status = $5
	          RETURNING ` + messageColumns

	var msg QueuedMessage
	err := r.db.QueryRowxContext(ctx, query, receiptHandle, orderID, string(method),
		d.MessageStatusConsumed, d.MessageStatusInFlight).StructScan(&msg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStaleReceipt
	}
	if err != nil {
		return nil, fmt.Errorf("mark message consumed: %w", err)
	}
	return &msg, nil
}

// MarkCompleted is a no-op for messages that are not CONSUMED, so concurrent
// confirm and reconciliation runs can both call it.
func (r *Repository) MarkCompleted(ctx context.Context, messageID string) error {
	query := `UPDATE checkout_messages SET status = $2, updated_at = NOW()
	          WHERE id = $1 AND status = $3`

	if _, err := r.db.ExecContext(ctx, query, messageID, d.MessageStatusCompleted, d.MessageStatusConsumed); err != nil {
		return fmt.Errorf("mark message completed: %w", err)
	}
	return nil
}

func (r *Repository) GetStaleConsumed(ctx context.Context, olderThan time.Time, limit int) ([]*QueuedMessage, error) {
	query := `SELECT ` + messageColumns + `
	          FROM checkout_messages
	          WHERE status = $3 AND updated_at < $1
	          ORDER BY updated_at
	          LIMIT $2`

	var msgs []*QueuedMessage
	if err := r.db.SelectContext(ctx, &msgs, query, olderThan, limit, d.MessageStatusConsumed); err != nil {
		return nil, fmt.Errorf("query consumed messages: %w", err)
	}
	return msgs, nil
}

func (r *Repository) CountMessagesByStatus(ctx context.Context) (map[d.MessageStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM checkout_messages GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}
	defer rows.Close()

	counts := make(map[d.MessageStatus]int)
	for rows.Next() {
		var status d.MessageStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan message count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return counts, nil
}
