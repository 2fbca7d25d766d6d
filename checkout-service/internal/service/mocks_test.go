package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	d "github.com/stylehub/storefront/checkout-service/domain"
	r "github.com/stylehub/storefront/checkout-service/internal/repository"
)

// fakeRepository is an in-memory r.RepoInterface with the same conditional
// semantics as the Postgres queries.
type fakeRepository struct {
	mu       sync.Mutex
	seq      int
	messages map[string]*r.QueuedMessage
	order    []string
	orders   map[string]*d.Order
	byMsg    map[string]string
	events   []*r.OutboxEvent

	CreateOrderErr   error
	CreateOrderCalls int
	MarkCompletedErr error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		messages: make(map[string]*r.QueuedMessage),
		orders:   make(map[string]*d.Order),
		byMsg:    make(map[string]string),
	}
}

func (f *fakeRepository) Close() error                       { return nil }
func (f *fakeRepository) RunMigrations(*r.Credentials) error { return nil }

func (f *fakeRepository) Enqueue(_ context.Context, msg *r.QueuedMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	cp := *msg
	cp.Status = d.MessageStatusQueued
	cp.CreatedAt = time.Now().Add(time.Duration(f.seq) * time.Millisecond)
	cp.UpdatedAt = cp.CreatedAt
	f.messages[cp.ID] = &cp
	f.order = append(f.order, cp.ID)
	return nil
}

func (f *fakeRepository) Receive(_ context.Context, sessionID, handle string) (*r.QueuedMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.order {
		m := f.messages[id]
		if (sessionID == "" || m.SessionID == sessionID) && m.Status.CanTransitionTo(d.MessageStatusInFlight) {
			m.Status = d.MessageStatusInFlight
			m.ReceiptHandle = sql.NullString{String: handle, Valid: true}
			m.ReceiveCount++
			m.UpdatedAt = time.Now()
			cp := *m
			return &cp, nil
		}
	}
	return nil, r.ErrMessageNotFound
}

func (f *fakeRepository) MarkConsumed(_ context.Context, handle, orderID string, method d.PaymentMethod) (*r.QueuedMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.ReceiptHandle.String == handle && m.Status == d.MessageStatusInFlight {
			m.Status = d.MessageStatusConsumed
			m.OrderID = sql.NullString{String: orderID, Valid: true}
			m.PaymentMethod = sql.NullString{String: string(method), Valid: true}
			m.UpdatedAt = time.Now()
			cp := *m
			return &cp, nil
		}
	}
	return nil, r.ErrStaleReceipt
}

func (f *fakeRepository) MarkCompleted(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.MarkCompletedErr != nil {
		return f.MarkCompletedErr
	}
	if m, ok := f.messages[id]; ok && m.Status == d.MessageStatusConsumed {
		m.Status = d.MessageStatusCompleted
	}
	return nil
}

func (f *fakeRepository) GetStaleConsumed(_ context.Context, olderThan time.Time, limit int) ([]*r.QueuedMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*r.QueuedMessage
	for _, id := range f.order {
		m := f.messages[id]
		if m.Status == d.MessageStatusConsumed && m.UpdatedAt.Before(olderThan) && len(out) < limit {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRepository) CountMessagesByStatus(context.Context) (map[d.MessageStatus]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[d.MessageStatus]int)
	for _, m := range f.messages {
		counts[m.Status]++
	}
	return counts, nil
}

func (f *fakeRepository) CreateOrderWithEvent(_ context.Context, order *d.Order, eventType string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreateOrderCalls++
	if f.CreateOrderErr != nil {
		return f.CreateOrderErr
	}
	if _, ok := f.byMsg[order.CheckoutMessageID]; ok {
		return r.ErrDuplicateCheckout
	}
	cp := *order
	cp.UpdatedAt = cp.CreatedAt
	f.orders[cp.OrderID] = &cp
	f.byMsg[cp.CheckoutMessageID] = cp.OrderID
	f.events = append(f.events, &r.OutboxEvent{ID: int64(len(f.events) + 1), AggregateID: cp.OrderID, EventType: eventType, Payload: payload})
	return nil
}

func (f *fakeRepository) GetOrderByID(_ context.Context, id string) (*d.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, r.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeRepository) ListOrdersBySession(_ context.Context, sessionID string) ([]*d.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*d.Order{}
	for _, o := range f.orders {
		if o.SessionID == sessionID {
			cp := *o
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeRepository) UpdateOrderStatus(_ context.Context, id string, from, to d.OrderStatus, eventType string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.Status != from {
		return r.ErrStatusConflict
	}
	o.Status = to
	f.events = append(f.events, &r.OutboxEvent{ID: int64(len(f.events) + 1), AggregateID: id, EventType: eventType, Payload: payload})
	return nil
}

func (f *fakeRepository) GetUnprocessedEvents(context.Context, int) ([]*r.OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*r.OutboxEvent(nil), f.events...), nil
}

func (f *fakeRepository) MarkEventAsProcessed(context.Context, int64) error { return nil }

func (f *fakeRepository) message(id string) r.QueuedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.messages[id]
}

func (f *fakeRepository) ageConsumed(by time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.Status == d.MessageStatusConsumed {
			m.UpdatedAt = m.UpdatedAt.Add(-by)
		}
	}
}
