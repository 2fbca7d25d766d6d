package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	d "github.com/stylehub/storefront/checkout-service/domain"
	r "github.com/stylehub/storefront/checkout-service/internal/repository"
	"github.com/stylehub/storefront/pkg/logger"
	"go.uber.org/zap"
)

func (s *CheckoutServiceImpl) ListOrders(ctx context.Context, sessionID string) ([]*d.Order, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrMissingSession
	}
	return s.repo.ListOrdersBySession(ctx, sessionID)
}

// UpdateOrderStatus advances an order one step along
// Processing -> Shipped -> Delivered.
func (s *CheckoutServiceImpl) UpdateOrderStatus(ctx context.Context, orderID string, to d.OrderStatus) (*d.Order, error) {
	order, err := s.repo.GetOrderByID(ctx, orderID)
	if errors.Is(err, r.ErrOrderNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(to) {
		return nil, IllegalTransitionError
	}

	changedAt := s.now()
	event, err := json.Marshal(d.OrderStatusChangedEvent{
		OrderID:   order.OrderID,
		From:      order.Status,
		To:        to,
		ChangedAt: changedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal status event: %w", err)
	}

	err = s.repo.UpdateOrderStatus(ctx, order.OrderID, order.Status, to, d.EventOrderStatusChanged, event)
	if errors.Is(err, r.ErrStatusConflict) {
		return nil, IllegalTransitionError
	}
	if err != nil {
		return nil, err
	}

	orderStatusChanges.WithLabelValues(string(to)).Inc()
	logger.WithContext(ctx, s.log).Info("order status changed",
		zap.String("order_id", order.OrderID),
		zap.String("from", string(order.Status)),
		zap.String("to", string(to)))

	order.Status = to
	order.UpdatedAt = changedAt
	return order, nil
}
