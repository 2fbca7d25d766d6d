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

// Confirm runs the checkout saga: consume the message under its receipt
// handle with a reserved order id, persist the order with its outbox event,
// then mark the message completed.
func (s *CheckoutServiceImpl) Confirm(ctx context.Context, req *ConfirmRequest) (*ConfirmResult, error) {
	handle := strings.TrimSpace(req.ReceiptHandle)
	if handle == "" {
		return nil, ErrMissingReceipt
	}
	if !req.PaymentMethod.Valid() {
		return nil, ErrInvalidPaymentMethod
	}

	msg, err := s.repo.MarkConsumed(ctx, handle, d.NewOrderID(), req.PaymentMethod)
	if errors.Is(err, r.ErrStaleReceipt) {
		confirmResults.WithLabelValues("stale").Inc()
		return nil, ErrStaleReceipt
	}
	if err != nil {
		return nil, err
	}

	result := &ConfirmResult{OrderID: msg.OrderID.String}
	if err := s.complete(ctx, msg); err != nil {
		confirmResults.WithLabelValues("deferred").Inc()
		logger.WithContext(ctx, s.log).Warn("order persistence deferred to reconciliation",
			zap.String("message_id", msg.ID),
			zap.String("order_id", result.OrderID),
			zap.Error(err))
		result.Pending = true
		return result, nil
	}

	confirmResults.WithLabelValues("completed").Inc()
	logger.WithContext(ctx, s.log).Info("checkout confirmed",
		zap.String("message_id", msg.ID),
		zap.String("order_id", result.OrderID),
		zap.String("payment_method", string(req.PaymentMethod)))
	return result, nil
}

// complete runs the persist and complete steps for a CONSUMED message. It
// is safe to repeat: the order insert is idempotent per message.
func (s *CheckoutServiceImpl) complete(ctx context.Context, msg *r.QueuedMessage) error {
	if !msg.Status.CanTransitionTo(d.MessageStatusCompleted) || !msg.OrderID.Valid {
		return fmt.Errorf("message %s is %s, not consumed", msg.ID, msg.Status)
	}

	var payload d.CheckoutPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal checkout payload: %w", err)
	}

	order := &d.Order{
		OrderID:           msg.OrderID.String,
		SessionID:         msg.SessionID,
		CheckoutMessageID: msg.ID,
		Status:            d.OrderStatusProcessing,
		Total:             payload.Total,
		Items:             payload.CartItems,
		UserInfo:          payload.UserInfo,
		PaymentMethod:     d.PaymentMethod(msg.PaymentMethod.String),
		CreatedAt:         s.now(),
	}

	event, err := json.Marshal(d.OrderPlacedEvent{
		OrderID:           order.OrderID,
		SessionID:         order.SessionID,
		CheckoutMessageID: order.CheckoutMessageID,
		Items:             order.Items,
		Total:             order.Total,
		PaymentMethod:     order.PaymentMethod,
		Status:            order.Status,
		CreatedAt:         order.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	err = s.repo.CreateOrderWithEvent(ctx, order, d.EventOrderPlaced, event)
	if err != nil && !errors.Is(err, r.ErrDuplicateCheckout) {
		return err
	}

	return s.repo.MarkCompleted(ctx, msg.ID)
}
