package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	r "github.com/stylehub/storefront/checkout-service/internal/repository"
	"github.com/stylehub/storefront/pkg/logger"
	"go.uber.org/zap"
)

// Receive returns the oldest unconsumed checkout for the session under a new
// receipt handle. Earlier handles for the same message stop working.
func (s *CheckoutServiceImpl) Receive(ctx context.Context, sessionID string) (*Delivery, error) {
	handle := uuid.NewString()

	msg, err := s.repo.Receive(ctx, sessionID, handle)
	if errors.Is(err, r.ErrMessageNotFound) {
		receiveResults.WithLabelValues("empty").Inc()
		return nil, ErrNoPendingCheckout
	}
	if err != nil {
		return nil, err
	}

	delivery := &Delivery{
		MessageID:     msg.ID,
		ReceiptHandle: handle,
	}
	if err := json.Unmarshal(msg.Payload, &delivery.Payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkout payload: %w", err)
	}

	receiveResults.WithLabelValues("found").Inc()
	logger.WithContext(ctx, s.log).Info("checkout received",
		zap.String("message_id", msg.ID),
		zap.String("session_id", msg.SessionID),
		zap.Int("receive_count", msg.ReceiveCount))
	return delivery, nil
}
