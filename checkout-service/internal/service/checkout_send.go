package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	d "github.com/stylehub/storefront/checkout-service/domain"
	r "github.com/stylehub/storefront/checkout-service/internal/repository"
	"github.com/stylehub/storefront/pkg/logger"
	"go.uber.org/zap"
)

// Send validates the payload and enqueues it under its session id.
func (s *CheckoutServiceImpl) Send(ctx context.Context, payload *d.CheckoutPayload) (string, error) {
	payload.SessionID = strings.TrimSpace(payload.SessionID)
	if err := s.validate.Struct(payload); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal checkout payload: %w", err)
	}

	msg := &r.QueuedMessage{
		ID:        uuid.NewString(),
		SessionID: payload.SessionID,
		Payload:   body,
	}
	if err := s.repo.Enqueue(ctx, msg); err != nil {
		return "", err
	}

	messagesEnqueued.Inc()
	logger.WithContext(ctx, s.log).Info("checkout enqueued",
		zap.String("message_id", msg.ID),
		zap.String("session_id", msg.SessionID),
		zap.Int("items", len(payload.CartItems)))
	return msg.ID, nil
}
