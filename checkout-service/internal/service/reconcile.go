package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Reconcile finishes messages left CONSUMED for longer than grace, which
// happens when a confirm call failed after the consume step.
func (s *CheckoutServiceImpl) Reconcile(ctx context.Context, grace time.Duration, limit int) (int, error) {
	msgs, err := s.repo.GetStaleConsumed(ctx, s.now().Add(-grace), limit)
	if err != nil {
		return 0, err
	}

	recovered := 0
	for _, msg := range msgs {
		if err := s.complete(ctx, msg); err != nil {
			s.log.Error("failed to reconcile checkout",
				zap.String("message_id", msg.ID),
				zap.String("order_id", msg.OrderID.String),
				zap.Error(err))
			continue
		}
		recovered++
		reconciledMessages.Inc()
		s.log.Info("checkout reconciled",
			zap.String("message_id", msg.ID),
			zap.String("order_id", msg.OrderID.String))
	}
	return recovered, nil
}
