package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	d "github.com/stylehub/storefront/checkout-service/domain"
	r "github.com/stylehub/storefront/checkout-service/internal/repository"
	"go.uber.org/zap"
)

type CheckoutService interface {
	Send(ctx context.Context, payload *d.CheckoutPayload) (string, error)
	Receive(ctx context.Context, sessionID string) (*Delivery, error)
	Confirm(ctx context.Context, req *ConfirmRequest) (*ConfirmResult, error)
	Reconcile(ctx context.Context, grace time.Duration, limit int) (int, error)
	ListOrders(ctx context.Context, sessionID string) ([]*d.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, to d.OrderStatus) (*d.Order, error)
}

// Delivery is a received checkout message. ReceiptHandle is valid until the
// next receive of the same message.
type Delivery struct {
	MessageID     string
	ReceiptHandle string
	Payload       d.CheckoutPayload
}

type ConfirmRequest struct {
	ReceiptHandle string
	PaymentMethod d.PaymentMethod
}

// ConfirmResult carries the order id. Pending is set when the message was
// consumed but the order write failed; the reconciliation sweep finishes it
// under the same order id.
type ConfirmResult struct {
	OrderID string
	Pending bool
}

type CheckoutServiceImpl struct {
	repo     r.RepoInterface
	validate *validator.Validate
	log      *zap.Logger
	now      func() time.Time
}

func NewCheckoutService(repo r.RepoInterface, log *zap.Logger) *CheckoutServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &CheckoutServiceImpl{
		repo:     repo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}
