package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/stylehub/storefront/storefront/internal/domain"
	"github.com/stylehub/storefront/storefront/internal/remote"
	"go.uber.org/zap"
)

var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrCheckoutNotFound     = errors.New("checkout not found")
	ErrNoSession            = errors.New("no session id")
	ErrInvalidPaymentMethod = errors.New("payment method must be card or paypal")
	ErrMissingReceipt       = errors.New("pending checkout has no receipt handle")
)

// NotFoundError carries the server's reason for an empty queue. It matches
// ErrCheckoutNotFound with errors.Is.
type NotFoundError struct {
	Reason string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s: %s", ErrCheckoutNotFound, e.Reason) }

func (e *NotFoundError) Unwrap() error { return ErrCheckoutNotFound }

type Queue interface {
	Send(ctx context.Context, payload *domain.CheckoutPayload) (*remote.SendResult, error)
	Receive(ctx context.Context, sessionID string) (*remote.Receipt, error)
	Confirm(ctx context.Context, req remote.ConfirmRequest) (*remote.ConfirmResult, error)
}

type Sessions interface {
	GetOrCreateSessionID(ctx context.Context) (string, error)
	SessionID(ctx context.Context) (string, bool, error)
}

// Cart is the read side of the cart model.
type Cart interface {
	Items() []domain.CartLineItem
	TotalPrice() float64
}

type Started struct {
	SessionID string
	MessageID string
}

// Pending is a received checkout awaiting payment.
type Pending struct {
	SessionID     string
	MessageID     string
	ReceiptHandle string
	Payload       domain.CheckoutPayload
}

type Confirmation struct {
	OrderID string
	// Pending is set when the order id is assigned but persistence is still
	// being finished by the server.
	Pending bool
}

// Flow drives the three-step handoff: Begin enqueues the cart, Load
// receives it on the payment side, Confirm pays for it.
type Flow struct {
	queue    Queue
	sessions Sessions
	log      *zap.Logger
}

func NewFlow(queue Queue, sessions Sessions, log *zap.Logger) *Flow {
	if log == nil {
		log = zap.NewNop()
	}
	return &Flow{queue: queue, sessions: sessions, log: log}
}

func (f *Flow) Begin(ctx context.Context, cart Cart, billing domain.UserInfo) (*Started, error) {
	items := cart.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	sessionID, err := f.sessions.GetOrCreateSessionID(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}

	payload := &domain.CheckoutPayload{
		SessionID: sessionID,
		CartItems: items,
		Total:     cart.TotalPrice(),
		UserInfo:  billing,
	}

	res, err := f.queue.Send(ctx, payload)
	if err != nil {
		f.log.Error("failed to send checkout", zap.String("session_id", sessionID), zap.Error(err))
		return nil, fmt.Errorf("send checkout: %w", err)
	}

	f.log.Info("checkout queued",
		zap.String("session_id", sessionID),
		zap.String("message_id", res.MessageID),
		zap.Int("items", len(items)))
	return &Started{SessionID: sessionID, MessageID: res.MessageID}, nil
}

func (f *Flow) Load(ctx context.Context, sessionID string) (*Pending, error) {
	if sessionID == "" {
		return nil, ErrNoSession
	}

	receipt, err := f.queue.Receive(ctx, sessionID)
	var nf *remote.NotFoundError
	if errors.As(err, &nf) {
		return nil, &NotFoundError{Reason: nf.Reason}
	}
	if err != nil {
		return nil, fmt.Errorf("receive checkout: %w", err)
	}

	return &Pending{
		SessionID:     sessionID,
		MessageID:     receipt.MessageID,
		ReceiptHandle: receipt.ReceiptHandle,
		Payload:       *receipt.CheckoutData,
	}, nil
}

// Resume loads the pending checkout for the stored session.
func (f *Flow) Resume(ctx context.Context) (*Pending, error) {
	sessionID, ok, err := f.sessions.SessionID(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoSession
	}
	return f.Load(ctx, sessionID)
}

func (f *Flow) Confirm(ctx context.Context, p *Pending, method domain.PaymentMethod) (*Confirmation, error) {
	if method != domain.PaymentCard && method != domain.PaymentPayPal {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, method)
	}
	if p == nil || p.ReceiptHandle == "" {
		return nil, ErrMissingReceipt
	}

	payload := p.Payload
	res, err := f.queue.Confirm(ctx, remote.ConfirmRequest{
		ReceiptHandle: p.ReceiptHandle,
		CheckoutData:  &payload,
		PaymentMethod: method,
	})
	if err != nil {
		f.log.Error("payment confirmation failed", zap.String("session_id", p.SessionID), zap.Error(err))
		return nil, fmt.Errorf("confirm payment: %w", err)
	}

	f.log.Info("payment confirmed",
		zap.String("session_id", p.SessionID),
		zap.String("order_id", res.OrderID),
		zap.Bool("pending", res.Pending))
	return &Confirmation{OrderID: res.OrderID, Pending: res.Pending}, nil
}
