package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/stylehub/storefront/storefront/internal/domain"
)

// NotFoundError means the queue had no checkout for the session. It is
// distinct from transport failures.
type NotFoundError struct {
	Reason string
}

func (e *NotFoundError) Error() string {
	return "checkout not found: " + e.Reason
}

type CheckoutClient struct {
	c *client
}

func NewCheckoutClient(baseURL string, opts ...Option) *CheckoutClient {
	return &CheckoutClient{c: newClient("checkout", baseURL, opts...)}
}

type SendResult struct {
	MessageID string `json:"messageId"`
	SessionID string `json:"sessionId"`
}

type Receipt struct {
	Success       bool                    `json:"success"`
	CheckoutData  *domain.CheckoutPayload `json:"checkoutData"`
	ReceiptHandle string                  `json:"receiptHandle"`
	MessageID     string                  `json:"messageId"`
	Message       string                  `json:"message"`
}

type ConfirmRequest struct {
	ReceiptHandle string                  `json:"receiptHandle"`
	CheckoutData  *domain.CheckoutPayload `json:"checkoutData,omitempty"`
	PaymentMethod domain.PaymentMethod    `json:"paymentMethod"`
}

type ConfirmResult struct {
	Success bool   `json:"success"`
	OrderID string `json:"orderId"`
	Pending bool   `json:"pending"`
	Message string `json:"message"`
}

func (cc *CheckoutClient) Send(ctx context.Context, payload *domain.CheckoutPayload) (*SendResult, error) {
	var res SendResult
	if _, err := cc.c.do(ctx, http.MethodPost, "/checkout/send", payload, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Receive fetches the pending checkout for sessionID. A missing checkout is
// reported as *NotFoundError with the server's reason.
func (cc *CheckoutClient) Receive(ctx context.Context, sessionID string) (*Receipt, error) {
	var res Receipt
	raw, err := cc.c.do(ctx, http.MethodGet, "/checkout/receive?sessionId="+url.QueryEscape(sessionID), nil, &res)
	if IsStatus(err, http.StatusNotFound) {
		_ = json.Unmarshal(raw, &res)
		return nil, &NotFoundError{Reason: reason(res.Message, err)}
	}
	if err != nil {
		return nil, err
	}
	if !res.Success || res.CheckoutData == nil {
		return nil, &NotFoundError{Reason: reason(res.Message, nil)}
	}
	return &res, nil
}

func (cc *CheckoutClient) Confirm(ctx context.Context, req ConfirmRequest) (*ConfirmResult, error) {
	var res ConfirmResult
	if _, err := cc.c.do(ctx, http.MethodPost, "/checkout/confirm", req, &res); err != nil {
		return nil, err
	}
	if !res.Success || res.OrderID == "" {
		return nil, errors.New(reason(res.Message, errors.New("failed to confirm payment")))
	}
	return &res, nil
}

func (cc *CheckoutClient) Orders(ctx context.Context, sessionID string) ([]domain.Order, error) {
	var res struct {
		Orders []domain.Order `json:"orders"`
	}
	if _, err := cc.c.do(ctx, http.MethodGet, "/orders?sessionId="+url.QueryEscape(sessionID), nil, &res); err != nil {
		return nil, err
	}
	if res.Orders == nil {
		res.Orders = []domain.Order{}
	}
	return res.Orders, nil
}

func (cc *CheckoutClient) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	var order domain.Order
	body := map[string]string{"status": string(status)}
	path := fmt.Sprintf("/orders/%s/status", url.PathEscape(orderID))
	if _, err := cc.c.do(ctx, http.MethodPatch, path, body, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func reason(msg string, fallback error) string {
	if msg != "" {
		return msg
	}
	if fallback != nil {
		return fallback.Error()
	}
	return "No checkout data found for this session"
}
