package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	d "github.com/stylehub/storefront/checkout-service/domain"
)

func newPayload(sessionID string) *d.CheckoutPayload {
	return &d.CheckoutPayload{
		SessionID: sessionID,
		CartItems: []d.CartItem{
			{ProductID: "p1", Name: "Tee", Size: "M", Color: "Black", Quantity: 2, Price: 10},
			{ProductID: "p2", Name: "Cap", Quantity: 3, Price: 5},
		},
		Total:    35,
		UserInfo: d.UserInfo{Name: "Ann", Email: "ann@example.com", City: "Oslo"},
	}
}

func TestSend_Validation(t *testing.T) {
	svc := NewCheckoutService(newFakeRepository(), nil)

	tests := []struct {
		name   string
		mutate func(p *d.CheckoutPayload)
	}{
		{"missing session", func(p *d.CheckoutPayload) { p.SessionID = "  " }},
		{"no items", func(p *d.CheckoutPayload) { p.CartItems = nil }},
		{"zero quantity", func(p *d.CheckoutPayload) { p.CartItems[0].Quantity = 0 }},
		{"negative total", func(p *d.CheckoutPayload) { p.Total = -1 }},
		{"bad email", func(p *d.CheckoutPayload) { p.UserInfo.Email = "nope" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPayload("S1")
			tt.mutate(p)
			_, err := svc.Send(context.Background(), p)
			assert.ErrorIs(t, err, ErrInvalidPayload)
		})
	}
}

func TestCheckoutHandoff_EndToEnd(t *testing.T) {
	repo := newFakeRepository()
	svc := NewCheckoutService(repo, nil)
	ctx := context.Background()

	messageID, err := svc.Send(ctx, newPayload("S1"))
	require.NoError(t, err)
	require.NotEmpty(t, messageID)

	delivery, err := svc.Receive(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, messageID, delivery.MessageID)
	assert.Equal(t, *newPayload("S1"), delivery.Payload)
	require.NotEmpty(t, delivery.ReceiptHandle)

	result, err := svc.Confirm(ctx, &ConfirmRequest{ReceiptHandle: delivery.ReceiptHandle, PaymentMethod: d.PaymentMethodCard})
	require.NoError(t, err)
	assert.NotEmpty(t, result.OrderID)
	assert.False(t, result.Pending)

	_, err = svc.Receive(ctx, "S1")
	assert.ErrorIs(t, err, ErrNoPendingCheckout)

	assert.Equal(t, d.MessageStatusCompleted, repo.message(messageID).Status)

	orders, err := svc.ListOrders(ctx, "S1")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, result.OrderID, orders[0].OrderID)
	assert.Equal(t, d.OrderStatusProcessing, orders[0].Status)
	assert.Equal(t, 35.0, orders[0].Total)
	assert.Equal(t, d.PaymentMethodCard, orders[0].PaymentMethod)
	require.Len(t, repo.events, 1)
	assert.Equal(t, d.EventOrderPlaced, repo.events[0].EventType)
}

func TestReceive_NotFoundIsDistinct(t *testing.T) {
	svc := NewCheckoutService(newFakeRepository(), nil)

	_, err := svc.Receive(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNoPendingCheckout)
}

func TestReceive_RotatesHandle(t *testing.T) {
	svc := NewCheckoutService(newFakeRepository(), nil)
	ctx := context.Background()

	_, err := svc.Send(ctx, newPayload("S1"))
	require.NoError(t, err)

	first, err := svc.Receive(ctx, "S1")
	require.NoError(t, err)
	second, err := svc.Receive(ctx, "S1")
	require.NoError(t, err)
	assert.NotEqual(t, first.ReceiptHandle, second.ReceiptHandle)

	_, err = svc.Confirm(ctx, &ConfirmRequest{ReceiptHandle: first.ReceiptHandle, PaymentMethod: d.PaymentMethodCard})
	assert.ErrorIs(t, err, ErrStaleReceipt)

	_, err = svc.Confirm(ctx, &ConfirmRequest{ReceiptHandle: second.ReceiptHandle, PaymentMethod: d.PaymentMethodPayPal})
	assert.NoError(t, err)
}

func TestConfirm_TwiceFailsSecondTime(t *testing.T) {
	repo := newFakeRepository()
	svc := NewCheckoutService(repo, nil)
	ctx := context.Background()

	_, err := svc.Send(ctx, newPayload("S1"))
	require.NoError(t, err)
	delivery, err := svc.Receive(ctx, "S1")
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, &ConfirmRequest{ReceiptHandle: delivery.ReceiptHandle, PaymentMethod: d.PaymentMethodCard})
	require.NoError(t, err)
	_, err = svc.Confirm(ctx, &ConfirmRequest{ReceiptHandle: delivery.ReceiptHandle, PaymentMethod: d.PaymentMethodCard})
	assert.ErrorIs(t, err, ErrStaleReceipt)
	assert.Len(t, repo.orders, 1)
}

func TestConfirm_InputValidation(t *testing.T) {
	svc := NewCheckoutService(newFakeRepository(), nil)

	_, err := svc.Confirm(context.Background(), &ConfirmRequest{PaymentMethod: d.PaymentMethodCard})
	assert.ErrorIs(t, err, ErrMissingReceipt)

	_, err = svc.Confirm(context.Background(), &ConfirmRequest{ReceiptHandle: "h", PaymentMethod: "cash"})
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
}

func TestConfirm_PersistFailureIsReconciledExactlyOnce(t *testing.T) {
	repo := newFakeRepository()
	svc := NewCheckoutService(repo, nil)
	ctx := context.Background()

	messageID, err := svc.Send(ctx, newPayload("S1"))
	require.NoError(t, err)
	delivery, err := svc.Receive(ctx, "S1")
	require.NoError(t, err)

	repo.CreateOrderErr = errors.New("connection reset")
	result, err := svc.Confirm(ctx, &ConfirmRequest{ReceiptHandle: delivery.ReceiptHandle, PaymentMethod: d.PaymentMethodCard})
	require.NoError(t, err)
	assert.True(t, result.Pending)
	assert.Equal(t, d.MessageStatusConsumed, repo.message(messageID).Status)

	_, err = svc.Receive(ctx, "S1")
	assert.ErrorIs(t, err, ErrNoPendingCheckout, "consumed message must not be handed out again")

	repo.CreateOrderErr = nil

	n, err := svc.Reconcile(ctx, time.Minute, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "messages inside the grace period are left alone")

	repo.ageConsumed(2 * time.Minute)
	n, err = svc.Reconcile(ctx, time.Minute, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = svc.Reconcile(ctx, time.Minute, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	order, err := repo.GetOrderByID(ctx, result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, messageID, order.CheckoutMessageID)
	assert.Equal(t, d.MessageStatusCompleted, repo.message(messageID).Status)
	assert.Len(t, repo.orders, 1)
}

func TestReconcile_OrderAlreadyPersisted(t *testing.T) {
	repo := newFakeRepository()
	svc := NewCheckoutService(repo, nil)
	ctx := context.Background()

	messageID, err := svc.Send(ctx, newPayload("S1"))
	require.NoError(t, err)
	delivery, err := svc.Receive(ctx, "S1")
	require.NoError(t, err)

	repo.MarkCompletedErr = errors.New("timeout")
	result, err := svc.Confirm(ctx, &ConfirmRequest{ReceiptHandle: delivery.ReceiptHandle, PaymentMethod: d.PaymentMethodCard})
	require.NoError(t, err)
	assert.True(t, result.Pending)

	repo.MarkCompletedErr = nil
	repo.ageConsumed(time.Hour)
	n, err := svc.Reconcile(ctx, time.Minute, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, repo.orders, 1)
	assert.Equal(t, d.MessageStatusCompleted, repo.message(messageID).Status)
}

func TestUpdateOrderStatus_ForwardOnly(t *testing.T) {
	repo := newFakeRepository()
	svc := NewCheckoutService(repo, nil)
	ctx := context.Background()

	_, err := svc.Send(ctx, newPayload("S1"))
	require.NoError(t, err)
	delivery, err := svc.Receive(ctx, "S1")
	require.NoError(t, err)
	result, err := svc.Confirm(ctx, &ConfirmRequest{ReceiptHandle: delivery.ReceiptHandle, PaymentMethod: d.PaymentMethodCard})
	require.NoError(t, err)

	_, err = svc.UpdateOrderStatus(ctx, result.OrderID, d.OrderStatusDelivered)
	assert.ErrorIs(t, err, IllegalTransitionError)

	order, err := svc.UpdateOrderStatus(ctx, result.OrderID, d.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, d.OrderStatusShipped, order.Status)

	_, err = svc.UpdateOrderStatus(ctx, result.OrderID, d.OrderStatusProcessing)
	assert.ErrorIs(t, err, IllegalTransitionError)

	order, err = svc.UpdateOrderStatus(ctx, result.OrderID, d.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, d.OrderStatusDelivered, order.Status)

	_, err = svc.UpdateOrderStatus(ctx, "ORD-MISSING", d.OrderStatusShipped)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestListOrders_RequiresSession(t *testing.T) {
	svc := NewCheckoutService(newFakeRepository(), nil)

	_, err := svc.ListOrders(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingSession)
}
