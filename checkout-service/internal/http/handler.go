package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	d "github.com/stylehub/storefront/checkout-service/domain"
	s "github.com/stylehub/storefront/checkout-service/internal/service"
	"github.com/stylehub/storefront/pkg/httpapi"
	"github.com/stylehub/storefront/pkg/logger"
	"go.uber.org/zap"
)

const noCheckoutMessage = "No checkout data found for this session"

type CheckoutHandler struct {
	service s.CheckoutService
	timeout time.Duration
	log     *zap.Logger
}

func NewCheckoutHandler(service s.CheckoutService, timeout time.Duration, log *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		timeout: timeout,
		log:     log,
	}
}

type SendResponseDTO struct {
	MessageID string `json:"messageId"`
	SessionID string `json:"sessionId"`
}

type ReceiveResponseDTO struct {
	Success       bool               `json:"success"`
	CheckoutData  *d.CheckoutPayload `json:"checkoutData,omitempty"`
	ReceiptHandle string             `json:"receiptHandle,omitempty"`
	MessageID     string             `json:"messageId,omitempty"`
	Message       string             `json:"message,omitempty"`
}

// ConfirmRequestDTO mirrors the storefront's confirm call. CheckoutData is
// accepted for compatibility; the stored payload is authoritative.
type ConfirmRequestDTO struct {
	ReceiptHandle string             `json:"receiptHandle"`
	CheckoutData  *d.CheckoutPayload `json:"checkoutData,omitempty"`
	PaymentMethod string             `json:"paymentMethod"`
}

type ConfirmResponseDTO struct {
	Success bool   `json:"success"`
	OrderID string `json:"orderId"`
	Pending bool   `json:"pending,omitempty"`
	Message string `json:"message,omitempty"`
}

type OrdersResponseDTO struct {
	Orders []*d.Order `json:"orders"`
}

type UpdateStatusRequestDTO struct {
	Status string `json:"status"`
}

func (h *CheckoutHandler) Routes(r chi.Router) {
	r.Route("/checkout", func(r chi.Router) {
		r.Post("/send", h.Send)
		r.Get("/receive", h.Receive)
		r.Post("/confirm", h.Confirm)
	})
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.ListOrders)
		r.Patch("/{orderId}/status", h.UpdateOrderStatus)
	})
}

func (h *CheckoutHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var payload d.CheckoutPayload
	if err := httpapi.DecodeJSON(r, &payload); err != nil {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	messageID, err := h.service.Send(ctx, &payload)
	if err != nil {
		h.handleServiceError(w, r, err, "Failed to send checkout data")
		return
	}

	httpapi.RespondJSON(w, http.StatusCreated, SendResponseDTO{
		MessageID: messageID,
		SessionID: payload.SessionID,
	})
}

func (h *CheckoutHandler) Receive(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	delivery, err := h.service.Receive(ctx, r.URL.Query().Get("sessionId"))
	if errors.Is(err, s.ErrNoPendingCheckout) {
		httpapi.RespondJSON(w, http.StatusNotFound, ReceiveResponseDTO{
			Success: false,
			Message: noCheckoutMessage,
		})
		return
	}
	if err != nil {
		h.handleServiceError(w, r, err, "Failed to receive checkout data")
		return
	}

	httpapi.RespondJSON(w, http.StatusOK, ReceiveResponseDTO{
		Success:       true,
		CheckoutData:  &delivery.Payload,
		ReceiptHandle: delivery.ReceiptHandle,
		MessageID:     delivery.MessageID,
	})
}

func (h *CheckoutHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ConfirmRequestDTO
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	result, err := h.service.Confirm(ctx, &s.ConfirmRequest{
		ReceiptHandle: req.ReceiptHandle,
		PaymentMethod: d.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		h.handleServiceError(w, r, err, "Failed to confirm payment")
		return
	}

	status := http.StatusOK
	resp := ConfirmResponseDTO{Success: true, OrderID: result.OrderID}
	if result.Pending {
		status = http.StatusAccepted
		resp.Pending = true
		resp.Message = "Payment accepted, order is being recorded"
	}
	httpapi.RespondJSON(w, status, resp)
}

func (h *CheckoutHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.service.ListOrders(ctx, r.URL.Query().Get("sessionId"))
	if err != nil {
		h.handleServiceError(w, r, err, "Failed to fetch orders")
		return
	}

	httpapi.RespondJSON(w, http.StatusOK, OrdersResponseDTO{Orders: orders})
}

func (h *CheckoutHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateStatusRequestDTO
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	to, err := d.ParseOrderStatus(req.Status)
	if err != nil {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_status", err.Error())
		return
	}

	order, err := h.service.UpdateOrderStatus(ctx, chi.URLParam(r, "orderId"), to)
	if err != nil {
		h.handleServiceError(w, r, err, "Failed to update order")
		return
	}

	httpapi.RespondJSON(w, http.StatusOK, order)
}

func (h *CheckoutHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, s.ErrInvalidPayload):
		httpapi.RespondJSON(w, http.StatusBadRequest, httpapi.ErrorResponse{
			Error:   s.ErrInvalidPayload.Error(),
			Code:    "invalid_payload",
			Details: err.Error(),
		})
	case errors.Is(err, s.ErrInvalidPaymentMethod):
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_payment_method", err.Error())
	case errors.Is(err, s.ErrMissingReceipt), errors.Is(err, s.ErrMissingSession):
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, s.ErrStaleReceipt):
		httpapi.RespondError(w, http.StatusConflict, "stale_receipt", err.Error())
	case errors.Is(err, s.ErrOrderNotFound):
		httpapi.RespondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, s.IllegalTransitionError):
		httpapi.RespondError(w, http.StatusConflict, "illegal_transition", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		httpapi.RespondError(w, http.StatusGatewayTimeout, "timeout", "request timeout")
	default:
		logger.WithContext(r.Context(), h.log).Error(fallback, zap.Error(err))
		httpapi.RespondError(w, http.StatusInternalServerError, "internal_error", fallback)
	}
}
