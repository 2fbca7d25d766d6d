package service

import "errors"

var (
	ErrInvalidPayload       = errors.New("invalid checkout payload")
	ErrInvalidPaymentMethod = errors.New("payment method must be card or paypal")
	ErrMissingReceipt       = errors.New("receiptHandle is required")
	ErrMissingSession       = errors.New("sessionId is required")
	ErrNoPendingCheckout    = errors.New("no checkout data found for this session")
	ErrStaleReceipt         = errors.New("receipt handle is no longer valid")
	ErrOrderNotFound        = errors.New("order not found")
	IllegalTransitionError  = errors.New("illegal transition of order status")
)
