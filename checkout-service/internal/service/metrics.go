package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_messages_enqueued_total",
		Help: "Checkout payloads accepted into the queue.",
	})
	receiveResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_receive_total",
		Help: "Receive calls by result.",
	}, []string{"result"})
	confirmResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_confirm_total",
		Help: "Confirm calls by result.",
	}, []string{"result"})
	reconciledMessages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_reconciled_total",
		Help: "Consumed messages completed by the reconciliation sweep.",
	})
	orderStatusChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_status_changes_total",
		Help: "Order status transitions by target status.",
	}, []string{"status"})
)
