package publisher

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
	d "github.com/stylehub/storefront/checkout-service/domain"
	r "github.com/stylehub/storefront/checkout-service/internal/repository"
	"go.uber.org/zap"
)

const DefaultTopic = "order-events"

var (
	queueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "checkout_queue_messages",
		Help: "Checkout messages by status.",
	}, []string{"status"})
	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_published_total",
		Help: "Outbox events published to Kafka by event type.",
	}, []string{"event_type"})
)

type OutboxRepository interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*r.OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
	CountMessagesByStatus(ctx context.Context) (map[d.MessageStatus]int, error)
}

// Reconciler completes checkouts stuck between consume and persist.
type Reconciler interface {
	Reconcile(ctx context.Context, grace time.Duration, limit int) (int, error)
}

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Config struct {
	Brokers        []string
	Topic          string
	EventTick      time.Duration
	RecoveryTick   time.Duration
	ReconcileGrace time.Duration
	BatchSize      int
}

func DefaultConfig(brokers ...string) Config {
	return Config{
		Brokers:        brokers,
		Topic:          DefaultTopic,
		EventTick:      time.Second,
		RecoveryTick:   5 * time.Second,
		ReconcileGrace: 30 * time.Second,
		BatchSize:      100,
	}
}

type OutboxPoller struct {
	cfg        Config
	repo       OutboxRepository
	reconciler Reconciler
	writer     MessageWriter
	log        *zap.Logger
}

func NewOutboxPoller(repo OutboxRepository, reconciler Reconciler, cfg Config, log *zap.Logger) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return newOutboxPoller(repo, reconciler, w, cfg, log)
}

func newOutboxPoller(repo OutboxRepository, reconciler Reconciler, w MessageWriter, cfg Config, log *zap.Logger) *OutboxPoller {
	if log == nil {
		log = zap.NewNop()
	}
	return &OutboxPoller{cfg: cfg, repo: repo, reconciler: reconciler, writer: w, log: log}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.cfg.EventTick)
	recoveryTicker := time.NewTicker(p.cfg.RecoveryTick)
	defer eventTicker.Stop()
	defer recoveryTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-recoveryTicker.C:
			p.recoverStuckCheckouts(ctx)
			p.reportQueueDepth(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) Close() error {
	return p.writer.Close()
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.repo.GetUnprocessedEvents(ctx, p.cfg.BatchSize)
	if err != nil {
		p.log.Error("failed to fetch outbox events", zap.Error(err))
		return
	}

	for _, event := range events {
		if err := p.publishToKafka(ctx, event); err != nil {
			p.log.Error("failed to publish event", zap.Int64("event_id", event.ID), zap.Error(err))
			continue
		}

		if err := p.repo.MarkEventAsProcessed(ctx, event.ID); err != nil {
			p.log.Error("failed to mark event as processed", zap.Int64("event_id", event.ID), zap.Error(err))
			continue
		}
		eventsPublished.WithLabelValues(event.EventType).Inc()
	}
}

func (p *OutboxPoller) recoverStuckCheckouts(ctx context.Context) {
	n, err := p.reconciler.Reconcile(ctx, p.cfg.ReconcileGrace, p.cfg.BatchSize)
	if err != nil {
		p.log.Error("failed to reconcile consumed checkouts", zap.Error(err))
		return
	}
	if n > 0 {
		p.log.Info("reconciled consumed checkouts", zap.Int("count", n))
	}
}

func (p *OutboxPoller) reportQueueDepth(ctx context.Context) {
	counts, err := p.repo.CountMessagesByStatus(ctx)
	if err != nil {
		p.log.Warn("failed to count checkout messages", zap.Error(err))
		return
	}
	for _, status := range []d.MessageStatus{
		d.MessageStatusQueued,
		d.MessageStatusInFlight,
		d.MessageStatusConsumed,
		d.MessageStatusCompleted,
	} {
		queueDepth.WithLabelValues(status.String()).Set(float64(counts[status]))
	}
}

func (p *OutboxPoller) publishToKafka(ctx context.Context, event *r.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID), // order id keeps per-order ordering
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}
