package usecase

import (
	"context"
	"time"

	"dealwatch-service/internal/domain/repository"
	"dealwatch-service/pkg/logger"
	"dealwatch-service/pkg/metrics"

	"golang.org/x/time/rate"
)

// Notifier accepts outbound chat messages without blocking
type Notifier interface {
	Enqueue(chatID, text string) bool
}

type outboundMessage struct {
	chatID string
	text   string
}

// Dispatcher serializes outbound messages to the chat transport with a
// minimum spacing between consecutive sends. Failed sends are dropped.
type Dispatcher struct {
	transport   repository.ChatRepository
	queue       chan outboundMessage
	limiter     *rate.Limiter
	sendTimeout time.Duration
	logger      logger.Logger
	metrics     *metrics.Metrics
}

// NewDispatcher creates a dispatcher buffering up to capacity messages
func NewDispatcher(transport repository.ChatRepository, spacing time.Duration, capacity int, logger logger.Logger, metrics *metrics.Metrics) *Dispatcher {
	if capacity < 1 {
		capacity = 1
	}
	limit := rate.Inf
	if spacing > 0 {
		limit = rate.Every(spacing)
	}
	return &Dispatcher{
		transport:   transport,
		queue:       make(chan outboundMessage, capacity),
		limiter:     rate.NewLimiter(limit, 1),
		sendTimeout: 15 * time.Second,
		logger:      logger,
		metrics:     metrics,
	}
}

// Enqueue queues a message and reports whether it was accepted.
// A full queue drops the message instead of blocking.
func (d *Dispatcher) Enqueue(chatID, text string) bool {
	select {
	case d.queue <- outboundMessage{chatID: chatID, text: text}:
		return true
	default:
		d.metrics.MessagesDropped.WithLabelValues("queue_full").Inc()
		d.logger.Warn("Dispatch queue full, message dropped", "chatID", chatID)
		return false
	}
}

// Pending returns the number of queued messages
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

// Run drains the queue until ctx is done
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("Dispatcher started")
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Dispatcher stopped", "pending", len(d.queue))
			return nil
		case msg := <-d.queue:
			if err := d.limiter.Wait(ctx); err != nil {
				return nil
			}
			d.send(ctx, msg)
		}
	}
}

func (d *Dispatcher) send(ctx context.Context, msg outboundMessage) {
	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	if err := d.transport.SendMessage(sendCtx, msg.chatID, msg.text); err != nil {
		d.metrics.MessagesDropped.WithLabelValues("send_failed").Inc()
		d.logger.Error("Failed to send message, dropped", "chatID", msg.chatID, "error", err)
		return
	}
	d.metrics.MessagesSent.Inc()
}
