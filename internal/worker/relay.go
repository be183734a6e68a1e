package worker

import (
	"context"
	"fmt"
	"time"

	"offertory/internal/core"
	"offertory/internal/log"
	"offertory/internal/notify"
)

const DefaultBatchSize = 50

// NotificationLog is the durable side of the relay.
type NotificationLog interface {
	RecordNotification(ctx context.Context, n core.Notification) (int64, error)
	UnpublishedNotifications(ctx context.Context, limit int) ([]core.Notification, error)
	MarkPublished(ctx context.Context, id int64) error
}

type Publisher interface {
	PublishNotification(ctx context.Context, n core.Notification) error
}

// Source is a stream of server notifications, normally a *notify.Client.
type Source interface {
	Messages() <-chan notify.Message
	State() notify.State
}

// Relay records every notification and forwards it to the broker. Records
// that could not be published are retried by ProcessPending.
type Relay struct {
	log       NotificationLog
	pub       Publisher
	batchSize int
	logger    *log.Logger
	now       func() time.Time
}

// NewRelay creates a relay. pub may be nil, in which case notifications are
// only recorded.
func NewRelay(nl NotificationLog, pub Publisher, batchSize int, logger *log.Logger) *Relay {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Relay{
		log:       nl,
		pub:       pub,
		batchSize: batchSize,
		logger:    logger.WithComponent(log.ComponentRelay),
		now:       time.Now,
	}
}

// Handle records m for userID and publishes it. A publish failure is logged
// and left for ProcessPending; only a recording failure is returned.
func (r *Relay) Handle(ctx context.Context, userID string, m notify.Message) error {
	n := core.Notification{
		UserID:     userID,
		Type:       string(m.Type),
		Message:    m.Message,
		Data:       m.Data,
		SentAt:     m.Timestamp,
		ReceivedAt: r.now().UTC(),
	}
	id, err := r.log.RecordNotification(ctx, n)
	if err != nil {
		return fmt.Errorf("record notification: %w", err)
	}
	n.ID = id

	if !m.Type.Known() {
		r.logger.DebugContext(ctx, "Recorded notification of unknown type", log.FieldMessageType, n.Type)
	}
	r.publish(ctx, n)
	return nil
}

func (r *Relay) publish(ctx context.Context, n core.Notification) bool {
	if r.pub == nil {
		return false
	}
	if err := r.pub.PublishNotification(ctx, n); err != nil {
		r.logger.WarnContext(ctx, "Publish failed, will retry",
			"id", n.ID,
			log.FieldError, err,
			log.FieldOperation, log.OpPublish)
		return false
	}
	if err := r.log.MarkPublished(ctx, n.ID); err != nil {
		r.logger.ErrorContext(ctx, "Failed to mark notification published", "id", n.ID, log.FieldError, err)
		return false
	}
	return true
}

// ProcessPending republishes recorded notifications the broker never
// accepted and returns how many went through.
func (r *Relay) ProcessPending(ctx context.Context) (int, error) {
	if r.pub == nil {
		return 0, nil
	}
	pending, err := r.log.UnpublishedNotifications(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("get pending notifications: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	r.logger.InfoContext(ctx, "Processing pending notifications", "count", len(pending))
	sent := 0
	for _, n := range pending {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		if !r.publish(ctx, n) {
			// The broker is likely down; the rest would fail too.
			break
		}
		sent++
	}
	return sent, nil
}

// Run relays messages from src until ctx is done or the stream closes, and
// retries pending records every interval.
func (r *Relay) Run(ctx context.Context, src Source, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	if _, err := r.ProcessPending(ctx); err != nil {
		r.logger.WarnContext(ctx, "Startup pending check failed", log.FieldError, err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	msgs := src.Messages()

	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := r.Handle(ctx, src.State().UserID, m); err != nil {
				r.logger.ErrorContext(ctx, "Failed to handle notification",
					log.FieldError, err,
					log.FieldMessageType, string(m.Type),
					log.FieldOperation, log.OpRecord)
			}
		case <-ticker.C:
			if _, err := r.ProcessPending(ctx); err != nil {
				r.logger.WarnContext(ctx, "Pending notification retry failed", log.FieldError, err)
			}
		}
	}
}
