package channel

import (
	"context"
	"time"

	"github.com/Jovan-creator/armaflex-sub001/internal/domain"
	"github.com/Jovan-creator/armaflex-sub001/internal/modules/alert"
)

const workerBatchSize = 100

// Worker drains the sync outbox and publishes events to the per-channel
// queues. Failed deliveries back off exponentially; an event that exhausts
// its retry budget is parked as failed and escalated.
type Worker struct {
	outbox     SyncOutbox
	channels   ChannelRepository
	publisher  Publisher
	alerts     alert.Sender
	interval   time.Duration
	backoff    time.Duration
	maxRetries int
	loggerf    func(format string, args ...interface{})
}

func NewWorker(
	outbox SyncOutbox,
	channels ChannelRepository,
	publisher Publisher,
	alerts alert.Sender,
	interval, backoff time.Duration,
	maxRetries int,
	loggerf func(format string, args ...interface{}),
) *Worker {
	return &Worker{
		outbox:     outbox,
		channels:   channels,
		publisher:  publisher,
		alerts:     alerts,
		interval:   interval,
		backoff:    backoff,
		maxRetries: maxRetries,
		loggerf:    loggerf,
	}
}

// Run blocks until ctx is done, draining the outbox every tick.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Drain(ctx); err != nil {
				w.logf("sync worker: drain failed: %v", err)
			}
		}
	}
}

// Drain processes one batch of due events. Exported so the sweeper binary
// and tests can run a single pass.
func (w *Worker) Drain(ctx context.Context) error {
	now := time.Now().UTC()
	events, err := w.outbox.Due(ctx, now, workerBatchSize)
	if err != nil {
		return err
	}

	for i := range events {
		w.deliver(ctx, &events[i])
	}
	return nil
}

func (w *Worker) deliver(ctx context.Context, evt *domain.SyncEvent) {
	ch, err := w.channels.GetChannelByID(ctx, evt.ChannelID)
	if err != nil {
		w.fail(ctx, evt, "channel lookup failed: "+err.Error())
		return
	}
	if !ch.Active {
		w.fail(ctx, evt, "channel disabled")
		return
	}

	payload := SyncPayload{
		EventID:     evt.ID,
		ResourceID:  evt.ResourceID,
		Operation:   string(evt.Operation),
		OperationID: evt.OperationID,
		StartAt:     evt.StartAt,
		EndAt:       evt.EndAt,
	}

	if err := w.publisher.Publish(ctx, ch.Code, payload); err != nil {
		w.retry(ctx, evt, err.Error())
		return
	}

	if err := w.outbox.MarkSent(ctx, evt.ID); err != nil {
		w.logf("sync worker: mark sent %d failed: %v", evt.ID, err)
		return
	}
	if err := w.channels.TouchLastSynced(ctx, evt.ResourceID, evt.ChannelID, time.Now().UTC()); err != nil {
		w.logf("sync worker: touch last synced failed: %v", err)
	}
}

func (w *Worker) retry(ctx context.Context, evt *domain.SyncEvent, lastErr string) {
	attempts := evt.Attempts + 1
	if attempts >= w.maxRetries {
		w.fail(ctx, evt, lastErr)
		return
	}

	// backoff * 2^attempts, so 2s, 4s, 8s, ...
	delay := w.backoff << uint(attempts-1)
	next := time.Now().UTC().Add(delay)
	if err := w.outbox.MarkRetry(ctx, evt.ID, attempts, next, lastErr); err != nil {
		w.logf("sync worker: mark retry %d failed: %v", evt.ID, err)
	}
	w.logf("sync worker: event %d attempt %d failed, next try at %s: %s", evt.ID, attempts, next.Format(time.RFC3339), lastErr)
}

func (w *Worker) fail(ctx context.Context, evt *domain.SyncEvent, lastErr string) {
	if err := w.outbox.MarkFailed(ctx, evt.ID, lastErr); err != nil {
		w.logf("sync worker: mark failed %d failed: %v", evt.ID, err)
		return
	}
	if w.alerts != nil {
		w.alerts.SyncDeliveryFailed(alert.SyncFailedEvent{
			EventID:   evt.ID,
			ChannelID: evt.ChannelID,
			Operation: string(evt.Operation),
			LastError: lastErr,
		})
	}
}

func (w *Worker) logf(format string, args ...interface{}) {
	if w.loggerf != nil {
		w.loggerf(format, args...)
	}
}
