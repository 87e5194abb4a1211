// Package notify forwards resource events to the push side channel. The
// actual delivery lives outside this service; the dispatcher only enqueues.
package notify

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/comercio-cloud/comercio/internal/lifecycle"
	"github.com/comercio-cloud/comercio/jobs"
)

// Dispatcher enqueues resource events as background tasks. Enqueue failures
// are logged and swallowed: side channels never fail the primary operation.
type Dispatcher struct {
	client *asynq.Client
	logger *slog.Logger
}

// NewDispatcher constructs a Dispatcher. A nil client yields a no-op
// dispatcher, which keeps test wiring trivial.
func NewDispatcher(client *asynq.Client, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{client: client, logger: logger}
}

// ResourceEvent enqueues one event for delivery.
func (d *Dispatcher) ResourceEvent(ctx context.Context, event lifecycle.Event) error {
	if d == nil || d.client == nil {
		return nil
	}
	task, err := jobs.NewResourceEventTask(jobs.ResourceEventPayload{
		Module:     event.Module,
		Action:     string(event.Action),
		ResourceID: event.ResourceID,
		TenantID:   event.TenantID,
		ActorID:    event.ActorID,
	})
	if err != nil {
		return err
	}
	if _, err := d.client.EnqueueContext(ctx, task, asynq.Queue(jobs.QueueDefault)); err != nil {
		if d.logger != nil {
			d.logger.Warn("enqueue resource event", slog.String("module", event.Module), slog.Any("error", err))
		}
		return err
	}
	return nil
}

var _ lifecycle.EventSink = (*Dispatcher)(nil)
