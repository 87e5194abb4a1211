package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeResourceEvent carries a resource mutation to the push side channel.
	TaskTypeResourceEvent = "notify:resource_event"
	// TaskTypeSessionPrune removes expired rows from the session registry.
	TaskTypeSessionPrune = "sessions:prune"
)

// ResourceEventPayload mirrors a lifecycle mutation for delivery.
type ResourceEventPayload struct {
	Module     string `json:"module"`
	Action     string `json:"action"`
	ResourceID int64  `json:"resource_id"`
	TenantID   *int64 `json:"tenant_id,omitempty"`
	ActorID    int64  `json:"actor_id,omitempty"`
}

// NewResourceEventTask constructs an Asynq task.
func NewResourceEventTask(payload ResourceEventPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeResourceEvent, data), nil
}

// NewSessionPruneTask constructs the periodic session cleanup task.
func NewSessionPruneTask() *asynq.Task {
	return asynq.NewTask(TaskTypeSessionPrune, nil)
}

// HandleResourceEventTask processes TaskTypeResourceEvent tasks. Delivery is
// a structured log line today; a websocket fanout can hang off the same
// handler later without touching the producers.
func HandleResourceEventTask(logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ResourceEventPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		logger.Info("resource event",
			slog.String("module", payload.Module),
			slog.String("action", payload.Action),
			slog.Int64("resource_id", payload.ResourceID),
		)
		return nil
	}
}
