package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

const TaskTypeSchedulePost = "schedule:post"

type SchedulePostPayload struct {
	PostID      int64     `json:"post_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

// Enqueuer puts publish tasks on the asynq queue.
type Enqueuer struct {
	client *asynq.Client
	log    logrus.FieldLogger
}

func NewEnqueuer(client *asynq.Client, log logrus.FieldLogger) *Enqueuer {
	return &Enqueuer{client: client, log: log.WithField("component", "enqueuer")}
}

// NewSchedulePostTask builds the task; the payload carries the instant so
// the worker can tell a rescheduled post from the one it was queued for.
func NewSchedulePostTask(postID int64, at time.Time) (*asynq.Task, error) {
	payload, err := json.Marshal(SchedulePostPayload{PostID: postID, ScheduledAt: at.UTC()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSchedulePost, payload), nil
}

func (e *Enqueuer) SchedulePost(ctx context.Context, postID int64, at time.Time) error {
	task, err := NewSchedulePostTask(postID, at)
	if err != nil {
		return fmt.Errorf("encoding task: %w", err)
	}

	info, err := e.client.EnqueueContext(ctx, task, asynq.ProcessAt(at), asynq.MaxRetry(3))
	if err != nil {
		return fmt.Errorf("enqueueing task: %w", err)
	}

	e.log.WithFields(logrus.Fields{"post_id": postID, "task_id": info.ID, "at": at}).Info("Task scheduled")
	return nil
}
