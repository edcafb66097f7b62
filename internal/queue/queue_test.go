package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchedulePostTaskPayload(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 30, 0, 123000, time.FixedZone("CEST", 2*3600))

	task, err := NewSchedulePostTask(42, at)
	require.NoError(t, err)
	assert.Equal(t, TaskTypeSchedulePost, task.Type())

	var payload SchedulePostPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, int64(42), payload.PostID)
	assert.True(t, at.Equal(payload.ScheduledAt))
	assert.Equal(t, time.UTC, payload.ScheduledAt.Location())
}

func TestEnqueuerSchedulesTaskInRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	client := asynq.NewClient(asynq.RedisClientOpt{Addr: mr.Addr()})
	defer client.Close()

	log, _ := test.NewNullLogger()
	e := NewEnqueuer(client, log)

	require.NoError(t, e.SchedulePost(context.Background(), 7, time.Now().Add(time.Hour)))

	scheduled, err := mr.ZMembers("asynq:{default}:scheduled")
	require.NoError(t, err)
	assert.Len(t, scheduled, 1)
}
