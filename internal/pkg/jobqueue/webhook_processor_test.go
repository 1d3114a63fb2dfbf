package jobqueue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_processWebhookDeliveryJob_InvalidPayload(t *testing.T) {
	queue := NewQueue(1)

	t.Run("unparseable payload", func(t *testing.T) {
		job := &Job{
			ID:   "bad-payload",
			Type: JobTypeWebhookDelivery,
			Payload: map[string]interface{}{
				"commission_id": make(chan int),
			},
		}

		err := queue.processWebhookDeliveryJob(context.Background(), job)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid webhook delivery payload")
	})

	t.Run("missing commission id", func(t *testing.T) {
		job := &Job{
			ID:      "no-commission",
			Type:    JobTypeWebhookDelivery,
			Payload: WebhookDeliveryJobPayload{Event: "commission_created"}.ToMap(),
		}

		err := queue.processWebhookDeliveryJob(context.Background(), job)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "commission id")
	})
}

func TestQueue_EnqueueWebhookDelivery(t *testing.T) {
	host, port, password := resolveTestRedis(t)
	configureTestCache(host, port, password)
	resetJobQueueRedis(t)
	t.Cleanup(func() { resetJobQueueRedis(t) })

	queue := NewQueue(1)
	ctx := context.Background()

	job, err := queue.EnqueueWebhookDelivery(42, "commission_approved")
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, JobTypeWebhookDelivery, job.Type)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, DefaultMaxRetries, job.MaxRetries)

	// Job data must be readable back from Redis
	stored, err := queue.GetJob(ctx, job.ID)
	require.NoError(t, err)
	payload, err := WebhookDeliveryJobPayloadFromMap(stored.Payload)
	require.NoError(t, err)
	assert.Equal(t, uint(42), payload.CommissionID)
	assert.Equal(t, "commission_approved", payload.Event)

	size, err := queue.GetQueueSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), size)
}

func TestQueue_DequeueMovesJobToProcessing(t *testing.T) {
	host, port, password := resolveTestRedis(t)
	configureTestCache(host, port, password)
	resetJobQueueRedis(t)
	t.Cleanup(func() { resetJobQueueRedis(t) })

	queue := NewQueue(1)
	ctx := context.Background()

	enqueued, err := queue.EnqueueWebhookDelivery(7, "commission_created")
	require.NoError(t, err)

	dequeued, err := queue.dequeueJob(ctx)
	require.NoError(t, err)
	require.NotNil(t, dequeued)
	assert.Equal(t, enqueued.ID, dequeued.ID)

	pending, err := queue.GetQueueSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending)

	processing, err := queue.GetProcessingSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), processing)
}

func TestQueue_JobStatsTrackEnqueues(t *testing.T) {
	host, port, password := resolveTestRedis(t)
	configureTestCache(host, port, password)
	resetJobQueueRedis(t)
	t.Cleanup(func() { resetJobQueueRedis(t) })

	queue := NewQueue(1)
	ctx := context.Background()

	_, err := queue.EnqueueWebhookDelivery(1, "commission_created")
	require.NoError(t, err)
	_, err = queue.EnqueueWebhookDelivery(2, "commission_paid")
	require.NoError(t, err)

	stats, err := queue.GetJobStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats[JobStatusPending])
}

func TestQueue_UpdateJobPersistsChanges(t *testing.T) {
	host, port, password := resolveTestRedis(t)
	configureTestCache(host, port, password)
	resetJobQueueRedis(t)
	t.Cleanup(func() { resetJobQueueRedis(t) })

	queue := NewQueue(1)
	ctx := context.Background()

	job, err := queue.EnqueueWebhookDelivery(9, "commission_reversed")
	require.NoError(t, err)

	job.MarkAsFailed("endpoint answered 503")
	queue.updateJob(ctx, job)

	stored, err := queue.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusFailed, stored.Status)
	assert.Equal(t, "endpoint answered 503", stored.ErrorMsg)
	assert.Equal(t, 1, stored.RetryCount)
	assert.True(t, stored.IsRetryable())
}
