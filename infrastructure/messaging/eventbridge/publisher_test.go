package eventbridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"algoitny-backend/domain/entities"
	"algoitny-backend/domain/events"

	"github.com/aws/aws-sdk-go-v2/aws"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeEventBridge struct {
	inputs []*awseventbridge.PutEventsInput
	out    *awseventbridge.PutEventsOutput
	err    error
}

func (f *fakeEventBridge) PutEvents(_ context.Context, in *awseventbridge.PutEventsInput, _ ...func(*awseventbridge.Options)) (*awseventbridge.PutEventsOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	if f.out != nil {
		return f.out, nil
	}
	return &awseventbridge.PutEventsOutput{}, nil
}

func pendingJob(t *testing.T) *entities.Job {
	t.Helper()
	job, err := entities.NewProblemExtractionJob("user-1", "https://www.acmicpc.net/problem/1000")
	require.NoError(t, err)
	return job
}

func TestPublisher_PublishJobEvent(t *testing.T) {
	client := &fakeEventBridge{}
	publisher := newPublisher(client, "algoitny-events", zap.NewNop())
	job := pendingJob(t)

	err := publisher.PublishJobEvent(context.Background(), events.JobCreated, job)
	require.NoError(t, err)

	require.Len(t, client.inputs, 1)
	require.Len(t, client.inputs[0].Entries, 1)
	entry := client.inputs[0].Entries[0]
	assert.Equal(t, "algoitny-events", aws.ToString(entry.EventBusName))
	assert.Equal(t, "algoitny.backend", aws.ToString(entry.Source))
	assert.Equal(t, events.JobCreated, aws.ToString(entry.DetailType))

	var detail jobEventDetail
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(entry.Detail)), &detail))
	assert.Equal(t, job.ID, detail.JobID)
	assert.Equal(t, string(entities.JobStatusPending), detail.Status)
	assert.Equal(t, "user-1", detail.UserID)
}

func TestPublisher_RejectedEntries(t *testing.T) {
	client := &fakeEventBridge{out: &awseventbridge.PutEventsOutput{FailedEntryCount: 1}}
	publisher := newPublisher(client, "algoitny-events", zap.NewNop())

	err := publisher.PublishJobEvent(context.Background(), events.JobCreated, pendingJob(t))
	assert.Error(t, err)
}

func TestPublisher_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	client := &fakeEventBridge{err: errors.New("throttled")}
	publisher := newPublisher(client, "algoitny-events", zap.NewNop())
	job := pendingJob(t)

	for i := 0; i < 5; i++ {
		assert.Error(t, publisher.PublishJobEvent(context.Background(), events.JobCreated, job))
	}
	calls := len(client.inputs)
	assert.Equal(t, 5, calls)

	// Breaker is open now; the client is no longer called.
	assert.Error(t, publisher.PublishJobEvent(context.Background(), events.JobCreated, job))
	assert.Equal(t, calls, len(client.inputs))
}
