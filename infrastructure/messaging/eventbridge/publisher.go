// Package eventbridge publishes job lifecycle events to an AWS EventBridge
// bus so downstream consumers (notifications, analytics) can react without
// coupling to the API or workers.
package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"algoitny-backend/domain/entities"
	"algoitny-backend/pkg/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const eventSource = "algoitny.backend"

// eventBridgeAPI is the subset of the EventBridge client the publisher
// uses. *eventbridge.Client satisfies it.
type eventBridgeAPI interface {
	PutEvents(ctx context.Context, in *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// Publisher sends job events to EventBridge behind a circuit breaker. Event
// delivery is best effort; job state in DynamoDB remains the source of
// truth, so an open breaker degrades notifications, not correctness.
type Publisher struct {
	client       eventBridgeAPI
	eventBusName string
	breaker      *gobreaker.CircuitBreaker
	logger       *zap.Logger
}

// NewPublisher creates a Publisher for the named event bus.
func NewPublisher(client *eventbridge.Client, eventBusName string, logger *zap.Logger) *Publisher {
	return newPublisher(client, eventBusName, logger)
}

func newPublisher(client eventBridgeAPI, eventBusName string, logger *zap.Logger) *Publisher {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "eventbridge",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Publisher{
		client:       client,
		eventBusName: eventBusName,
		breaker:      breaker,
		logger:       logger,
	}
}

// jobEventDetail is the JSON payload carried in the event Detail field.
type jobEventDetail struct {
	JobID        string `json:"job_id"`
	Kind         string `json:"kind"`
	UserID       string `json:"user_id"`
	Status       string `json:"status"`
	Platform     string `json:"platform,omitempty"`
	ProblemID    string `json:"problem_id,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	Attempts     int    `json:"attempts"`
	OccurredAt   string `json:"occurred_at"`
}

// PublishJobEvent emits one event describing the job's current state.
func (p *Publisher) PublishJobEvent(ctx context.Context, eventType string, job *entities.Job) error {
	detail := jobEventDetail{
		JobID:        job.ID,
		Kind:         string(job.Kind),
		UserID:       job.UserID,
		Status:       string(job.Status),
		ErrorMessage: job.ErrorMessage,
		Attempts:     job.Attempts,
		OccurredAt:   utils.NowRFC3339(),
	}
	if !job.ProblemKey.IsZero() {
		detail.Platform = job.ProblemKey.Platform()
		detail.ProblemID = job.ProblemKey.ProblemID()
	}

	payload, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("failed to marshal job event: %w", err)
	}

	_, err = p.breaker.Execute(func() (interface{}, error) {
		result, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
			Entries: []types.PutEventsRequestEntry{
				{
					EventBusName: aws.String(p.eventBusName),
					Source:       aws.String(eventSource),
					DetailType:   aws.String(eventType),
					Detail:       aws.String(string(payload)),
				},
			},
		})
		if err != nil {
			return nil, err
		}
		if result.FailedEntryCount > 0 {
			for _, entry := range result.Entries {
				if entry.ErrorCode != nil {
					p.logger.Error("Event entry rejected",
						zap.String("eventType", eventType),
						zap.String("errorCode", aws.ToString(entry.ErrorCode)),
						zap.String("errorMessage", aws.ToString(entry.ErrorMessage)),
					)
				}
			}
			return nil, fmt.Errorf("%d event entries rejected", result.FailedEntryCount)
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to publish job event: %w", err)
	}

	p.logger.Debug("Job event published",
		zap.String("eventType", eventType),
		zap.String("jobID", job.ID),
	)
	return nil
}
