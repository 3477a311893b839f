package dynamodb

import (
	"context"
	"fmt"
	"time"

	"algoitny-backend/domain/entities"
	apperrors "algoitny-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// ProgressRepository stores job progress entries in the job's partition.
// Entries expire through DynamoDB TTL after the progress retention window.
type ProgressRepository struct {
	client    DynamoDBAPI
	tableName string
	logger    *zap.Logger
}

// NewProgressRepository creates a ProgressRepository.
func NewProgressRepository(client DynamoDBAPI, tableName string, logger *zap.Logger) *ProgressRepository {
	return &ProgressRepository{client: client, tableName: tableName, logger: logger}
}

type progressItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	JobID      string `dynamodbav:"JobID"`
	Seq        int    `dynamodbav:"Seq"`
	Step       string `dynamodbav:"Step"`
	Message    string `dynamodbav:"Message"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
	TTL        int64  `dynamodbav:"TTL"`
}

// Append records a progress entry for the job.
func (r *ProgressRepository) Append(ctx context.Context, kind entities.JobKind, entry entities.ProgressEntry) error {
	item := progressItem{
		PK:         jobPK(kind, entry.JobID),
		SK:         progressSK(entry.CreatedAt, entry.Seq),
		EntityType: "PROGRESS",
		JobID:      entry.JobID,
		Seq:        entry.Seq,
		Step:       entry.Step,
		Message:    entry.Message,
		CreatedAt:  entry.CreatedAt.UTC().Format(time.RFC3339Nano),
		TTL:        ttlAfter(entry.CreatedAt, progressRetention),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal progress entry: %w", err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		return apperrors.NewDatabaseError("append progress", err)
	}
	return nil
}

// List returns the job's progress entries in chronological order.
func (r *ProgressRepository) List(ctx context.Context, kind entities.JobKind, jobID string) ([]entities.ProgressEntry, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(jobPK(kind, jobID))).
		And(expression.Key("SK").BeginsWith(progressSKPrefix))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build progress expression: %w", err)
	}

	var entries []entities.ProgressEntry
	var startKey map[string]types.AttributeValue
	for {
		result, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, apperrors.NewDatabaseError("list progress", err)
		}

		for _, raw := range result.Items {
			var item progressItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				r.logger.Warn("Failed to unmarshal progress item", zap.Error(err))
				continue
			}
			createdAt, _ := time.Parse(time.RFC3339Nano, item.CreatedAt)
			entries = append(entries, entities.ProgressEntry{
				JobID:     item.JobID,
				Seq:       item.Seq,
				Step:      item.Step,
				Message:   item.Message,
				CreatedAt: createdAt,
			})
		}

		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		startKey = result.LastEvaluatedKey
	}
	return entries, nil
}
