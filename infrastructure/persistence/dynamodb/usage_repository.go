package dynamodb

import (
	"context"
	"fmt"
	"time"

	apperrors "algoitny-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// UsageRepository tracks per-user action counts for daily rate limiting.
// Usage items carry a 24h TTL so counts reset without a sweeper.
type UsageRepository struct {
	client    DynamoDBAPI
	tableName string
	logger    *zap.Logger
}

// NewUsageRepository creates a UsageRepository.
func NewUsageRepository(client DynamoDBAPI, tableName string, logger *zap.Logger) *UsageRepository {
	return &UsageRepository{client: client, tableName: tableName, logger: logger}
}

type usageItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	UserID     string `dynamodbav:"UserID"`
	Action     string `dynamodbav:"Action"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
	TTL        int64  `dynamodbav:"TTL"`
}

// Record writes one usage item for the action.
func (r *UsageRepository) Record(ctx context.Context, userID, action string) error {
	now := time.Now().UTC()
	item := usageItem{
		PK:         userPK(userID),
		SK:         usageSK(action, now),
		EntityType: "USAGE",
		UserID:     userID,
		Action:     action,
		CreatedAt:  now.Format(time.RFC3339Nano),
		TTL:        ttlAfter(now, usageRetention),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal usage record: %w", err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		return apperrors.NewDatabaseError("record usage", err)
	}
	return nil
}

// CountSince counts the user's actions at or after since. The sort key
// embeds the timestamp, so a key range plus Select COUNT answers this
// without reading item payloads.
func (r *UsageRepository) CountSince(ctx context.Context, userID, action string, since time.Time) (int, error) {
	lower := usageSKPrefix(action) + since.UTC().Format(time.RFC3339Nano)
	upper := usageSKPrefix(action) + "~" // '~' sorts after any RFC3339 timestamp

	keyCond := expression.Key("PK").Equal(expression.Value(userPK(userID))).
		And(expression.Key("SK").Between(expression.Value(lower), expression.Value(upper)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return 0, fmt.Errorf("failed to build usage expression: %w", err)
	}

	total := 0
	var startKey map[string]types.AttributeValue
	for {
		result, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			Select:                    types.SelectCount,
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return 0, apperrors.NewDatabaseError("count usage", err)
		}

		total += int(result.Count)
		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		startKey = result.LastEvaluatedKey
	}
	return total, nil
}
