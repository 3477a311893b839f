package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "algoitny-backend/pkg/errors"
	"algoitny-backend/pkg/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// JobLock deduplicates extraction requests with DynamoDB conditional
// writes. Acquiring the lock for a problem URL while an extraction is in
// flight fails, so two users requesting the same URL produce one job.
type JobLock struct {
	client    DynamoDBAPI
	tableName string
	logger    *zap.Logger
}

// NewJobLock creates a JobLock.
func NewJobLock(client DynamoDBAPI, tableName string, logger *zap.Logger) *JobLock {
	return &JobLock{client: client, tableName: tableName, logger: logger}
}

// Acquire takes the lock for resource, held by ownerID for at most
// duration. Expired locks are stolen. Returns a conflict error when the
// lock is live and held by someone else.
func (l *JobLock) Acquire(ctx context.Context, resource, ownerID string, duration time.Duration) error {
	now := time.Now().UTC()
	expiresAt := now.Add(duration)

	item := map[string]types.AttributeValue{
		"PK":         &types.AttributeValueMemberS{Value: lockPK(resource)},
		"SK":         &types.AttributeValueMemberS{Value: skLock},
		"EntityType": &types.AttributeValueMemberS{Value: "LOCK"},
		"Owner":      &types.AttributeValueMemberS{Value: ownerID},
		"AcquiredAt": &types.AttributeValueMemberS{Value: utils.FormatRFC3339(now)},
		"ExpiresAt":  &types.AttributeValueMemberS{Value: utils.FormatRFC3339(expiresAt)},
		"TTL":        &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expiresAt.Unix())},
	}

	if _, err := l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(l.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK) OR ExpiresAt < :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberS{Value: utils.FormatRFC3339(now)},
		},
	}); err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			l.logger.Debug("Lock already held",
				zap.String("resource", resource),
				zap.String("owner", ownerID),
			)
			return apperrors.NewConflictError(fmt.Sprintf("resource %s is already being processed", resource))
		}
		return apperrors.NewDatabaseError("acquire lock", err)
	}

	l.logger.Debug("Lock acquired",
		zap.String("resource", resource),
		zap.String("owner", ownerID),
		zap.Duration("duration", duration),
	)
	return nil
}

// Release drops the lock if ownerID still holds it. Releasing a lock that
// was stolen or already expired is not an error.
func (l *JobLock) Release(ctx context.Context, resource, ownerID string) error {
	if _, err := l.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(l.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: lockPK(resource)},
			"SK": &types.AttributeValueMemberS{Value: skLock},
		},
		ConditionExpression: aws.String("#owner = :owner"),
		ExpressionAttributeNames: map[string]string{
			"#owner": "Owner",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: ownerID},
		},
	}); err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			l.logger.Warn("Lock already released or reassigned",
				zap.String("resource", resource),
				zap.String("owner", ownerID),
			)
			return nil
		}
		return apperrors.NewDatabaseError("release lock", err)
	}
	return nil
}
