package dynamodb

import (
	"context"
	"fmt"

	"algoitny-backend/domain/entities"
	"algoitny-backend/pkg/common"
	apperrors "algoitny-backend/pkg/errors"
	"algoitny-backend/pkg/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
)

// HistoryRepository stores per-user search history under the user's
// partition, expiring through TTL after the history retention window.
type HistoryRepository struct {
	client    DynamoDBAPI
	tableName string
	logger    *zap.Logger
}

// NewHistoryRepository creates a HistoryRepository.
func NewHistoryRepository(client DynamoDBAPI, tableName string, logger *zap.Logger) *HistoryRepository {
	return &HistoryRepository{client: client, tableName: tableName, logger: logger}
}

type historyItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	EntityType  string `dynamodbav:"EntityType"`
	RecordID    string `dynamodbav:"RecordID"`
	UserID      string `dynamodbav:"UserID"`
	Query       string `dynamodbav:"Query"`
	Platform    string `dynamodbav:"Platform,omitempty"`
	ProblemID   string `dynamodbav:"ProblemID,omitempty"`
	ResultCount int    `dynamodbav:"ResultCount"`
	CreatedAt   string `dynamodbav:"CreatedAt"`
	TTL         int64  `dynamodbav:"TTL"`
}

// Append records a search in the user's history.
func (r *HistoryRepository) Append(ctx context.Context, record entities.SearchRecord) error {
	item := historyItem{
		PK:          userPK(record.UserID),
		SK:          historySK(record.CreatedAt, record.ID),
		EntityType:  "HISTORY",
		RecordID:    record.ID,
		UserID:      record.UserID,
		Query:       record.Query,
		Platform:    record.Platform,
		ProblemID:   record.ProblemID,
		ResultCount: record.ResultCount,
		CreatedAt:   utils.FormatRFC3339(record.CreatedAt),
		TTL:         ttlAfter(record.CreatedAt, historyRetention),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal history record: %w", err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		return apperrors.NewDatabaseError("append history", err)
	}
	return nil
}

// ListByUser returns the user's search history, newest first.
func (r *HistoryRepository) ListByUser(ctx context.Context, userID string, limit int, cursor string) ([]entities.SearchRecord, string, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(userPK(userID))).
		And(expression.Key("SK").BeginsWith(historySKPrefix))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, "", fmt.Errorf("failed to build history expression: %w", err)
	}

	startKey, err := decodeStartKey(cursor)
	if err != nil {
		return nil, "", apperrors.NewValidationError(err.Error())
	}

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(int32(common.ClampLimit(limit, 20, 100))),
		ExclusiveStartKey:         startKey,
	})
	if err != nil {
		return nil, "", apperrors.NewDatabaseError("list history", err)
	}

	records := make([]entities.SearchRecord, 0, len(result.Items))
	for _, raw := range result.Items {
		var item historyItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			r.logger.Warn("Failed to unmarshal history item", zap.Error(err))
			continue
		}
		createdAt, _ := utils.ParseRFC3339(item.CreatedAt)
		records = append(records, entities.SearchRecord{
			ID:          item.RecordID,
			UserID:      item.UserID,
			Query:       item.Query,
			Platform:    item.Platform,
			ProblemID:   item.ProblemID,
			ResultCount: item.ResultCount,
			CreatedAt:   createdAt,
		})
	}

	next, err := encodeNextKey(result.LastEvaluatedKey)
	if err != nil {
		return nil, "", err
	}
	return records, next, nil
}
