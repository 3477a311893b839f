package dynamodb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"algoitny-backend/application/ports"
	"algoitny-backend/domain/entities"
	"algoitny-backend/domain/valueobjects"
	"algoitny-backend/pkg/common"
	apperrors "algoitny-backend/pkg/errors"
	"algoitny-backend/pkg/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// ProblemRepository implements ports.ProblemRepository on the single table.
type ProblemRepository struct {
	client        DynamoDBAPI
	tableName     string
	gsi1IndexName string
	logger        *zap.Logger
}

// NewProblemRepository creates a ProblemRepository.
func NewProblemRepository(client DynamoDBAPI, tableName, gsi1IndexName string, logger *zap.Logger) *ProblemRepository {
	return &ProblemRepository{
		client:        client,
		tableName:     tableName,
		gsi1IndexName: gsi1IndexName,
		logger:        logger,
	}
}

// problemItem is the DynamoDB item shape for a problem's metadata row.
type problemItem struct {
	PK            string   `dynamodbav:"PK"`
	SK            string   `dynamodbav:"SK"`
	GSI1PK        string   `dynamodbav:"GSI1PK"`
	GSI1SK        string   `dynamodbav:"GSI1SK"`
	EntityType    string   `dynamodbav:"EntityType"`
	Platform      string   `dynamodbav:"Platform"`
	ProblemID     string   `dynamodbav:"ProblemID"`
	Title         string   `dynamodbav:"Title"`
	TitleLower    string   `dynamodbav:"TitleLower"`
	URL           string   `dynamodbav:"URL,omitempty"`
	Tags          []string `dynamodbav:"Tags,omitempty"`
	Language      string   `dynamodbav:"Language,omitempty"`
	Constraints   string   `dynamodbav:"Constraints,omitempty"`
	SolutionCode  string   `dynamodbav:"SolutionCode,omitempty"`
	NeedsReview   bool     `dynamodbav:"NeedsReview"`
	TestCaseCount int      `dynamodbav:"TestCaseCount"`
	CompletedAt   string   `dynamodbav:"CompletedAt,omitempty"`
	CreatedAt     string   `dynamodbav:"CreatedAt"`
	UpdatedAt     string   `dynamodbav:"UpdatedAt"`
}

// testCaseItem is the DynamoDB item shape for one test case. Each test
// case gets its own item so a large suite never breaches the item-size
// limit of the problem row.
type testCaseItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	Index      int    `dynamodbav:"TestCaseIndex"`
	Input      string `dynamodbav:"Input"`
	Output     string `dynamodbav:"Output"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
}

// Save persists the problem metadata row.
func (r *ProblemRepository) Save(ctx context.Context, problem *entities.Problem) error {
	item := r.toItem(problem)

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal problem: %w", err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		r.logger.Error("Failed to save problem",
			zap.String("problem", problem.Key.String()),
			zap.Error(err),
		)
		return apperrors.NewDatabaseError("save problem", err)
	}

	r.logger.Debug("Problem saved",
		zap.String("problem", problem.Key.String()),
		zap.Bool("needsReview", problem.NeedsReview),
	)
	return nil
}

// GetByKey retrieves a problem's metadata row.
func (r *ProblemRepository) GetByKey(ctx context.Context, key valueobjects.ProblemKey) (*entities.Problem, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: problemPK(key)},
			"SK": &types.AttributeValueMemberS{Value: skMetadata},
		},
	})
	if err != nil {
		return nil, apperrors.NewDatabaseError("get problem", err)
	}
	if result.Item == nil {
		return nil, apperrors.NewNotFoundError("problem")
	}

	var item problemItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal problem: %w", err)
	}
	return r.fromItem(item)
}

// List queries the global problem partition on GSI1, newest first, with
// optional platform/title/review filters.
func (r *ProblemRepository) List(ctx context.Context, filter ports.ProblemFilter) ([]*entities.Problem, string, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value(problemListPartition))

	builder := expression.NewBuilder().WithKeyCondition(keyCond)

	var filterExpr expression.ConditionBuilder
	hasFilter := false
	addFilter := func(cond expression.ConditionBuilder) {
		if hasFilter {
			filterExpr = filterExpr.And(cond)
		} else {
			filterExpr = cond
			hasFilter = true
		}
	}

	if filter.Platform != "" {
		addFilter(expression.Name("Platform").Equal(expression.Value(filter.Platform)))
	}
	if filter.Query != "" {
		addFilter(expression.Name("TitleLower").Contains(strings.ToLower(filter.Query)))
	}
	if filter.NeedsReview != nil {
		addFilter(expression.Name("NeedsReview").Equal(expression.Value(*filter.NeedsReview)))
	}
	if hasFilter {
		builder = builder.WithFilter(filterExpr)
	}

	expr, err := builder.Build()
	if err != nil {
		return nil, "", fmt.Errorf("failed to build problem list expression: %w", err)
	}

	limit := common.ClampLimit(filter.Limit, 20, 100)
	startKey, err := decodeStartKey(filter.Cursor)
	if err != nil {
		return nil, "", apperrors.NewValidationError(err.Error())
	}

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.gsi1IndexName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(int32(limit)),
		ExclusiveStartKey:         startKey,
	})
	if err != nil {
		return nil, "", apperrors.NewDatabaseError("list problems", err)
	}

	problems := make([]*entities.Problem, 0, len(result.Items))
	for _, raw := range result.Items {
		var item problemItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			r.logger.Warn("Failed to unmarshal problem item", zap.Error(err))
			continue
		}
		problem, err := r.fromItem(item)
		if err != nil {
			r.logger.Warn("Failed to reconstruct problem",
				zap.String("pk", item.PK),
				zap.Error(err),
			)
			continue
		}
		problems = append(problems, problem)
	}

	next, err := encodeNextKey(result.LastEvaluatedKey)
	if err != nil {
		return nil, "", err
	}
	return problems, next, nil
}

// Delete removes the problem metadata row and every test-case item in the
// partition.
func (r *ProblemRepository) Delete(ctx context.Context, key valueobjects.ProblemKey) error {
	// Collect the partition's sort keys first; batch deletes need full keys.
	sortKeys, err := r.partitionSortKeys(ctx, key)
	if err != nil {
		return err
	}
	if len(sortKeys) == 0 {
		return apperrors.NewNotFoundError("problem")
	}

	deletes := make([]types.WriteRequest, 0, len(sortKeys))
	for _, sk := range sortKeys {
		deletes = append(deletes, types.WriteRequest{
			DeleteRequest: &types.DeleteRequest{
				Key: map[string]types.AttributeValue{
					"PK": &types.AttributeValueMemberS{Value: problemPK(key)},
					"SK": &types.AttributeValueMemberS{Value: sk},
				},
			},
		})
	}

	if err := r.batchWrite(ctx, deletes); err != nil {
		return apperrors.NewDatabaseError("delete problem", err)
	}

	r.logger.Info("Problem deleted",
		zap.String("problem", key.String()),
		zap.Int("items", len(sortKeys)),
	)
	return nil
}

// ReplaceTestCases swaps the problem's entire test-case suite and updates
// the count on the metadata row. Callers validate the suite first.
func (r *ProblemRepository) ReplaceTestCases(ctx context.Context, key valueobjects.ProblemKey, cases []entities.TestCase) error {
	existing, err := r.partitionSortKeys(ctx, key)
	if err != nil {
		return err
	}

	foundMetadata := false
	writes := make([]types.WriteRequest, 0, len(existing)+len(cases))
	for _, sk := range existing {
		if sk == skMetadata {
			foundMetadata = true
			continue
		}
		if !strings.HasPrefix(sk, testCaseSKPrefix) {
			continue
		}
		writes = append(writes, types.WriteRequest{
			DeleteRequest: &types.DeleteRequest{
				Key: map[string]types.AttributeValue{
					"PK": &types.AttributeValueMemberS{Value: problemPK(key)},
					"SK": &types.AttributeValueMemberS{Value: sk},
				},
			},
		})
	}
	if !foundMetadata {
		return apperrors.NewNotFoundError("problem")
	}

	now := time.Now().UTC()
	for _, tc := range cases {
		item := testCaseItem{
			PK:         problemPK(key),
			SK:         testCaseSK(tc.Index),
			EntityType: "TESTCASE",
			Index:      tc.Index,
			Input:      tc.Input,
			Output:     tc.Output,
			CreatedAt:  utils.FormatRFC3339(now),
		}
		av, err := attributevalue.MarshalMap(item)
		if err != nil {
			return fmt.Errorf("failed to marshal test case %d: %w", tc.Index, err)
		}
		writes = append(writes, types.WriteRequest{
			PutRequest: &types.PutRequest{Item: av},
		})
	}

	if err := r.batchWrite(ctx, writes); err != nil {
		return apperrors.NewDatabaseError("replace test cases", err)
	}

	// Keep the denormalized count on the metadata row in sync.
	if _, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: problemPK(key)},
			"SK": &types.AttributeValueMemberS{Value: skMetadata},
		},
		UpdateExpression: aws.String("SET TestCaseCount = :count, UpdatedAt = :updatedAt"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":count":     &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", len(cases))},
			":updatedAt": &types.AttributeValueMemberS{Value: utils.FormatRFC3339(now)},
		},
	}); err != nil {
		return apperrors.NewDatabaseError("update test case count", err)
	}

	r.logger.Info("Test cases replaced",
		zap.String("problem", key.String()),
		zap.Int("count", len(cases)),
	)
	return nil
}

// GetTestCases loads the full suite for a problem in index order.
func (r *ProblemRepository) GetTestCases(ctx context.Context, key valueobjects.ProblemKey) ([]entities.TestCase, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: problemPK(key)},
			":sk": &types.AttributeValueMemberS{Value: testCaseSKPrefix},
		},
		ScanIndexForward: aws.Bool(true),
	}

	var cases []entities.TestCase
	for {
		result, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, apperrors.NewDatabaseError("get test cases", err)
		}
		for _, raw := range result.Items {
			var item testCaseItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, fmt.Errorf("failed to unmarshal test case: %w", err)
			}
			cases = append(cases, entities.TestCase{
				Index:  item.Index,
				Input:  item.Input,
				Output: item.Output,
			})
		}
		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
	return cases, nil
}

// partitionSortKeys returns every SK in the problem's partition.
func (r *ProblemRepository) partitionSortKeys(ctx context.Context, key valueobjects.ProblemKey) ([]string, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: problemPK(key)},
		},
		ProjectionExpression: aws.String("SK"),
	}

	var sortKeys []string
	for {
		result, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, apperrors.NewDatabaseError("query problem partition", err)
		}
		for _, raw := range result.Items {
			if sk, ok := raw["SK"].(*types.AttributeValueMemberS); ok {
				sortKeys = append(sortKeys, sk.Value)
			}
		}
		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
	return sortKeys, nil
}

// batchWriteRetries bounds resubmission of unprocessed batch items.
const batchWriteRetries = 3

// batchWrite writes requests in chunks of 25, the BatchWriteItem limit.
// Unprocessed items are resubmitted with a short backoff, as the API
// contract requires under throttling.
func (r *ProblemRepository) batchWrite(ctx context.Context, requests []types.WriteRequest) error {
	for i := 0; i < len(requests); i += 25 {
		end := i + 25
		if end > len(requests) {
			end = len(requests)
		}

		pending := requests[i:end]
		for attempt := 0; len(pending) > 0; attempt++ {
			result, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: map[string][]types.WriteRequest{
					r.tableName: pending,
				},
			})
			if err != nil {
				return err
			}

			pending = result.UnprocessedItems[r.tableName]
			if len(pending) == 0 {
				break
			}
			if attempt >= batchWriteRetries {
				return fmt.Errorf("batch write left %d unprocessed items after %d retries", len(pending), batchWriteRetries)
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt+1) * 50 * time.Millisecond):
			}
		}
	}
	return nil
}

func (r *ProblemRepository) toItem(problem *entities.Problem) problemItem {
	item := problemItem{
		PK:            problemPK(problem.Key),
		SK:            skMetadata,
		GSI1PK:        problemListPartition,
		GSI1SK:        fmt.Sprintf("%s#%s", utils.FormatRFC3339(problem.CreatedAt), problem.Key.String()),
		EntityType:    "PROBLEM",
		Platform:      problem.Key.Platform(),
		ProblemID:     problem.Key.ProblemID(),
		Title:         problem.Title,
		TitleLower:    strings.ToLower(problem.Title),
		URL:           problem.URL,
		Tags:          problem.Tags,
		Language:      problem.Language,
		Constraints:   problem.Constraints,
		SolutionCode:  problem.SolutionCode,
		NeedsReview:   problem.NeedsReview,
		TestCaseCount: problem.TestCaseCount,
		CreatedAt:     utils.FormatRFC3339(problem.CreatedAt),
		UpdatedAt:     utils.FormatRFC3339(problem.UpdatedAt),
	}
	if problem.CompletedAt != nil {
		item.CompletedAt = utils.FormatRFC3339(*problem.CompletedAt)
	}
	return item
}

func (r *ProblemRepository) fromItem(item problemItem) (*entities.Problem, error) {
	key, err := valueobjects.NewProblemKey(item.Platform, item.ProblemID)
	if err != nil {
		return nil, fmt.Errorf("stored problem has invalid key: %w", err)
	}

	createdAt, _ := utils.ParseRFC3339(item.CreatedAt)
	updatedAt, _ := utils.ParseRFC3339(item.UpdatedAt)

	problem := &entities.Problem{
		Key:           key,
		Title:         item.Title,
		URL:           item.URL,
		Tags:          item.Tags,
		Language:      item.Language,
		Constraints:   item.Constraints,
		SolutionCode:  item.SolutionCode,
		NeedsReview:   item.NeedsReview,
		TestCaseCount: item.TestCaseCount,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}
	if item.CompletedAt != "" {
		if t, err := utils.ParseRFC3339(item.CompletedAt); err == nil {
			problem.CompletedAt = &t
		}
	}
	return problem, nil
}
