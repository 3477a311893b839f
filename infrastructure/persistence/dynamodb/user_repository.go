package dynamodb

import (
	"context"
	"fmt"

	"algoitny-backend/domain/entities"
	apperrors "algoitny-backend/pkg/errors"
	"algoitny-backend/pkg/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// UserRepository stores user profiles. GSI1 provides the email lookup used
// during token issuance.
type UserRepository struct {
	client        DynamoDBAPI
	tableName     string
	gsi1IndexName string
	logger        *zap.Logger
}

// NewUserRepository creates a UserRepository.
func NewUserRepository(client DynamoDBAPI, tableName, gsi1IndexName string, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		client:        client,
		tableName:     tableName,
		gsi1IndexName: gsi1IndexName,
		logger:        logger,
	}
}

type userItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK"`
	GSI1SK     string `dynamodbav:"GSI1SK"`
	EntityType string `dynamodbav:"EntityType"`
	UserID     string `dynamodbav:"UserID"`
	Email      string `dynamodbav:"Email"`
	Name       string `dynamodbav:"Name"`
	Plan       string `dynamodbav:"Plan"`
	IsAdmin    bool   `dynamodbav:"IsAdmin"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
}

// Save upserts the user's profile.
func (r *UserRepository) Save(ctx context.Context, user *entities.User) error {
	item := userItem{
		PK:         userPK(user.ID),
		SK:         skProfile,
		GSI1PK:     emailGSI1PK(user.Email),
		GSI1SK:     skProfile,
		EntityType: "USER",
		UserID:     user.ID,
		Email:      user.Email,
		Name:       user.Name,
		Plan:       user.Plan,
		IsAdmin:    user.IsAdmin,
		CreatedAt:  utils.FormatRFC3339(user.CreatedAt),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		return apperrors.NewDatabaseError("save user", err)
	}

	r.logger.Info("User saved", zap.String("userID", user.ID))
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, userID string) (*entities.User, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(userID)},
			"SK": &types.AttributeValueMemberS{Value: skProfile},
		},
	})
	if err != nil {
		return nil, apperrors.NewDatabaseError("get user", err)
	}
	if result.Item == nil {
		return nil, apperrors.NewNotFoundError("user")
	}
	return unmarshalUser(result.Item)
}

// GetByEmail looks up a user through the email index.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value(emailGSI1PK(email)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build email lookup expression: %w", err)
	}

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.gsi1IndexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, apperrors.NewDatabaseError("get user by email", err)
	}
	if len(result.Items) == 0 {
		return nil, apperrors.NewNotFoundError("user")
	}
	return unmarshalUser(result.Items[0])
}

func unmarshalUser(raw map[string]types.AttributeValue) (*entities.User, error) {
	var item userItem
	if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	createdAt, _ := utils.ParseRFC3339(item.CreatedAt)
	return &entities.User{
		ID:        item.UserID,
		Email:     item.Email,
		Name:      item.Name,
		Plan:      item.Plan,
		IsAdmin:   item.IsAdmin,
		CreatedAt: createdAt,
	}, nil
}
