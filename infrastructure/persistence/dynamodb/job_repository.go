package dynamodb

import (
	"context"
	"errors"
	"fmt"
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

// JobRepository implements ports.JobRepository. Jobs live under their own
// partition; GSI1 serves user listings and GSI2 is the status index that
// replaces scanning the table for pending work.
type JobRepository struct {
	client        DynamoDBAPI
	tableName     string
	gsi1IndexName string
	gsi2IndexName string
	logger        *zap.Logger
}

// NewJobRepository creates a JobRepository.
func NewJobRepository(client DynamoDBAPI, tableName, gsi1IndexName, gsi2IndexName string, logger *zap.Logger) *JobRepository {
	return &JobRepository{
		client:        client,
		tableName:     tableName,
		gsi1IndexName: gsi1IndexName,
		gsi2IndexName: gsi2IndexName,
		logger:        logger,
	}
}

// jobItem is the DynamoDB item shape for a job. The attribute is named
// JobStatus because Status is a DynamoDB reserved word.
type jobItem struct {
	PK            string   `dynamodbav:"PK"`
	SK            string   `dynamodbav:"SK"`
	GSI1PK        string   `dynamodbav:"GSI1PK"`
	GSI1SK        string   `dynamodbav:"GSI1SK"`
	GSI2PK        string   `dynamodbav:"GSI2PK"`
	GSI2SK        string   `dynamodbav:"GSI2SK"`
	EntityType    string   `dynamodbav:"EntityType"`
	JobID         string   `dynamodbav:"JobID"`
	KindCode      string   `dynamodbav:"KindCode"`
	UserID        string   `dynamodbav:"UserID"`
	Platform      string   `dynamodbav:"Platform,omitempty"`
	ProblemID     string   `dynamodbav:"ProblemID,omitempty"`
	Title         string   `dynamodbav:"Title,omitempty"`
	Language      string   `dynamodbav:"Language,omitempty"`
	Constraints   string   `dynamodbav:"Constraints,omitempty"`
	Tags          []string `dynamodbav:"Tags,omitempty"`
	GeneratorCode string   `dynamodbav:"GeneratorCode,omitempty"`
	ProblemURL    string   `dynamodbav:"ProblemURL,omitempty"`
	JobStatus     string   `dynamodbav:"JobStatus"`
	ErrorMessage  string   `dynamodbav:"ErrorMessage,omitempty"`
	WorkerID      string   `dynamodbav:"WorkerID,omitempty"`
	Attempts      int      `dynamodbav:"Attempts"`
	CreatedAt     string   `dynamodbav:"CreatedAt"`
	UpdatedAt     string   `dynamodbav:"UpdatedAt"`
}

// Create persists a new job. The condition rejects ID collisions.
func (r *JobRepository) Create(ctx context.Context, job *entities.Job) error {
	av, err := attributevalue.MarshalMap(r.toItem(job))
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	}); err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return apperrors.NewConflictError(fmt.Sprintf("job %s already exists", job.ID))
		}
		return apperrors.NewDatabaseError("create job", err)
	}

	r.logger.Info("Job created",
		zap.String("jobID", job.ID),
		zap.String("kind", string(job.Kind)),
		zap.String("userID", job.UserID),
	)
	return nil
}

// Get retrieves a job by kind and ID.
func (r *JobRepository) Get(ctx context.Context, kind entities.JobKind, jobID string) (*entities.Job, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: jobPK(kind, jobID)},
			"SK": &types.AttributeValueMemberS{Value: skMetadata},
		},
	})
	if err != nil {
		return nil, apperrors.NewDatabaseError("get job", err)
	}
	if result.Item == nil {
		return nil, apperrors.NewNotFoundError("job")
	}

	var item jobItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return r.fromItem(item), nil
}

// List queries jobs by user (GSI1) or by status (GSI2), newest first. At
// least one of UserID or Status must be set; an unfiltered listing would be
// a table scan, which this repository deliberately does not offer.
func (r *JobRepository) List(ctx context.Context, filter ports.JobFilter) ([]*entities.Job, string, error) {
	var keyCond expression.KeyConditionBuilder
	var indexName string

	switch {
	case filter.UserID != "":
		indexName = r.gsi1IndexName
		keyCond = expression.Key("GSI1PK").Equal(expression.Value(userPK(filter.UserID))).
			And(expression.Key("GSI1SK").BeginsWith("JOB#"))
	case filter.Status != "":
		indexName = r.gsi2IndexName
		keyCond = expression.Key("GSI2PK").Equal(expression.Value(jobStatusPK(filter.Status)))
	default:
		return nil, "", apperrors.NewValidationError("job listing requires a user or status filter")
	}

	builder := expression.NewBuilder().WithKeyCondition(keyCond)

	var filters []expression.ConditionBuilder
	if filter.Kind != "" {
		filters = append(filters, expression.Name("KindCode").Equal(expression.Value(jobKindCode(filter.Kind))))
	}
	if filter.UserID != "" && filter.Status != "" {
		// User listing with a status narrowing filter.
		filters = append(filters, expression.Name("JobStatus").Equal(expression.Value(string(filter.Status))))
	}
	if len(filters) > 0 {
		cond := filters[0]
		for _, extra := range filters[1:] {
			cond = cond.And(extra)
		}
		builder = builder.WithFilter(cond)
	}

	expr, err := builder.Build()
	if err != nil {
		return nil, "", fmt.Errorf("failed to build job list expression: %w", err)
	}

	limit := common.ClampLimit(filter.Limit, 20, 100)
	startKey, err := decodeStartKey(filter.Cursor)
	if err != nil {
		return nil, "", apperrors.NewValidationError(err.Error())
	}

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(int32(limit)),
		ExclusiveStartKey:         startKey,
	})
	if err != nil {
		return nil, "", apperrors.NewDatabaseError("list jobs", err)
	}

	jobs := make([]*entities.Job, 0, len(result.Items))
	for _, raw := range result.Items {
		var item jobItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			r.logger.Warn("Failed to unmarshal job item", zap.Error(err))
			continue
		}
		jobs = append(jobs, r.fromItem(item))
	}

	next, err := encodeNextKey(result.LastEvaluatedKey)
	if err != nil {
		return nil, "", err
	}
	return jobs, next, nil
}

// Claim atomically moves a PENDING job to PROCESSING. The conditional
// update guarantees exactly one worker wins a contested claim.
func (r *JobRepository) Claim(ctx context.Context, kind entities.JobKind, jobID, workerID string) (*entities.Job, error) {
	now := utils.NowRFC3339()

	result, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: jobPK(kind, jobID)},
			"SK": &types.AttributeValueMemberS{Value: skMetadata},
		},
		ConditionExpression: aws.String("JobStatus = :pending"),
		UpdateExpression:    aws.String("SET JobStatus = :processing, GSI2PK = :statusPK, WorkerID = :worker, Attempts = Attempts + :one, UpdatedAt = :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pending":    &types.AttributeValueMemberS{Value: string(entities.JobStatusPending)},
			":processing": &types.AttributeValueMemberS{Value: string(entities.JobStatusProcessing)},
			":statusPK":   &types.AttributeValueMemberS{Value: jobStatusPK(entities.JobStatusProcessing)},
			":worker":     &types.AttributeValueMemberS{Value: workerID},
			":one":        &types.AttributeValueMemberN{Value: "1"},
			":now":        &types.AttributeValueMemberS{Value: now},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, apperrors.NewConflictError("job already claimed")
		}
		return nil, apperrors.NewDatabaseError("claim job", err)
	}

	var item jobItem
	if err := attributevalue.UnmarshalMap(result.Attributes, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal claimed job: %w", err)
	}

	r.logger.Debug("Job claimed",
		zap.String("jobID", jobID),
		zap.String("workerID", workerID),
	)
	return r.fromItem(item), nil
}

// UpdateStatus persists the job's status fields, keeping the status index
// key in step. The write is conditioned on the stored status still being
// the one the in-memory transition started from, so a racing transition
// (say a cancel landing while a worker finishes) gets a conflict instead
// of overwriting a terminal state.
func (r *JobRepository) UpdateStatus(ctx context.Context, job *entities.Job) error {
	condition := "attribute_exists(PK)"
	values := map[string]types.AttributeValue{
		":status":   &types.AttributeValueMemberS{Value: string(job.Status)},
		":statusPK": &types.AttributeValueMemberS{Value: jobStatusPK(job.Status)},
		":errMsg":   &types.AttributeValueMemberS{Value: job.ErrorMessage},
		":code":     &types.AttributeValueMemberS{Value: job.GeneratorCode},
		":worker":   &types.AttributeValueMemberS{Value: job.WorkerID},
		":now":      &types.AttributeValueMemberS{Value: utils.FormatRFC3339(job.UpdatedAt)},
	}
	prev := job.StatusBefore()
	if prev != "" {
		condition = "JobStatus = :prev"
		values[":prev"] = &types.AttributeValueMemberS{Value: string(prev)}
	}

	if _, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: jobPK(job.Kind, job.ID)},
			"SK": &types.AttributeValueMemberS{Value: skMetadata},
		},
		ConditionExpression:       aws.String(condition),
		UpdateExpression:          aws.String("SET JobStatus = :status, GSI2PK = :statusPK, ErrorMessage = :errMsg, GeneratorCode = :code, WorkerID = :worker, UpdatedAt = :now"),
		ExpressionAttributeValues: values,
	}); err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			if prev != "" {
				return apperrors.NewConflictError(fmt.Sprintf("job %s status changed concurrently", job.ID))
			}
			return apperrors.NewNotFoundError("job")
		}
		return apperrors.NewDatabaseError("update job status", err)
	}
	return nil
}

// RequeueStale moves PROCESSING jobs whose last update is older than
// deadline back to PENDING. Lost workers leave jobs in PROCESSING forever
// otherwise.
func (r *JobRepository) RequeueStale(ctx context.Context, deadline time.Time) (int, error) {
	cutoff := utils.FormatRFC3339(deadline)

	keyCond := expression.Key("GSI2PK").Equal(expression.Value(jobStatusPK(entities.JobStatusProcessing)))
	filter := expression.Name("UpdatedAt").LessThan(expression.Value(cutoff))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).WithFilter(filter).Build()
	if err != nil {
		return 0, fmt.Errorf("failed to build stale job expression: %w", err)
	}

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.gsi2IndexName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return 0, apperrors.NewDatabaseError("query stale jobs", err)
	}

	requeued := 0
	for _, raw := range result.Items {
		var item jobItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			continue
		}

		// Conditional per-job: a worker finishing between query and
		// update must not be clobbered.
		_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName: aws.String(r.tableName),
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: item.PK},
				"SK": &types.AttributeValueMemberS{Value: item.SK},
			},
			ConditionExpression: aws.String("JobStatus = :processing AND UpdatedAt < :cutoff"),
			UpdateExpression:    aws.String("SET JobStatus = :pending, GSI2PK = :statusPK, WorkerID = :empty, UpdatedAt = :now"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":processing": &types.AttributeValueMemberS{Value: string(entities.JobStatusProcessing)},
				":pending":    &types.AttributeValueMemberS{Value: string(entities.JobStatusPending)},
				":statusPK":   &types.AttributeValueMemberS{Value: jobStatusPK(entities.JobStatusPending)},
				":empty":      &types.AttributeValueMemberS{Value: ""},
				":cutoff":     &types.AttributeValueMemberS{Value: cutoff},
				":now":        &types.AttributeValueMemberS{Value: utils.NowRFC3339()},
			},
		})
		if err != nil {
			var ccf *types.ConditionalCheckFailedException
			if errors.As(err, &ccf) {
				continue // job moved on by itself
			}
			r.logger.Error("Failed to requeue stale job",
				zap.String("jobID", item.JobID),
				zap.Error(err),
			)
			continue
		}

		r.logger.Warn("Requeued stale job",
			zap.String("jobID", item.JobID),
			zap.String("lostWorker", item.WorkerID),
		)
		requeued++
	}
	return requeued, nil
}

func (r *JobRepository) toItem(job *entities.Job) jobItem {
	item := jobItem{
		PK:            jobPK(job.Kind, job.ID),
		SK:            skMetadata,
		GSI1PK:        userPK(job.UserID),
		GSI1SK:        userJobGSI1SK(job.CreatedAt, job.ID),
		GSI2PK:        jobStatusPK(job.Status),
		GSI2SK:        jobStatusSK(job.CreatedAt, job.ID),
		EntityType:    "JOB",
		JobID:         job.ID,
		KindCode:      jobKindCode(job.Kind),
		UserID:        job.UserID,
		Title:         job.Title,
		Language:      job.Language,
		Constraints:   job.Constraints,
		Tags:          job.Tags,
		GeneratorCode: job.GeneratorCode,
		ProblemURL:    job.ProblemURL,
		JobStatus:     string(job.Status),
		ErrorMessage:  job.ErrorMessage,
		WorkerID:      job.WorkerID,
		Attempts:      job.Attempts,
		CreatedAt:     utils.FormatRFC3339(job.CreatedAt),
		UpdatedAt:     utils.FormatRFC3339(job.UpdatedAt),
	}
	if !job.ProblemKey.IsZero() {
		item.Platform = job.ProblemKey.Platform()
		item.ProblemID = job.ProblemKey.ProblemID()
	}
	return item
}

func (r *JobRepository) fromItem(item jobItem) *entities.Job {
	createdAt, _ := utils.ParseRFC3339(item.CreatedAt)
	updatedAt, _ := utils.ParseRFC3339(item.UpdatedAt)

	job := &entities.Job{
		ID:            item.JobID,
		Kind:          jobKindFromCode(item.KindCode),
		UserID:        item.UserID,
		Title:         item.Title,
		Language:      item.Language,
		Constraints:   item.Constraints,
		Tags:          item.Tags,
		GeneratorCode: item.GeneratorCode,
		ProblemURL:    item.ProblemURL,
		Status:        entities.JobStatus(item.JobStatus),
		ErrorMessage:  item.ErrorMessage,
		WorkerID:      item.WorkerID,
		Attempts:      item.Attempts,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}
	if item.Platform != "" && item.ProblemID != "" {
		if key, err := valueobjects.NewProblemKey(item.Platform, item.ProblemID); err == nil {
			job.ProblemKey = key
		}
	}
	return job
}
