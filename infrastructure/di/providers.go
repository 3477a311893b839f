// Package di assembles the application with google/wire. Providers here
// are shared by the API server, the worker, and the Lambda entrypoint.
package di

import (
	"context"
	"fmt"

	"algoitny-backend/application/commands"
	"algoitny-backend/application/commands/bus"
	commandhandlers "algoitny-backend/application/commands/handlers"
	"algoitny-backend/application/ports"
	"algoitny-backend/application/queries"
	querybus "algoitny-backend/application/queries/bus"
	queryhandlers "algoitny-backend/application/queries/handlers"
	"algoitny-backend/application/services"
	"algoitny-backend/domain/validators"
	"algoitny-backend/infrastructure/config"
	"algoitny-backend/infrastructure/integrations/openai"
	"algoitny-backend/infrastructure/integrations/paramstore"
	"algoitny-backend/infrastructure/messaging/eventbridge"
	"algoitny-backend/infrastructure/persistence/dynamodb"
	"algoitny-backend/interfaces/http/rest"
	"algoitny-backend/pkg/auth"
	"algoitny-backend/pkg/observability"
	"algoitny-backend/worker"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"go.uber.org/zap"
)

// ProvideLogger creates the process logger.
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig loads the AWS SDK configuration.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client.
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client.
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client.
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideSSMClient creates an SSM client.
func ProvideSSMClient(awsCfg aws.Config) *awsssm.Client {
	return awsssm.NewFromConfig(awsCfg)
}

// ProvideProblemRepository creates the problem repository.
func ProvideProblemRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.ProblemRepository {
	return dynamodb.NewProblemRepository(client, cfg.DynamoDBTable, cfg.GSI1IndexName, logger)
}

// ProvideJobRepository creates the job repository.
func ProvideJobRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.JobRepository {
	return dynamodb.NewJobRepository(client, cfg.DynamoDBTable, cfg.GSI1IndexName, cfg.GSI2IndexName, logger)
}

// ProvideProgressRepository creates the progress repository.
func ProvideProgressRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.ProgressRepository {
	return dynamodb.NewProgressRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideHistoryRepository creates the history repository.
func ProvideHistoryRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.HistoryRepository {
	return dynamodb.NewHistoryRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideUsageRepository creates the usage repository.
func ProvideUsageRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.UsageRepository {
	return dynamodb.NewUsageRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideUserRepository creates the user repository.
func ProvideUserRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.UserRepository {
	return dynamodb.NewUserRepository(client, cfg.DynamoDBTable, cfg.GSI1IndexName, logger)
}

// ProvideLocker creates the lock used to deduplicate extraction requests.
func ProvideLocker(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.Locker {
	return dynamodb.NewJobLock(client, cfg.DynamoDBTable, logger)
}

// ProvideEventPublisher creates the EventBridge job event publisher.
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideMetrics creates the CloudWatch metrics publisher. Disabled
// metrics yield a nil client, which Metrics treats as a no-op sink.
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config) *observability.Metrics {
	namespace := fmt.Sprintf("AlgoItny/%s", cfg.Environment)
	if !cfg.MetricsEnabled {
		return observability.NewMetrics(namespace, nil)
	}
	return observability.NewMetrics(namespace, client)
}

// ProvideJWTManager creates the token manager.
func ProvideJWTManager(cfg *config.Config) (*auth.JWTManager, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("jwt secret is required in production")
		}
		secret = "development-secret-change-in-production"
	}
	return auth.NewJWTManager(auth.JWTConfig{
		SecretKey: secret,
		Issuer:    cfg.JWTIssuer,
		Audience:  "algoitny-api",
	})
}

// ProvideTestCaseValidator creates the domain test-case validator.
func ProvideTestCaseValidator() *validators.TestCaseValidator {
	return validators.NewTestCaseValidator()
}

// ProvideLLMClient creates the chat completion client, with the API key
// resolved from Parameter Store.
func ProvideLLMClient(ssmClient *awsssm.Client, cfg *config.Config) (*openai.Client, error) {
	ps, err := paramstore.New(ssmClient)
	if err != nil {
		return nil, err
	}

	opts := []openai.Option{}
	if cfg.LLMBaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.LLMBaseURL))
	}
	return openai.NewClient(ps, cfg.LLMParamPrefix, opts...)
}

// ProvideScriptGenerator creates the generation service.
func ProvideScriptGenerator(llm *openai.Client, cfg *config.Config, logger *zap.Logger) ports.ScriptGenerator {
	return services.NewGenerationService(llm, cfg.LLMModel, logger)
}

// ProvideProblemExtractor creates the extraction service.
func ProvideProblemExtractor(llm *openai.Client, cfg *config.Config, logger *zap.Logger) ports.ProblemExtractor {
	return services.NewExtractionService(llm, cfg.LLMModel, logger)
}

// ProvideCommandBus creates the command bus with every handler registered.
func ProvideCommandBus(
	problems ports.ProblemRepository,
	jobs ports.JobRepository,
	users ports.UserRepository,
	usage ports.UsageRepository,
	locker ports.Locker,
	publisher ports.EventPublisher,
	validator *validators.TestCaseValidator,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus()
	logging := bus.LoggingMiddleware(logger)

	registrations := []struct {
		cmd     bus.Command
		handler bus.CommandHandler
	}{
		{commands.RegisterProblemCommand{}, commandhandlers.NewRegisterProblemHandler(problems, logger)},
		{commands.SaveTestCasesCommand{}, commandhandlers.NewSaveTestCasesHandler(problems, validator, logger)},
		{commands.DeleteProblemCommand{}, commandhandlers.NewDeleteProblemHandler(problems, logger)},
		{commands.ExecuteScriptCommand{}, commandhandlers.NewExecuteScriptHandler(jobs, users, usage, publisher, logger)},
		{commands.ExtractProblemCommand{}, commandhandlers.NewExtractProblemHandler(jobs, usage, locker, publisher, logger)},
		{commands.CancelJobCommand{}, commandhandlers.NewCancelJobHandler(jobs, publisher, logger)},
		{commands.RetryJobCommand{}, commandhandlers.NewRetryJobHandler(jobs, publisher, logger)},
	}
	for _, reg := range registrations {
		if err := commandBus.Register(reg.cmd, bus.Chain(reg.handler, logging)); err != nil {
			return nil, err
		}
	}
	return commandBus, nil
}

// ProvideQueryBus creates the query bus with every handler registered.
func ProvideQueryBus(
	problems ports.ProblemRepository,
	jobs ports.JobRepository,
	progress ports.ProgressRepository,
	history ports.HistoryRepository,
	usage ports.UsageRepository,
	users ports.UserRepository,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus()
	logging := querybus.LoggingMiddleware(logger)

	registrations := []struct {
		query   querybus.Query
		handler querybus.QueryHandler
	}{
		{queries.GetProblemQuery{}, queryhandlers.NewGetProblemHandler(problems)},
		{queries.SearchProblemsQuery{}, queryhandlers.NewSearchProblemsHandler(problems, history, logger)},
		{queries.ListJobsQuery{}, queryhandlers.NewListJobsHandler(jobs)},
		{queries.GetJobQuery{}, queryhandlers.NewGetJobHandler(jobs)},
		{queries.GetJobProgressQuery{}, queryhandlers.NewGetJobProgressHandler(jobs, progress)},
		{queries.ListSearchHistoryQuery{}, queryhandlers.NewListSearchHistoryHandler(history)},
		{queries.GetUsageQuery{}, queryhandlers.NewGetUsageHandler(users, usage)},
	}
	for _, reg := range registrations {
		if err := queryBus.Register(reg.query, querybus.Chain(reg.handler, logging)); err != nil {
			return nil, err
		}
	}
	return queryBus, nil
}

// ProvideRouter creates the HTTP router.
func ProvideRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	users ports.UserRepository,
	jwtManager *auth.JWTManager,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(commandBus, queryBus, users, jwtManager, logger)
}

// ProvideWorkerProcessor creates the background job processor.
func ProvideWorkerProcessor(
	cfg *config.Config,
	jobs ports.JobRepository,
	progress ports.ProgressRepository,
	problems ports.ProblemRepository,
	locker ports.Locker,
	generator ports.ScriptGenerator,
	extractor ports.ProblemExtractor,
	publisher ports.EventPublisher,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *worker.Processor {
	return worker.NewProcessor(
		worker.Config{
			WorkerID:      cfg.WorkerID,
			PollInterval:  cfg.WorkerPollInterval,
			BatchSize:     cfg.WorkerBatchSize,
			StaleDeadline: cfg.StaleJobDeadline,
		},
		jobs, progress, problems, locker, generator, extractor, publisher, metrics, logger,
	)
}
