//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"algoitny-backend/application/commands/bus"
	"algoitny-backend/application/ports"
	querybus "algoitny-backend/application/queries/bus"
	"algoitny-backend/infrastructure/config"
	"algoitny-backend/interfaces/http/rest"
	"algoitny-backend/pkg/auth"
	"algoitny-backend/pkg/observability"
	"algoitny-backend/worker"

	"github.com/google/wire"
	"go.uber.org/zap"
)

// Container holds all application dependencies.
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	ProblemRepo  ports.ProblemRepository
	JobRepo      ports.JobRepository
	ProgressRepo ports.ProgressRepository
	HistoryRepo  ports.HistoryRepository
	UsageRepo    ports.UsageRepository
	UserRepo     ports.UserRepository
	Locker       ports.Locker
	Publisher    ports.EventPublisher
	Metrics      *observability.Metrics
	JWTManager   *auth.JWTManager
	CommandBus   *bus.CommandBus
	QueryBus     *querybus.QueryBus
	Router       *rest.Router
	Processor    *worker.Processor
}

// SuperSet is the main provider set containing all providers.
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideSSMClient,
	ProvideProblemRepository,
	ProvideJobRepository,
	ProvideProgressRepository,
	ProvideHistoryRepository,
	ProvideUsageRepository,
	ProvideUserRepository,
	ProvideLocker,
	ProvideEventPublisher,
	ProvideMetrics,
	ProvideJWTManager,
	ProvideTestCaseValidator,
	ProvideLLMClient,
	ProvideScriptGenerator,
	ProvideProblemExtractor,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideRouter,
	ProvideWorkerProcessor,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil
}
