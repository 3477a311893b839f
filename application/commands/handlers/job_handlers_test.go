package handlers

import (
	"context"
	"testing"

	"algoitny-backend/application/commands"
	"algoitny-backend/domain/entities"
	"algoitny-backend/domain/events"
	apperrors "algoitny-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func freeUser(t *testing.T) *entities.User {
	t.Helper()
	user, err := entities.NewUser("alice@example.com", "Alice")
	require.NoError(t, err)
	return user
}

func executeCommand(userID string) commands.ExecuteScriptCommand {
	return commands.ExecuteScriptCommand{
		UserID:    userID,
		Platform:  "baekjoon",
		ProblemID: "1000",
		Title:     "A+B",
		Language:  "python",
	}
}

func TestExecuteScriptHandler_QueuesJob(t *testing.T) {
	user := freeUser(t)
	jobs := newFakeJobRepo()
	usage := newFakeUsageRepo()
	publisher := &fakePublisher{}

	handler := NewExecuteScriptHandler(jobs, newFakeUserRepo(user), usage, publisher, zap.NewNop())

	result, err := handler.Handle(context.Background(), executeCommand(user.ID))
	require.NoError(t, err)

	job := result.(*entities.Job)
	assert.Equal(t, entities.JobKindScriptGeneration, job.Kind)
	assert.Equal(t, entities.JobStatusPending, job.Status)
	assert.Contains(t, jobs.jobs, job.ID)
	assert.Equal(t, []string{user.ID + ":execution"}, usage.recorded)
	assert.Equal(t, []string{events.JobCreated}, publisher.events)
}

func TestExecuteScriptHandler_EnforcesDailyLimit(t *testing.T) {
	user := freeUser(t)
	usage := newFakeUsageRepo()
	usage.counts[user.ID+":execution"] = user.DailyExecutionLimit()

	handler := NewExecuteScriptHandler(newFakeJobRepo(), newFakeUserRepo(user), usage, &fakePublisher{}, zap.NewNop())

	_, err := handler.Handle(context.Background(), executeCommand(user.ID))
	assert.True(t, apperrors.IsRateLimit(err))
}

func TestExecuteScriptHandler_AdminBypassesLimit(t *testing.T) {
	user := freeUser(t)
	user.IsAdmin = true
	usage := newFakeUsageRepo()
	usage.counts[user.ID+":execution"] = 10000

	handler := NewExecuteScriptHandler(newFakeJobRepo(), newFakeUserRepo(user), usage, &fakePublisher{}, zap.NewNop())

	_, err := handler.Handle(context.Background(), executeCommand(user.ID))
	assert.NoError(t, err)
}

func TestExecuteScriptHandler_UnknownUser(t *testing.T) {
	handler := NewExecuteScriptHandler(newFakeJobRepo(), newFakeUserRepo(), newFakeUsageRepo(), &fakePublisher{}, zap.NewNop())

	_, err := handler.Handle(context.Background(), executeCommand("ghost"))
	assert.True(t, apperrors.IsNotFound(err))
}

func TestExecuteScriptHandler_PublishFailureIsNotFatal(t *testing.T) {
	user := freeUser(t)
	publisher := &fakePublisher{publishErr: apperrors.NewExternalError("eventbridge", assert.AnError)}

	handler := NewExecuteScriptHandler(newFakeJobRepo(), newFakeUserRepo(user), newFakeUsageRepo(), publisher, zap.NewNop())

	_, err := handler.Handle(context.Background(), executeCommand(user.ID))
	assert.NoError(t, err)
}

func TestExtractProblemHandler_LocksURL(t *testing.T) {
	jobs := newFakeJobRepo()
	locker := &fakeLocker{}
	publisher := &fakePublisher{}

	handler := NewExtractProblemHandler(jobs, newFakeUsageRepo(), locker, publisher, zap.NewNop())

	result, err := handler.Handle(context.Background(), commands.ExtractProblemCommand{
		UserID:     "user-1",
		ProblemURL: "https://www.acmicpc.net/problem/1000",
	})
	require.NoError(t, err)

	job := result.(*entities.Job)
	assert.Equal(t, entities.JobKindProblemExtraction, job.Kind)
	assert.Equal(t, []string{"extract:https://www.acmicpc.net/problem/1000"}, locker.acquired)
	assert.Empty(t, locker.released)
	assert.Equal(t, []string{events.JobCreated}, publisher.events)
}

func TestExtractProblemHandler_DuplicateURLConflicts(t *testing.T) {
	locker := &fakeLocker{acquireErr: apperrors.NewConflictError("held")}

	handler := NewExtractProblemHandler(newFakeJobRepo(), newFakeUsageRepo(), locker, &fakePublisher{}, zap.NewNop())

	_, err := handler.Handle(context.Background(), commands.ExtractProblemCommand{
		UserID:     "user-1",
		ProblemURL: "https://www.acmicpc.net/problem/1000",
	})
	assert.True(t, apperrors.IsConflict(err))
}

func TestExtractProblemHandler_ReleasesLockWhenCreateFails(t *testing.T) {
	jobs := newFakeJobRepo()
	jobs.createErr = apperrors.NewDatabaseError("create job", assert.AnError)
	locker := &fakeLocker{}

	handler := NewExtractProblemHandler(jobs, newFakeUsageRepo(), locker, &fakePublisher{}, zap.NewNop())

	_, err := handler.Handle(context.Background(), commands.ExtractProblemCommand{
		UserID:     "user-1",
		ProblemURL: "https://www.acmicpc.net/problem/1000",
	})
	require.Error(t, err)
	assert.Equal(t, locker.acquired, locker.released)
}

func cancelCommand(job *entities.Job, userID string, isAdmin bool) commands.CancelJobCommand {
	return commands.CancelJobCommand{
		Kind:    job.Kind,
		JobID:   job.ID,
		UserID:  userID,
		IsAdmin: isAdmin,
	}
}

func TestCancelJobHandler(t *testing.T) {
	jobs := newFakeJobRepo()
	job, err := entities.NewProblemExtractionJob("user-1", "https://x")
	require.NoError(t, err)
	jobs.jobs[job.ID] = job
	publisher := &fakePublisher{}

	handler := NewCancelJobHandler(jobs, publisher, zap.NewNop())

	result, err := handler.Handle(context.Background(), cancelCommand(job, "user-1", false))
	require.NoError(t, err)

	cancelled := result.(*entities.Job)
	assert.Equal(t, entities.JobStatusCancelled, cancelled.Status)
	assert.Equal(t, []string{events.JobCancelled}, publisher.events)
}

func TestCancelJobHandler_ForbidsOtherUsers(t *testing.T) {
	jobs := newFakeJobRepo()
	job, err := entities.NewProblemExtractionJob("user-1", "https://x")
	require.NoError(t, err)
	jobs.jobs[job.ID] = job

	handler := NewCancelJobHandler(jobs, &fakePublisher{}, zap.NewNop())

	_, err = handler.Handle(context.Background(), cancelCommand(job, "user-2", false))
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))

	// Admins may cancel anyone's job.
	_, err = handler.Handle(context.Background(), cancelCommand(job, "user-2", true))
	assert.NoError(t, err)
}

func TestCancelJobHandler_TerminalJobConflicts(t *testing.T) {
	jobs := newFakeJobRepo()
	job, err := entities.NewProblemExtractionJob("user-1", "https://x")
	require.NoError(t, err)
	require.NoError(t, job.MarkProcessing("w"))
	require.NoError(t, job.MarkCompleted(""))
	jobs.jobs[job.ID] = job

	handler := NewCancelJobHandler(jobs, &fakePublisher{}, zap.NewNop())

	_, err = handler.Handle(context.Background(), cancelCommand(job, "user-1", false))
	assert.True(t, apperrors.IsConflict(err))
}

func TestRetryJobHandler(t *testing.T) {
	jobs := newFakeJobRepo()
	job, err := entities.NewProblemExtractionJob("user-1", "https://x")
	require.NoError(t, err)
	require.NoError(t, job.MarkProcessing("w"))
	require.NoError(t, job.MarkFailed("llm timeout"))
	jobs.jobs[job.ID] = job
	publisher := &fakePublisher{}

	handler := NewRetryJobHandler(jobs, publisher, zap.NewNop())

	result, err := handler.Handle(context.Background(), commands.RetryJobCommand{
		Kind:   job.Kind,
		JobID:  job.ID,
		UserID: "user-1",
	})
	require.NoError(t, err)

	retried := result.(*entities.Job)
	assert.Equal(t, entities.JobStatusPending, retried.Status)
	assert.Empty(t, retried.ErrorMessage)
	assert.Equal(t, []string{events.JobRetried}, publisher.events)
}

func TestRetryJobHandler_OnlyFailedJobs(t *testing.T) {
	jobs := newFakeJobRepo()
	job, err := entities.NewProblemExtractionJob("user-1", "https://x")
	require.NoError(t, err)
	jobs.jobs[job.ID] = job

	handler := NewRetryJobHandler(jobs, &fakePublisher{}, zap.NewNop())

	_, err = handler.Handle(context.Background(), commands.RetryJobCommand{
		Kind:   job.Kind,
		JobID:  job.ID,
		UserID: "user-1",
	})
	assert.True(t, apperrors.IsConflict(err))
}
