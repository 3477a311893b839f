// Package events names the job lifecycle events published to the event bus.
package events

const (
	JobCreated   = "job.created"
	JobCompleted = "job.completed"
	JobFailed    = "job.failed"
	JobCancelled = "job.cancelled"
	JobRetried   = "job.retried"
)
