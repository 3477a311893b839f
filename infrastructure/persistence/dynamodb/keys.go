package dynamodb

import (
	"fmt"
	"time"

	"algoitny-backend/domain/entities"
	"algoitny-backend/domain/valueobjects"
	"algoitny-backend/pkg/utils"
)

// Single-table key layout. Every item type gets its own PK/SK shape; the
// two GSIs carry user/email lookups (GSI1) and the sparse job-status index
// (GSI2).
const (
	skMetadata = "METADATA"
	skProfile  = "PROFILE"
	skLock     = "LOCK"

	problemListPartition = "PROBLEM" // GSI1 partition holding every problem for global listing
)

// Retention windows applied through DynamoDB TTL.
const (
	progressRetention = 30 * 24 * time.Hour
	historyRetention  = 90 * 24 * time.Hour
	usageRetention    = 24 * time.Hour
)

func problemPK(key valueobjects.ProblemKey) string {
	return fmt.Sprintf("PROB#%s#%s", key.Platform(), key.ProblemID())
}

// testCaseSK zero-pads the index so items sort numerically within the
// problem partition.
func testCaseSK(index int) string {
	return fmt.Sprintf("TC#%05d", index)
}

const testCaseSKPrefix = "TC#"

func jobKindCode(kind entities.JobKind) string {
	if kind == entities.JobKindProblemExtraction {
		return "PX"
	}
	return "SG"
}

func jobKindFromCode(code string) entities.JobKind {
	if code == "PX" {
		return entities.JobKindProblemExtraction
	}
	return entities.JobKindScriptGeneration
}

func jobPK(kind entities.JobKind, jobID string) string {
	return fmt.Sprintf("JOB#%s#%s", jobKindCode(kind), jobID)
}

func jobStatusPK(status entities.JobStatus) string {
	return fmt.Sprintf("JOBSTATUS#%s", status)
}

func jobStatusSK(createdAt time.Time, jobID string) string {
	return fmt.Sprintf("%s#%s", utils.FormatRFC3339(createdAt), jobID)
}

func userPK(userID string) string {
	return fmt.Sprintf("USER#%s", userID)
}

func emailGSI1PK(email string) string {
	return fmt.Sprintf("EMAIL#%s", email)
}

func userJobGSI1SK(createdAt time.Time, jobID string) string {
	return fmt.Sprintf("JOB#%s#%s", utils.FormatRFC3339(createdAt), jobID)
}

func progressSK(createdAt time.Time, seq int) string {
	return fmt.Sprintf("PROGRESS#%s#%03d", createdAt.UTC().Format(time.RFC3339Nano), seq)
}

const progressSKPrefix = "PROGRESS#"

func historySK(createdAt time.Time, id string) string {
	return fmt.Sprintf("HIST#%s#%s", utils.FormatRFC3339(createdAt), id)
}

const historySKPrefix = "HIST#"

func usageSK(action string, createdAt time.Time) string {
	return fmt.Sprintf("USAGE#%s#%s", action, createdAt.UTC().Format(time.RFC3339Nano))
}

func usageSKPrefix(action string) string {
	return fmt.Sprintf("USAGE#%s#", action)
}

func lockPK(resource string) string {
	return fmt.Sprintf("LOCK#%s", resource)
}

func ttlAfter(from time.Time, retention time.Duration) int64 {
	return from.Add(retention).Unix()
}
