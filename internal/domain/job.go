package domain

import "time"

// JobState tracks a conversion job through its lifecycle. Every terminal
// state guarantees removal of the job's input file.
type JobState string

const (
	JobReceived     JobState = "received"
	JobValidated    JobState = "validated"
	JobPersisted    JobState = "persisted"
	JobConverting   JobState = "converting"
	JobVerified     JobState = "verified"
	JobCompleted    JobState = "completed"
	JobRejected     JobState = "rejected"
	JobQuotaBlocked JobState = "quota_blocked"
	JobTimedOut     JobState = "timed_out"
	JobFailed       JobState = "failed"
	JobNoOutput     JobState = "output_missing"
)

// Job records one conversion attempt from upload to terminal state.
type Job struct {
	ID           string
	SessionKey   string
	ModeID       string
	OriginalName string
	InputPath    string
	OutputPath   string
	State        JobState
	StartedAt    time.Time
}
