package video

import (
	"time"

	"github.com/google/uuid"

	"github.com/edulga/websearch/internal/engine"
)

// JobState tracks a transcription job through its lifecycle. Transitions are
// strictly forward; a terminal state never changes.
type JobState string

const (
	JobCreated    JobState = "created"
	JobUploaded   JobState = "uploaded"
	JobSubmitted  JobState = "submitted"
	JobProcessing JobState = "processing"
	JobCompleted  JobState = "completed"
	JobFailed     JobState = "failed"
	JobTimedOut   JobState = "timed_out"
)

// Terminal reports whether the state admits no further transitions.
func (s JobState) Terminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobTimedOut
}

var allowedTransitions = map[JobState][]JobState{
	JobCreated:    {JobUploaded, JobFailed, JobTimedOut},
	JobUploaded:   {JobSubmitted, JobFailed, JobTimedOut},
	JobSubmitted:  {JobProcessing, JobCompleted, JobFailed, JobTimedOut},
	JobProcessing: {JobCompleted, JobFailed, JobTimedOut},
}

// Job is one transcription attempt for a single video.
type Job struct {
	ID         string
	RemoteID   string // transcript ID assigned by the transcription service
	State      JobState
	StartedAt  time.Time
	LastPollAt time.Time
	Attempts   int
}

func newJob() *Job {
	return &Job{
		ID:        uuid.NewString(),
		State:     JobCreated,
		StartedAt: time.Now(),
	}
}

// advance moves the job to next if the transition is legal. Illegal
// transitions, including any move out of a terminal state, are rejected.
func (j *Job) advance(next JobState) error {
	for _, s := range allowedTransitions[j.State] {
		if s == next {
			j.State = next
			return nil
		}
	}
	return engine.Errf(engine.KindInternal, "transcribe",
		"illegal job transition %s -> %s", j.State, next)
}
