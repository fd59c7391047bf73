package reconciler

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobState is the lifecycle state of one bulk import job
type JobState string

const (
	JobPending    JobState = "pending"
	JobProcessing JobState = "processing"
	JobCompleted  JobState = "completed"
	JobFailed     JobState = "failed"
)

// JobProgress is one progress observation delivered to notifiers. Delivery
// is one-way and at-least-once; no engine logic depends on it arriving.
type JobProgress struct {
	JobID     string   `json:"job_id"`
	State     JobState `json:"state"`
	Total     int64    `json:"total"`
	Processed int64    `json:"processed"`
	Error     string   `json:"error,omitempty"`
}

// ProgressNotifier observes job progress
type ProgressNotifier func(JobProgress)

// ImportJob tracks one contact batch through the
// pending → processing → completed|failed state machine. The processed
// count is monotonically increasing; a job is never rewound. Cancellation
// mid-batch is not supported: discard the job and re-run from scratch.
type ImportJob struct {
	ID        string
	CreatedAt time.Time

	mu        sync.Mutex
	state     JobState
	total     int64
	processed int64
	err       error
	notifiers []ProgressNotifier
}

// NewImportJob creates a pending job for a batch of the given size
func NewImportJob(total int64) *ImportJob {
	return &ImportJob{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		state:     JobPending,
		total:     total,
	}
}

// AddNotifier registers a progress observer
func (j *ImportJob) AddNotifier(notifier ProgressNotifier) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.notifiers = append(j.notifiers, notifier)
}

// State returns the current job state
func (j *ImportJob) State() JobState {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Processed returns the current processed count
func (j *ImportJob) Processed() int64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.processed
}

// Start moves the job from pending to processing
func (j *ImportJob) Start() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.state != JobPending {
		return fmt.Errorf("job %s cannot start from state %s", j.ID, j.state)
	}
	j.state = JobProcessing
	j.notifyLocked()
	return nil
}

// Advance increments the processed count and notifies observers
func (j *ImportJob) Advance(delta int64) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.processed += delta
	j.notifyLocked()
}

// Complete moves the job to completed
func (j *ImportJob) Complete() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.state != JobProcessing {
		return fmt.Errorf("job %s cannot complete from state %s", j.ID, j.state)
	}
	j.state = JobCompleted
	j.notifyLocked()
	return nil
}

// Fail moves the job to failed, recording the cause
func (j *ImportJob) Fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.state = JobFailed
	j.err = err
	j.notifyLocked()
}

// Snapshot returns the current progress observation
func (j *ImportJob) Snapshot() JobProgress {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.snapshotLocked()
}

func (j *ImportJob) snapshotLocked() JobProgress {
	progress := JobProgress{
		JobID:     j.ID,
		State:     j.state,
		Total:     j.total,
		Processed: j.processed,
	}
	if j.err != nil {
		progress.Error = j.err.Error()
	}
	return progress
}

func (j *ImportJob) notifyLocked() {
	progress := j.snapshotLocked()
	for _, notify := range j.notifiers {
		notify(progress)
	}
}
