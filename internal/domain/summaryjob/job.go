// internal/domain/summaryjob/job.go
package summaryjob

import (
	"database/sql"
	"time"
)

// Kind says which summary store a job regenerates.
type Kind string

const (
	KindTeacher  Kind = "teacher"
	KindCategory Kind = "category"
)

// Valid reports whether k names a known summary store.
func (k Kind) Valid() bool {
	return k == KindTeacher || k == KindCategory
}

// Status is the lifecycle state of a queued job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
	StatusFailed     Status = "failed"
)

// Key identifies a summary target. Target is opaque to the queue.
type Key struct {
	Kind   Kind
	Target string
}

func (k Key) String() string {
	return string(k.Kind) + ":" + k.Target
}

// Job is one request to regenerate the summary of a target.
type Job struct {
	ID         int64
	Kind       Kind
	Target     string
	FeedbackID sql.NullInt64 // NULL for replacement jobs created after a feedback delete
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (j *Job) Key() Key {
	return Key{Kind: j.Kind, Target: j.Target}
}
