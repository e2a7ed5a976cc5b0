package feedback

import (
	"database/sql"
	"strconv"
	"time"

	"feedback_portal/internal/domain/summaryjob"
)

// Status is the moderation state of a submission.
type Status string

const (
	StatusNew       Status = "New"
	StatusApproved  Status = "Approved"
	StatusEscalated Status = "Screened - Escalation"
	StatusRetracted Status = "Retracted by Admin"
)

// CategoryTeacher is the category value for feedback about a specific teacher.
const CategoryTeacher = "teacher"

// Feedback is a single student submission.
type Feedback struct {
	ID                int64
	TeacherID         sql.NullInt64 // set only when Category is "teacher"
	Category          string
	Text              string
	ToxicityScore     float64
	IsInappropriate   bool
	Status            Status
	IsSummaryApproved bool
	Ratings           Ratings
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Ratings are the optional 1-5 scores a student can attach.
type Ratings struct {
	Clarity   sql.NullInt32
	Pacing    sql.NullInt32
	Resources sql.NullInt32
	Support   sql.NullInt32
}

// SummaryKey is the summary target this feedback contributes to.
func (f *Feedback) SummaryKey() summaryjob.Key {
	if f.Category == CategoryTeacher && f.TeacherID.Valid {
		return summaryjob.Key{Kind: summaryjob.KindTeacher, Target: strconv.FormatInt(f.TeacherID.Int64, 10)}
	}
	return summaryjob.Key{Kind: summaryjob.KindCategory, Target: f.Category}
}

// Eligible reports whether the text may be fed into a summary.
func (f *Feedback) Eligible() bool {
	return !f.IsInappropriate && f.IsSummaryApproved
}

// StatusChange is one row of the moderation history.
type StatusChange struct {
	ID         int64
	FeedbackID int64
	OldStatus  Status
	NewStatus  Status
	ChangedBy  string
	Reason     string
	CreatedAt  time.Time
}
