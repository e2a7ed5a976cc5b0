package digest

import (
	"context"
	"time"
)

// Digest is the school-wide summary of one calendar month.
type Digest struct {
	MonthKey      string // YYYY-MM
	StartDate     time.Time
	EndDate       time.Time
	GeneratedAt   time.Time
	Positive      []string
	Actionable    []string
	FeedbackCount int
}

// MonthKey formats the month containing t.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// MonthBounds returns the first day of t's month and the first day of the next one.
func MonthBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}

// IsLastDayOfMonth reports whether t falls on the final day of its month.
func IsLastDayOfMonth(t time.Time) bool {
	return t.AddDate(0, 0, 1).Month() != t.Month()
}

type Repository interface {
	Get(ctx context.Context, monthKey string) (*Digest, error)
	Create(ctx context.Context, d *Digest) error
	ListRecent(ctx context.Context, limit int) ([]*Digest, error)
}
