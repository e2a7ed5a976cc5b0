// internal/domain/summary/snapshot.go
package summary

import (
	"time"

	"feedback_portal/internal/domain/summaryjob"
)

// PlaceholderBullet is stored in both lists when a target has no eligible feedback.
const PlaceholderBullet = "No feedback available."

// Snapshot is the latest generated summary of one target.
// The bullet lists are authoritative; HTML is derived from them on read.
type Snapshot struct {
	Kind       summaryjob.Kind
	Target     string
	Positive   []string
	Actionable []string
	UpdatedAt  time.Time

	// Legacy HTML columns. Only consulted when the bullet lists are empty
	// and legacy reading is enabled.
	LegacyPositiveHTML   string
	LegacyActionableHTML string
}

// NewPlaceholder returns the snapshot written for a target with nothing to summarize.
func NewPlaceholder(kind summaryjob.Kind, target string) *Snapshot {
	return &Snapshot{
		Kind:       kind,
		Target:     target,
		Positive:   []string{PlaceholderBullet},
		Actionable: []string{PlaceholderBullet},
	}
}

func (s *Snapshot) Key() summaryjob.Key {
	return summaryjob.Key{Kind: s.Kind, Target: s.Target}
}

// Clone returns a deep copy so callers can merge without touching stored state.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := *s
	c.Positive = append([]string(nil), s.Positive...)
	c.Actionable = append([]string(nil), s.Actionable...)
	return &c
}

// IsPlaceholder reports whether the snapshot holds only the "no feedback" marker.
func (s *Snapshot) IsPlaceholder() bool {
	return len(s.Positive) == 1 && s.Positive[0] == PlaceholderBullet &&
		len(s.Actionable) == 1 && s.Actionable[0] == PlaceholderBullet
}

func (s *Snapshot) PositiveHTML() string {
	return RenderBullets(s.Positive)
}

func (s *Snapshot) ActionableHTML() string {
	return RenderBullets(s.Actionable)
}

// ResolveLegacy fills empty bullet lists from the legacy HTML columns.
func (s *Snapshot) ResolveLegacy() {
	if len(s.Positive) == 0 && s.LegacyPositiveHTML != "" {
		s.Positive = ExtractBullets(s.LegacyPositiveHTML)
	}
	if len(s.Actionable) == 0 && s.LegacyActionableHTML != "" {
		s.Actionable = ExtractBullets(s.LegacyActionableHTML)
	}
}
