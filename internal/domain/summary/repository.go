package summary

import (
	"context"

	"feedback_portal/internal/domain/summaryjob"
)

// Repository stores at most one snapshot per (kind, target).
type Repository interface {
	Get(ctx context.Context, kind summaryjob.Kind, target string) (*Snapshot, error)
	// Upsert replaces the stored snapshot for the key wholesale.
	Upsert(ctx context.Context, s *Snapshot) error
	List(ctx context.Context, kind summaryjob.Kind) ([]*Snapshot, error)
}
