package repositories

import (
	"context"

	"github.com/satriahrh/voxrelay/domain/entities"
)

// OverrideRepository is the durable session -> priority mapping. Every lookup
// round-trips to the store; no client-side caching.
type OverrideRepository interface {
	// GetPriority returns the override for a session, and whether one exists.
	GetPriority(ctx context.Context, sessionID string) (int, bool, error)
	// SetPriority upserts an override. Last write wins.
	SetPriority(ctx context.Context, sessionID string, priority int, ts float64) error
	// List returns all overrides, for the status endpoint.
	List(ctx context.Context) ([]entities.PriorityOverride, error)
}

// LogRepository appends one durable record per processed segment. Writes are
// independent, never batched.
type LogRepository interface {
	Append(ctx context.Context, record *entities.LogRecord) error
}
