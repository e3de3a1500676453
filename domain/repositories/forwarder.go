package repositories

import (
	"context"

	"github.com/satriahrh/voxrelay/domain/entities"
)

// Forwarder pushes an enriched result to an external observability channel.
// Best-effort: callers log and discard the returned error.
type Forwarder interface {
	Forward(ctx context.Context, result *entities.EnrichedResult) error
}
