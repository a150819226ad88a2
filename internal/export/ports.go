// Package export defines the outbound port for mirroring a user's expense
// collection to an external destination.
package export

import (
	"context"

	"kharcha/internal/core"
)

// SnapshotWriter replaces the destination's content for a user with the
// given collection. Implementations must be idempotent: writing the same
// snapshot twice leaves the destination unchanged.
type SnapshotWriter interface {
	WriteSnapshot(ctx context.Context, userID string, expenses []core.Expense) error
}
