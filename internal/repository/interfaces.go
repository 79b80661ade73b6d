package repository

import (
	"context"
	"errors"

	"github.com/segyhp/debt-engine/internal/domain"
)

// ErrSnapshotNotFound is returned by Load when nothing was stored yet.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotRepository defines the interface for snapshot persistence.
// The whole snapshot is written on every save; there are no partial updates.
type SnapshotRepository interface {
	// Load retrieves the stored snapshot or ErrSnapshotNotFound
	Load(ctx context.Context) (*domain.Snapshot, error)

	// Save replaces the stored snapshot
	Save(ctx context.Context, snapshot *domain.Snapshot) error

	// Ping checks the backing store is reachable
	Ping(ctx context.Context) error

	// Close releases the underlying connection
	Close() error
}
