package repository

import (
	"encoding/json"
	"fmt"

	"github.com/segyhp/debt-engine/internal/domain"
)

// MaxSnapshotBytes is the largest serialized snapshot any backend accepts.
const MaxSnapshotBytes = 5 * 1024 * 1024

// ErrSnapshotTooLarge reports a document above MaxSnapshotBytes.
type ErrSnapshotTooLarge struct {
	Size int
}

func (e *ErrSnapshotTooLarge) Error() string {
	return fmt.Sprintf("serialized snapshot is %d bytes, limit is %d", e.Size, MaxSnapshotBytes)
}

// Encode serializes a snapshot and enforces the size ceiling.
func Encode(snapshot *domain.Snapshot) ([]byte, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize snapshot: %w", err)
	}
	if len(data) > MaxSnapshotBytes {
		return nil, &ErrSnapshotTooLarge{Size: len(data)}
	}
	return data, nil
}

// Decode parses a stored snapshot document.
func Decode(data []byte) (*domain.Snapshot, error) {
	var snapshot domain.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snapshot, nil
}
