package repository

import (
	"context"
	"sync"

	"github.com/segyhp/debt-engine/internal/domain"
)

// MemoryRepository keeps the encoded snapshot in memory. Saves still go
// through Encode so size limits behave like the durable backends.
type MemoryRepository struct {
	mu   sync.Mutex
	data []byte
	err  error
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// WithError makes every subsequent Save fail with err.
func (r *MemoryRepository) WithError(err error) *MemoryRepository {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
	return r
}

func (r *MemoryRepository) Load(ctx context.Context) (*domain.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.data == nil {
		return nil, ErrSnapshotNotFound
	}
	return Decode(r.data)
}

func (r *MemoryRepository) Save(ctx context.Context, snapshot *domain.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}
	data, err := Encode(snapshot)
	if err != nil {
		return err
	}
	r.data = data
	return nil
}

func (r *MemoryRepository) Ping(ctx context.Context) error {
	return nil
}

func (r *MemoryRepository) Close() error {
	return nil
}

// Raw returns the last stored document.
func (r *MemoryRepository) Raw() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data
}
