package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/segyhp/debt-engine/internal/domain"
)

const snapshotSchema = `
	CREATE TABLE IF NOT EXISTS snapshots (
		snapshot_key TEXT PRIMARY KEY,
		data         TEXT NOT NULL,
		updated_at   TIMESTAMP NOT NULL
	)
`

type snapshotRepository struct {
	db  *sqlx.DB
	key string
}

// NewSnapshotRepository stores the snapshot as one row keyed by key. The same
// SQL serves postgres and sqlite; placeholders are rebound per driver.
func NewSnapshotRepository(ctx context.Context, db *sqlx.DB, key string) (SnapshotRepository, error) {
	if _, err := db.ExecContext(ctx, snapshotSchema); err != nil {
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}
	return &snapshotRepository{db: db, key: key}, nil
}

// OpenPostgres connects to postgres via lib/pq.
func OpenPostgres(url string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("could not connect to postgres: %w", err)
	}
	return db, nil
}

// OpenSQLite opens a sqlite database file (or ":memory:").
func OpenSQLite(path string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("could not open sqlite database: %w", err)
	}
	// sqlite allows one writer; a single connection also keeps ":memory:" shared
	db.SetMaxOpenConns(1)
	return db, nil
}

func (r *snapshotRepository) Load(ctx context.Context) (*domain.Snapshot, error) {
	query := r.db.Rebind(`
		SELECT data
		FROM snapshots
		WHERE snapshot_key = ?
	`)

	var data string
	err := r.db.GetContext(ctx, &data, query, r.key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}

	return Decode([]byte(data))
}

func (r *snapshotRepository) Save(ctx context.Context, snapshot *domain.Snapshot) error {
	data, err := Encode(snapshot)
	if err != nil {
		return err
	}

	query := r.db.Rebind(`
		INSERT INTO snapshots (snapshot_key, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (snapshot_key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`)

	_, err = r.db.ExecContext(ctx, query, r.key, string(data), time.Now().UTC())
	return err
}

func (r *snapshotRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *snapshotRepository) Close() error {
	return r.db.Close()
}
