// Package store persists classified record batches to SQLite. A saved batch
// is the wholesale replacement snapshot the presentation layer reloads, keyed
// by a cache version so stale snapshots are invalidated when classification
// behavior changes.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/gridsight/siterisk-cli/internal/model"
)

// CacheVersion tags every saved batch. Bump it whenever parsing or
// classification semantics change; saving under a new version prunes batches
// written under old ones.
const CacheVersion = "v3"

// BatchKind distinguishes site batches from staging-area batches.
type BatchKind string

const (
	KindSites   BatchKind = "sites"
	KindStaging BatchKind = "staging"
)

// Batch is one persisted classification snapshot.
type Batch struct {
	ID           string          `json:"id"`
	Kind         BatchKind       `json:"kind"`
	CacheVersion string          `json:"cache_version"`
	Source       string          `json:"source"`
	RecordCount  int             `json:"record_count"`
	DroppedCount int             `json:"dropped_count"`
	Records      json.RawMessage `json:"records,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Sites decodes a sites batch payload.
func (b *Batch) Sites() ([]model.SiteRecord, error) {
	var sites []model.SiteRecord
	if err := json.Unmarshal(b.Records, &sites); err != nil {
		return nil, eris.Wrap(err, "store: decode sites batch")
	}
	return sites, nil
}

// StagingAreas decodes a staging batch payload.
func (b *Batch) StagingAreas() ([]model.StagingAreaRecord, error) {
	var areas []model.StagingAreaRecord
	if err := json.Unmarshal(b.Records, &areas); err != nil {
		return nil, eris.Wrap(err, "store: decode staging batch")
	}
	return areas, nil
}

// SQLiteStore implements batch persistence using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS batches (
	id            TEXT PRIMARY KEY,
	kind          TEXT NOT NULL,
	cache_version TEXT NOT NULL,
	source        TEXT NOT NULL,
	record_count  INTEGER NOT NULL,
	dropped_count INTEGER NOT NULL,
	records       TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_batches_kind_created ON batches(kind, created_at);
CREATE INDEX IF NOT EXISTS idx_batches_version ON batches(cache_version);
`

// Migrate creates the schema.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveSites persists a classified site batch and prunes batches written under
// older cache versions.
func (s *SQLiteStore) SaveSites(ctx context.Context, source string, sites []model.SiteRecord, dropped int) (*Batch, error) {
	records, err := json.Marshal(sites)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal sites")
	}
	return s.saveBatch(ctx, KindSites, source, records, len(sites), dropped)
}

// SaveStaging persists a staging-area batch.
func (s *SQLiteStore) SaveStaging(ctx context.Context, source string, areas []model.StagingAreaRecord, dropped int) (*Batch, error) {
	records, err := json.Marshal(areas)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal staging areas")
	}
	return s.saveBatch(ctx, KindStaging, source, records, len(areas), dropped)
}

func (s *SQLiteStore) saveBatch(ctx context.Context, kind BatchKind, source string, records []byte, count, dropped int) (*Batch, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	// Old cache versions are invalid once semantics change; drop them on save.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM batches WHERE cache_version != ?`, CacheVersion); err != nil {
		return nil, eris.Wrap(err, "sqlite: prune old cache versions")
	}

	batch := &Batch{
		ID:           uuid.New().String(),
		Kind:         kind,
		CacheVersion: CacheVersion,
		Source:       source,
		RecordCount:  count,
		DroppedCount: dropped,
		Records:      records,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO batches (id, kind, cache_version, source, record_count, dropped_count, records, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		batch.ID, string(batch.Kind), batch.CacheVersion, batch.Source,
		batch.RecordCount, batch.DroppedCount, string(batch.Records), batch.CreatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert batch")
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit batch")
	}
	return batch, nil
}

// ErrNoBatch is returned when no batch of the requested kind exists.
var ErrNoBatch = eris.New("store: no batch found")

// LatestBatch returns the most recently saved batch of the given kind under
// the current cache version.
func (s *SQLiteStore) LatestBatch(ctx context.Context, kind BatchKind) (*Batch, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, cache_version, source, record_count, dropped_count, records, created_at
		FROM batches
		WHERE kind = ? AND cache_version = ?
		ORDER BY created_at DESC
		LIMIT 1`, string(kind), CacheVersion)
	return scanBatch(row)
}

// GetBatch returns a batch by id.
func (s *SQLiteStore) GetBatch(ctx context.Context, id string) (*Batch, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, cache_version, source, record_count, dropped_count, records, created_at
		FROM batches WHERE id = ?`, id)
	return scanBatch(row)
}

// ListBatches returns batch metadata newest-first, without payloads.
func (s *SQLiteStore) ListBatches(ctx context.Context, limit int) ([]Batch, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, cache_version, source, record_count, dropped_count, created_at
		FROM batches
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list batches")
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		var b Batch
		var kind string
		if err := rows.Scan(&b.ID, &kind, &b.CacheVersion, &b.Source,
			&b.RecordCount, &b.DroppedCount, &b.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan batch row")
		}
		b.Kind = BatchKind(kind)
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate batch rows")
	}
	return batches, nil
}

func scanBatch(row *sql.Row) (*Batch, error) {
	var b Batch
	var kind, records string
	err := row.Scan(&b.ID, &kind, &b.CacheVersion, &b.Source,
		&b.RecordCount, &b.DroppedCount, &records, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNoBatch
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan batch")
	}
	b.Kind = BatchKind(kind)
	b.Records = json.RawMessage(records)
	return &b, nil
}
