// Package sqlite provides a SQLite-backed persistent store that mirrors the
// in-memory semantics while snapshotting state to a local database file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"quiltcore/internal/infra/persistence/memory"
	"quiltcore/pkg/design"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Compile-time contract assertion ensuring the store satisfies the design interface.
var _ design.PersistentStore = (*Store)(nil)

const defaultPath = "quiltcore.db"

// Buckets are written individually so partial reads stay cheap and the schema
// version survives alongside the documents it describes.
var sqliteBuckets = []string{"meta", "blocks", "patterns"}

type metaPayload struct {
	SchemaVersion int `json:"schema_version"`
}

// Store persists state to SQLite while reusing the in-memory implementation for
// transactions and rule evaluation.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens a SQLite-backed store at the provided path (falls back to
// quiltcore.db in the working directory). It ensures the snapshot table exists
// and hydrates the in-memory store from any previously persisted state,
// migrating documents written under older schema versions forward.
func NewStore(path string, engine *design.RulesEngine) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	ctx := context.Background()
	if err := ensureStateTable(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	snapshot, err := loadSnapshot(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	mem := memory.NewStore(engine)
	mem.ImportState(snapshot)
	return &Store{Store: mem, db: db, path: path}, nil
}

// RunInTransaction applies the provided function within a transaction, then
// snapshots to disk if successful.
func (s *Store) RunInTransaction(ctx context.Context, fn func(design.Transaction) error) (design.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	if err := s.persist(ctx); err != nil {
		return res, err
	}
	return res, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the database file location backing this store.
func (s *Store) Path() string { return s.path }

// Close releases the database handle. State is already durable because persist
// runs after every successful transaction.
func (s *Store) Close() error { return s.db.Close() }

func ensureStateTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure state table: %w", err)
	}
	return nil
}

func loadSnapshot(ctx context.Context, db *sql.DB) (memory.Snapshot, error) {
	rows, err := db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return memory.Snapshot{}, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snapshot memory.Snapshot
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return memory.Snapshot{}, fmt.Errorf("scan state: %w", err)
		}
		if len(payload) == 0 {
			continue
		}
		switch bucket {
		case "meta":
			var meta metaPayload
			if err := json.Unmarshal(payload, &meta); err != nil {
				return memory.Snapshot{}, fmt.Errorf("decode meta: %w", err)
			}
			snapshot.SchemaVersion = meta.SchemaVersion
		case "blocks":
			if err := json.Unmarshal(payload, &snapshot.Blocks); err != nil {
				return memory.Snapshot{}, fmt.Errorf("decode blocks: %w", err)
			}
		case "patterns":
			if err := json.Unmarshal(payload, &snapshot.Patterns); err != nil {
				return memory.Snapshot{}, fmt.Errorf("decode patterns: %w", err)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return memory.Snapshot{}, fmt.Errorf("iterate state: %w", err)
	}
	return snapshot, nil
}

func (s *Store) persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range sqliteBuckets {
		var data []byte
		switch bucket {
		case "meta":
			data, err = json.Marshal(metaPayload{SchemaVersion: snapshot.SchemaVersion})
		case "blocks":
			data, err = json.Marshal(snapshot.Blocks)
		case "patterns":
			data, err = json.Marshal(snapshot.Patterns)
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}
