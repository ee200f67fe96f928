// Package db stores the history of published snapshots in sqlite so the CLI
// can show the last known installations without rescanning.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/quantmind-br/jdkinfo/internal/core"
	_ "modernc.org/sqlite"
)

var (
	// ErrNoSnapshots is returned when the history is empty
	ErrNoSnapshots = errors.New("no snapshots recorded")

	// ErrUnavailable wraps every failure to open the database
	ErrUnavailable = errors.New("history database unavailable")
)

// DB represents the database with separate read/write pools
type DB struct {
	write *sql.DB
	read  *sql.DB
	path  string
}

// SnapshotSummary is one row of the snapshot history
type SnapshotSummary struct {
	ID          int64
	Seq         uint64
	TakenAt     time.Time
	DefaultPath string
	Count       int
}

// New opens (or creates) the database at dbPath
func New(ctx context.Context, dbPath string) (*DB, error) {
	connStr := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dbPath)

	// Write pool: MUST be 1 connection only
	write, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("%w: open write connection: %w", ErrUnavailable, err)
	}
	write.SetMaxOpenConns(1)
	write.SetMaxIdleConns(1)
	write.SetConnMaxIdleTime(time.Minute)
	write.SetConnMaxLifetime(time.Hour)

	read, err := sql.Open("sqlite", connStr)
	if err != nil {
		write.Close()
		return nil, fmt.Errorf("%w: open read connection: %w", ErrUnavailable, err)
	}
	read.SetMaxOpenConns(4)
	read.SetMaxIdleConns(2)
	read.SetConnMaxIdleTime(time.Minute)
	read.SetConnMaxLifetime(time.Hour)

	db := &DB{write: write, read: read, path: dbPath}

	if err := db.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: init schema: %w", ErrUnavailable, err)
	}

	return db, nil
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// Ping checks both pools
func (db *DB) Ping(ctx context.Context) error {
	if err := db.write.PingContext(ctx); err != nil {
		return err
	}
	return db.read.PingContext(ctx)
}

// Close closes both database connections
func (db *DB) Close() error {
	writeErr := db.write.Close()
	readErr := db.read.Close()
	if writeErr != nil {
		return writeErr
	}
	return readErr
}

func (db *DB) initSchema(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS snapshots (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    seq INTEGER NOT NULL,
    taken_at TEXT NOT NULL,
    default_path TEXT,
    install_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS installations (
    snapshot_id INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    path TEXT NOT NULL,
    version TEXT NOT NULL,
    build INTEGER NOT NULL,
    arch TEXT NOT NULL,
    vendor TEXT,
    is_default INTEGER NOT NULL,
    executables TEXT,
    metadata TEXT,
    PRIMARY KEY (snapshot_id, position)
);

CREATE INDEX IF NOT EXISTS idx_installations_path ON installations(path);
	`

	if _, err := db.write.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// SaveSnapshot records snap and its installations in one transaction
func (db *DB) SaveSnapshot(ctx context.Context, snap core.Snapshot) (int64, error) {
	tx, err := db.write.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (seq, taken_at, default_path, install_count) VALUES (?, ?, ?, ?)`,
		int64(snap.Seq), snap.TakenAt.UTC().Format(time.RFC3339Nano), snap.DefaultPath, len(snap.Installations),
	)
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("snapshot id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO installations (snapshot_id, position, path, version, build, arch, vendor, is_default, executables, metadata)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare installation insert: %w", err)
	}
	defer stmt.Close()

	for i, inst := range snap.Installations {
		executables, err := json.Marshal(inst.Executables)
		if err != nil {
			return 0, fmt.Errorf("marshal executables: %w", err)
		}
		metadata, err := json.Marshal(inst.Metadata)
		if err != nil {
			return 0, fmt.Errorf("marshal metadata: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, id, i, inst.Path, inst.Version.String(), inst.Build, inst.Arch,
			inst.Vendor, inst.IsDefault, string(executables), string(metadata)); err != nil {
			return 0, fmt.Errorf("insert installation %s: %w", inst.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit snapshot: %w", err)
	}
	return id, nil
}

// Latest returns the most recently saved snapshot
func (db *DB) Latest(ctx context.Context) (*core.Snapshot, error) {
	var id int64
	err := db.read.QueryRowContext(ctx, `SELECT id FROM snapshots ORDER BY id DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshots
	}
	if err != nil {
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}
	return db.Snapshot(ctx, id)
}

// Snapshot loads one snapshot with its installations
func (db *DB) Snapshot(ctx context.Context, id int64) (*core.Snapshot, error) {
	var (
		snap    core.Snapshot
		seq     int64
		takenAt string
		defPath sql.NullString
	)
	err := db.read.QueryRowContext(ctx,
		`SELECT seq, taken_at, default_path FROM snapshots WHERE id = ?`, id,
	).Scan(&seq, &takenAt, &defPath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}

	snap.Seq = uint64(seq)
	snap.DefaultPath = defPath.String
	if snap.TakenAt, err = time.Parse(time.RFC3339Nano, takenAt); err != nil {
		return nil, fmt.Errorf("parse snapshot time: %w", err)
	}

	rows, err := db.read.QueryContext(ctx, `
SELECT path, version, build, arch, vendor, is_default, executables, metadata
FROM installations WHERE snapshot_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("query installations: %w", err)
	}
	defer rows.Close()

	snap.Installations = []core.Installation{}
	for rows.Next() {
		var (
			inst        core.Installation
			version     string
			vendor      sql.NullString
			executables sql.NullString
			metadata    sql.NullString
		)
		if err := rows.Scan(&inst.Path, &version, &inst.Build, &inst.Arch, &vendor, &inst.IsDefault, &executables, &metadata); err != nil {
			return nil, fmt.Errorf("scan installation: %w", err)
		}
		if inst.Version, err = core.ParseVersion(version); err != nil {
			return nil, fmt.Errorf("parse stored version %q: %w", version, err)
		}
		inst.Vendor = vendor.String
		if err := unmarshalMap(executables, &inst.Executables); err != nil {
			return nil, fmt.Errorf("unmarshal executables: %w", err)
		}
		if err := unmarshalMap(metadata, &inst.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
		snap.Installations = append(snap.Installations, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return &snap, nil
}

// ListSnapshots returns up to limit summaries, newest first
func (db *DB) ListSnapshots(ctx context.Context, limit int) ([]SnapshotSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.read.QueryContext(ctx, `
SELECT id, seq, taken_at, default_path, install_count
FROM snapshots ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []SnapshotSummary
	for rows.Next() {
		var (
			s       SnapshotSummary
			seq     int64
			takenAt string
			defPath sql.NullString
		)
		if err := rows.Scan(&s.ID, &seq, &takenAt, &defPath, &s.Count); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		s.Seq = uint64(seq)
		s.DefaultPath = defPath.String
		if s.TakenAt, err = time.Parse(time.RFC3339Nano, takenAt); err != nil {
			return nil, fmt.Errorf("parse snapshot time: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

// Prune deletes all but the newest keep snapshots and reports how many went
func (db *DB) Prune(ctx context.Context, keep int) (int64, error) {
	res, err := db.write.ExecContext(ctx, `
DELETE FROM snapshots WHERE id NOT IN (SELECT id FROM snapshots ORDER BY id DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check rows affected: %w", err)
	}
	return n, nil
}

func unmarshalMap(raw sql.NullString, dst *map[string]string) error {
	if !raw.Valid || raw.String == "" || raw.String == "null" {
		return nil
	}
	return json.Unmarshal([]byte(raw.String), dst)
}
