// Package store persists product state snapshots in SQLite so that a
// model's appearance survives reloads.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"go.uber.org/zap"

	"github.com/Faultbox/xviewer/internal/engine/errs"
	"github.com/Faultbox/xviewer/internal/engine/state"
	"github.com/Faultbox/xviewer/internal/logger"
)

//go:embed schema.sql
var schema string

// Record is one stored snapshot.
type Record struct {
	ID        uuid.UUID
	Name      string
	ModelKey  string
	Products  int
	CreatedAt time.Time
	Snapshot  state.Snapshot
}

// Store is a snapshot database.
type Store struct {
	db  *sql.DB
	now func() time.Time
	log *zap.Logger
}

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir store dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?mode=rwc&_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	s := &Store{db: db, now: time.Now, log: logger.Named("store")}
	s.log.Debug("store opened", zap.String("path", path))
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Save stores snap under name for the model identified by modelKey.
func (s *Store) Save(ctx context.Context, name, modelKey string, snap state.Snapshot) (uuid.UUID, error) {
	data, err := snap.MarshalBinary()
	if err != nil {
		return uuid.Nil, fmt.Errorf("encode snapshot: %w", err)
	}
	id := uuid.New()
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO snapshots (id, name, model_key, products, created_at, data)
        VALUES (?, ?, ?, ?, ?, ?)
    `, id.String(), name, modelKey, snap.Products, s.now().UnixNano(), data)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert snapshot: %w", err)
	}
	s.log.Info("snapshot saved",
		zap.String("id", id.String()),
		zap.String("name", name),
		zap.String("model", modelKey),
		zap.Int("entries", len(snap.Entries)))
	return id, nil
}

const columns = `id, name, model_key, products, created_at, data`

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (Record, error) {
	var (
		rec     Record
		id      string
		created int64
		data    []byte
	)
	if err := row.Scan(&id, &rec.Name, &rec.ModelKey, &rec.Products, &created, &data); err != nil {
		return Record{}, err
	}
	var err error
	if rec.ID, err = uuid.Parse(id); err != nil {
		return Record{}, fmt.Errorf("snapshot id %q: %w", id, err)
	}
	rec.CreatedAt = time.Unix(0, created)
	if err := rec.Snapshot.UnmarshalBinary(data); err != nil {
		return Record{}, fmt.Errorf("snapshot %s: %w", id, err)
	}
	return rec, nil
}

// Load returns the snapshot with the given ID.
func (s *Store) Load(ctx context.Context, id uuid.UUID) (Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM snapshots WHERE id = ?`, id.String())
	rec, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("snapshot %s: %w", id, errs.ErrNotFound)
	}
	return rec, err
}

// Latest returns the newest snapshot of modelKey.
func (s *Store) Latest(ctx context.Context, modelKey string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT `+columns+` FROM snapshots
        WHERE model_key = ?
        ORDER BY created_at DESC, rowid DESC
        LIMIT 1
    `, modelKey)
	rec, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("no snapshot for %q: %w", modelKey, errs.ErrNotFound)
	}
	return rec, err
}

// List returns the snapshots of modelKey, newest first. An empty key lists
// every snapshot.
func (s *Store) List(ctx context.Context, modelKey string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT `+columns+` FROM snapshots
        WHERE ? = '' OR model_key = ?
        ORDER BY created_at DESC, rowid DESC
    `, modelKey, modelKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Delete removes a snapshot.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("snapshot %s: %w", id, errs.ErrNotFound)
	}
	return nil
}
