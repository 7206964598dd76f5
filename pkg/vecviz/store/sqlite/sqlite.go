package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/vecviz/pkg/vecviz/dataset"
	"github.com/cognicore/vecviz/pkg/vecviz/internalerr"
	"github.com/cognicore/vecviz/pkg/vecviz/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db  *sql.DB
	ids *store.IDGenerator
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, internalerr.ErrStoreUnavailable)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%v: %w", err, internalerr.ErrStoreUnavailable)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db, ids: store.NewIDGenerator()}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS builds (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	model_path TEXT,
	tokens INTEGER NOT NULL,
	clusters INTEGER NOT NULL,
	skipped_pairs INTEGER NOT NULL DEFAULT 0,
	dataset TEXT NOT NULL
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

func (s *sqliteStore) SaveBuild(ctx context.Context, b store.Build, ds *dataset.Dataset) (store.Build, error) {
	if ds == nil {
		return store.Build{}, fmt.Errorf("save build: nil dataset: %w", internalerr.ErrInvalidInput)
	}
	raw, err := json.Marshal(ds)
	if err != nil {
		return store.Build{}, err
	}
	b = b.Complete(ds, s.ids)

	const stmt = `
INSERT INTO builds (id, created_at, model_path, tokens, clusters, skipped_pairs, dataset)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	created_at=excluded.created_at,
	model_path=excluded.model_path,
	tokens=excluded.tokens,
	clusters=excluded.clusters,
	skipped_pairs=excluded.skipped_pairs,
	dataset=excluded.dataset;
`
	_, err = s.db.ExecContext(ctx, stmt,
		b.ID,
		b.CreatedAt.Format(time.RFC3339Nano),
		b.ModelPath,
		b.Tokens,
		b.Clusters,
		b.SkippedPairs,
		string(raw),
	)
	if err != nil {
		return store.Build{}, err
	}
	return b, nil
}

func (s *sqliteStore) GetBuild(ctx context.Context, id string) (store.Build, *dataset.Dataset, error) {
	row := s.db.QueryRowContext(ctx, selectBuild+` WHERE id = ?`, id)
	return scanBuild(row, id)
}

func (s *sqliteStore) LatestBuild(ctx context.Context) (store.Build, *dataset.Dataset, error) {
	row := s.db.QueryRowContext(ctx, selectBuild+` ORDER BY id DESC LIMIT 1`)
	return scanBuild(row, "latest")
}

func (s *sqliteStore) ListBuilds(ctx context.Context, limit int) ([]store.Build, error) {
	query := `SELECT id, created_at, model_path, tokens, clusters, skipped_pairs FROM builds ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Build
	for rows.Next() {
		var (
			b       store.Build
			created string
			model   sql.NullString
		)
		if err := rows.Scan(&b.ID, &created, &model, &b.Tokens, &b.Clusters, &b.SkippedPairs); err != nil {
			return nil, err
		}
		if b.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("build %s: bad created_at: %w", b.ID, err)
		}
		b.ModelPath = model.String
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *sqliteStore) DeleteBuild(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM builds WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("build %s: %w", id, internalerr.ErrNotFound)
	}
	return nil
}

const selectBuild = `SELECT id, created_at, model_path, tokens, clusters, skipped_pairs, dataset FROM builds`

func scanBuild(row *sql.Row, what string) (store.Build, *dataset.Dataset, error) {
	var (
		b       store.Build
		created string
		model   sql.NullString
		raw     string
	)
	err := row.Scan(&b.ID, &created, &model, &b.Tokens, &b.Clusters, &b.SkippedPairs, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Build{}, nil, fmt.Errorf("build %s: %w", what, internalerr.ErrNotFound)
	}
	if err != nil {
		return store.Build{}, nil, err
	}
	if b.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return store.Build{}, nil, fmt.Errorf("build %s: bad created_at: %w", b.ID, err)
	}
	b.ModelPath = model.String

	var ds dataset.Dataset
	if err := json.Unmarshal([]byte(raw), &ds); err != nil {
		return store.Build{}, nil, fmt.Errorf("build %s: decode dataset: %w", b.ID, err)
	}
	return b, &ds, nil
}
