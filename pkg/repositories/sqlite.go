package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/resistance-game/avalon/pkg/game/types"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS games (
	code TEXT PRIMARY KEY,
	state BLOB NOT NULL,
	updated_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL DEFAULT 0
);
`

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(ctx context.Context, path string) (Repository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %v", err)
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

func (r *SQLiteRepository) Load(ctx context.Context, code string) (*types.Game, error) {
	q := `SELECT state, expires_at FROM games WHERE code = ?;`
	var state []byte
	var expiresAt int64
	if err := r.db.QueryRowContext(ctx, q, code).Scan(&state, &expiresAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to query game: %v", err)
	}

	if expiresAt > 0 && time.Now().UnixMilli() > expiresAt {
		if err := r.Delete(ctx, code); err != nil {
			return nil, err
		}
		return nil, &ErrNotFound{}
	}

	return decodeGame(state)
}

func (r *SQLiteRepository) Save(ctx context.Context, game *types.Game, ttl time.Duration) error {
	state, err := encodeGame(game)
	if err != nil {
		return err
	}

	var expiresAt int64
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl).UnixMilli()
	}

	q := `
	INSERT INTO games (code, state, updated_at, expires_at) VALUES (?, ?, ?, ?)
	ON CONFLICT (code) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at, expires_at = excluded.expires_at;
	`
	if _, err := r.db.ExecContext(ctx, q, game.Code, state, time.Now().UnixMilli(), expiresAt); err != nil {
		return fmt.Errorf("failed to upsert game: %v", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, code string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM games WHERE code = ?;`, code); err != nil {
		return fmt.Errorf("failed to delete game: %v", err)
	}
	return nil
}

func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}
