package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/resistance-game/avalon/pkg/game/types"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS games (
	code TEXT PRIMARY KEY,
	state BYTEA NOT NULL,
	updated_at BIGINT NOT NULL,
	expires_at BIGINT NOT NULL DEFAULT 0
);
`

type PostgresRepository struct {
	conn *pgx.Conn
}

func NewPostgresRepository(ctx context.Context, connStr string) (Repository, error) {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	if _, err := conn.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %v", err)
	}

	return &PostgresRepository{
		conn: conn,
	}, nil
}

func (r *PostgresRepository) Load(ctx context.Context, code string) (*types.Game, error) {
	q := `SELECT state, expires_at FROM games WHERE code = $1;`
	var state []byte
	var expiresAt int64
	if err := r.conn.QueryRow(ctx, q, code).Scan(&state, &expiresAt); err != nil {
		if err == pgx.ErrNoRows {
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

func (r *PostgresRepository) Save(ctx context.Context, game *types.Game, ttl time.Duration) error {
	state, err := encodeGame(game)
	if err != nil {
		return err
	}

	var expiresAt int64
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl).UnixMilli()
	}

	q := `
	INSERT INTO games (code, state, updated_at, expires_at) VALUES ($1, $2, $3, $4)
	ON CONFLICT (code) DO UPDATE SET state = $2, updated_at = $3, expires_at = $4;
	`
	if _, err := r.conn.Exec(ctx, q, game.Code, state, time.Now().UnixMilli(), expiresAt); err != nil {
		return fmt.Errorf("failed to upsert game: %v", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, code string) error {
	if _, err := r.conn.Exec(ctx, `DELETE FROM games WHERE code = $1;`, code); err != nil {
		return fmt.Errorf("failed to delete game: %v", err)
	}
	return nil
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	return r.conn.Close(ctx)
}
