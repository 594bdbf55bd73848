// Package repositories persists game records keyed by game code. Every
// implementation stores the same zstd-compressed JSON encoding of the Game
// aggregate, so stores are interchangeable and the record round-trips
// losslessly. Repositories are dumb load/save collaborators: all locking
// and validation happens above them in the game manager.
package repositories

import (
	"context"
	"time"

	"github.com/resistance-game/avalon/pkg/game/types"
)

type Repository interface {
	// Load returns the game stored under code, or ErrNotFound. The returned
	// record is the caller's own copy.
	Load(ctx context.Context, code string) (*types.Game, error)
	// Save stores the game under its code. A positive ttl bounds the
	// record's lifetime; zero keeps it until deleted.
	Save(ctx context.Context, game *types.Game, ttl time.Duration) error
	// Delete removes the record. Deleting an absent code is not an error.
	Delete(ctx context.Context, code string) error
	Close(ctx context.Context) error
}

type ErrNotFound struct {
}

func (e *ErrNotFound) Error() string {
	return "not found"
}

func IsNotFound(err error) bool {
	_, ok := err.(*ErrNotFound)
	return ok
}
