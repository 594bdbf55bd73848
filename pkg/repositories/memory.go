package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/resistance-game/avalon/pkg/game/types"
)

type memoryRecord struct {
	game      *types.Game
	expiresAt time.Time
}

// InMemoryRepository keeps game records in process memory. It is the
// default store for development and the backing store for tests. Records
// are deep-copied on both save and load so callers never share memory with
// the stored record.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		records: make(map[string]memoryRecord),
	}
}

func (r *InMemoryRepository) Load(ctx context.Context, code string) (*types.Game, error) {
	r.mu.RLock()
	record, ok := r.records[code]
	r.mu.RUnlock()

	if !ok {
		return nil, &ErrNotFound{}
	}
	if !record.expiresAt.IsZero() && time.Now().After(record.expiresAt) {
		r.mu.Lock()
		delete(r.records, code)
		r.mu.Unlock()
		return nil, &ErrNotFound{}
	}
	return record.game.Clone(), nil
}

func (r *InMemoryRepository) Save(ctx context.Context, game *types.Game, ttl time.Duration) error {
	record := memoryRecord{game: game.Clone()}
	if ttl > 0 {
		record.expiresAt = time.Now().Add(ttl)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[game.Code] = record
	return nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, code)
	return nil
}

func (r *InMemoryRepository) Close(ctx context.Context) error {
	return nil
}
