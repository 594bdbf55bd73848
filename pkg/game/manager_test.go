package game

import (
	"context"
	"sync"
	"testing"

	"github.com/resistance-game/avalon/pkg/game/types"
	"github.com/resistance-game/avalon/pkg/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(NewManagerOptions{
		Repository: repositories.NewInMemoryRepository(),
	})
}

// seedGame stores a prepared game so tests can drive the manager from any
// phase without replaying the whole setup flow.
func seedGame(t *testing.T, m *Manager, g *types.Game) {
	t.Helper()
	require.NoError(t, m.repository.Save(context.Background(), g, 0))
}

func TestManager_CreateAndJoin(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	v, host, err := m.Create(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, host)
	assert.Len(t, v.Code, codeLength)
	for _, c := range v.Code {
		assert.Contains(t, codeAlphabet, string(c))
	}
	assert.True(t, host.IsHost)
	require.NotNil(t, v.You)
	assert.True(t, v.You.IsHost)

	joined, player, err := m.Join(ctx, v.Code, "bob")
	require.NoError(t, err)
	assert.NotEqual(t, host.ID, player.ID)
	assert.Len(t, joined.Players, 2)
	require.NotNil(t, joined.You)
	assert.Equal(t, player.ID, joined.You.ID)
	assert.False(t, joined.You.IsHost)
}

func TestManager_StateNotFound(t *testing.T) {
	m := newTestManager(t)
	_, err := m.State(context.Background(), "NOSUCH", "")
	assert.True(t, repositories.IsNotFound(err))
}

func TestManager_RejectionDoesNotPersist(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	g := newStarted(t)
	seedGame(t, m, g)

	// A non-leader proposal is rejected and must leave the stored game
	// untouched.
	_, err := m.Propose(ctx, g.Code, "p2", []string{"p1", "p2", "p3"})
	require.Error(t, err)
	assert.True(t, IsRejected(err))

	stored, err := m.repository.Load(ctx, g.Code)
	require.NoError(t, err)
	assert.Equal(t, types.PhaseTeamSelection, stored.Phase)
	assert.Empty(t, stored.ProposedTeam)
}

// TestManager_ConcurrentFinalVotes races the last two ballots of a team
// vote. Both must land, the tally must close exactly once, and no ballot may
// be lost to a read-modify-write race.
func TestManager_ConcurrentFinalVotes(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	g := newStarted(t)
	g.Phase = types.PhaseTeamVote
	g.ProposedTeam = []string{"p1", "p2", "p3"}
	g.Votes = map[string]bool{"p1": true, "p2": true, "p3": true, "p4": true}
	seedGame(t, m, g)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, playerID := range []string{"p5", "p6"} {
		wg.Add(1)
		go func(i int, playerID string) {
			defer wg.Done()
			_, errs[i] = m.Vote(ctx, g.Code, playerID, true)
		}(i, playerID)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	stored, err := m.repository.Load(ctx, g.Code)
	require.NoError(t, err)
	assert.Equal(t, types.PhaseVoteResult, stored.Phase)
	require.NotNil(t, stored.LastVote)
	assert.Equal(t, 6, stored.LastVote.ApproveCount+stored.LastVote.RejectCount)
	assert.True(t, stored.LastVote.Approved)
}

// TestManager_ConcurrentDuplicateVote races the same ballot twice. Exactly
// one attempt wins the lock first and is accepted.
func TestManager_ConcurrentDuplicateVote(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	g := newStarted(t)
	g.Phase = types.PhaseTeamVote
	g.ProposedTeam = []string{"p1", "p2", "p3"}
	seedGame(t, m, g)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.Vote(ctx, g.Code, "p5", true)
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		if err == nil {
			accepted++
		} else {
			assert.True(t, IsRejected(err))
		}
	}
	assert.Equal(t, 1, accepted)
}

// TestManager_DistinctGamesDoNotBlock runs actions on two games at once and
// expects both to complete.
func TestManager_DistinctGamesDoNotBlock(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	first := newStarted(t)
	second := newStarted(t)
	second.Code = "OTHER1"
	seedGame(t, m, first)
	seedGame(t, m, second)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, code := range []string{first.Code, second.Code} {
		wg.Add(1)
		go func(i int, code string) {
			defer wg.Done()
			_, errs[i] = m.Propose(ctx, code, "p1", []string{"p1", "p2", "p3"})
		}(i, code)
	}
	wg.Wait()

	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])
}

func TestManager_Knowledge(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	g := newStarted(t)
	seedGame(t, m, g)

	knowledge, err := m.Knowledge(ctx, g.Code, "p1")
	require.NoError(t, err)
	assert.Equal(t, g.Players[0].Role, knowledge.Role)
}

func TestManager_FullFlowPublishesEvents(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	g := newStarted(t)
	seedGame(t, m, g)

	changes, cancel := m.Broker().Subscribe(g.Code)
	defer cancel()

	_, err := m.Propose(ctx, g.Code, "p1", []string{"p1", "p2", "p3"})
	require.NoError(t, err)

	select {
	case <-changes:
	default:
		t.Fatal("expected a change notification after an accepted action")
	}
}
