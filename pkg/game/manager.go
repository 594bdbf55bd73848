package game

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/resistance-game/avalon/pkg/events"
	"github.com/resistance-game/avalon/pkg/game/roles"
	"github.com/resistance-game/avalon/pkg/game/types"
	"github.com/resistance-game/avalon/pkg/game/view"
	"github.com/resistance-game/avalon/pkg/locks"
	"github.com/resistance-game/avalon/pkg/metrics"
	"github.com/resistance-game/avalon/pkg/repositories"
)

const (
	// DefaultTTL is how long a game record survives after its last action.
	DefaultTTL = 24 * time.Hour
	// DefaultLockWait bounds how long a second caller waits for a game's
	// lock. Only one mutation is ever in flight per game, so any longer
	// wait means something is wrong upstream.
	DefaultLockWait = 5 * time.Second

	codeLength = 6
	// codeAlphabet excludes characters that read ambiguously.
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// Manager owns the mutation path for games: it serializes each action on a
// per-code lock around load -> apply -> save, and publishes a change event
// for watchers afterwards. Different game codes never contend.
type Manager struct {
	repository repositories.Repository
	engine     *Engine
	locks      *locks.KeyedMutex
	broker     *events.Broker
	ttl        time.Duration
	lockWait   time.Duration
}

type NewManagerOptions struct {
	Repository repositories.Repository
	// RNG seeds role assignment and leader selection. Nil uses a
	// time-seeded source; tests pass a fixed seed.
	RNG *rand.Rand
	// TTL for saved game records. Zero means DefaultTTL.
	TTL time.Duration
	// LockWait bounds lock acquisition. Zero means DefaultLockWait.
	LockWait time.Duration
}

func NewManager(opts NewManagerOptions) *Manager {
	ttl := opts.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	lockWait := opts.LockWait
	if lockWait == 0 {
		lockWait = DefaultLockWait
	}
	return &Manager{
		repository: opts.Repository,
		engine:     NewEngine(opts.RNG),
		locks:      locks.NewKeyedMutex(),
		broker:     events.NewBroker(),
		ttl:        ttl,
		lockWait:   lockWait,
	}
}

// Broker exposes the change-notification broker for watch subscriptions.
func (m *Manager) Broker() *events.Broker {
	return m.broker
}

// Create makes a new game with the given host and persists it. The host is
// the game's first roster entry.
func (m *Manager) Create(ctx context.Context, hostName string) (*view.PublicView, *types.Player, error) {
	code, err := m.freeCode(ctx)
	if err != nil {
		return nil, nil, err
	}

	g := types.NewGame(code, time.Now().UnixMilli())
	host, err := m.engine.Join(g, hostName)
	if err != nil {
		return nil, nil, err
	}
	host.IsHost = true

	if err := m.repository.Save(ctx, g, m.ttl); err != nil {
		return nil, nil, fmt.Errorf("failed to save game: %v", err)
	}

	metrics.GamesCreated.Inc()
	return view.View(g, host.ID), host, nil
}

// freeCode generates a game code that is not currently in use.
func (m *Manager) freeCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 100; attempt++ {
		code := randomCode()
		_, err := m.repository.Load(ctx, code)
		if repositories.IsNotFound(err) {
			return code, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check game code: %v", err)
		}
	}
	return "", fmt.Errorf("failed to find a free game code")
}

func randomCode() string {
	code := make([]byte, codeLength)
	for i := range code {
		code[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(code)
}

// Join adds a player to a lobby.
func (m *Manager) Join(ctx context.Context, code, name string) (*view.PublicView, *types.Player, error) {
	var player *types.Player
	g, err := m.apply(ctx, code, "join", func(g *types.Game) error {
		p, err := m.engine.Join(g, name)
		if err != nil {
			return err
		}
		player = p
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return view.View(g, player.ID), player, nil
}

// Rejoin reconnects an existing player.
func (m *Manager) Rejoin(ctx context.Context, code, playerID string) (*view.PublicView, error) {
	return m.mutate(ctx, code, playerID, "rejoin", func(g *types.Game) error {
		_, err := m.engine.Rejoin(g, playerID)
		return err
	})
}

// Start begins the match.
func (m *Manager) Start(ctx context.Context, code, playerID string) (*view.PublicView, error) {
	return m.mutate(ctx, code, playerID, "start", func(g *types.Game) error {
		return m.engine.Start(g, playerID)
	})
}

// Propose submits the leader's team proposal.
func (m *Manager) Propose(ctx context.Context, code, playerID string, team []string) (*view.PublicView, error) {
	return m.mutate(ctx, code, playerID, "propose", func(g *types.Game) error {
		return m.engine.Propose(g, playerID, team)
	})
}

// Vote casts a team-vote ballot.
func (m *Manager) Vote(ctx context.Context, code, playerID string, approve bool) (*view.PublicView, error) {
	return m.mutate(ctx, code, playerID, "vote", func(g *types.Game) error {
		return m.engine.Vote(g, playerID, approve)
	})
}

// ContinueFromVote moves past a closed team vote.
func (m *Manager) ContinueFromVote(ctx context.Context, code, playerID string) (*view.PublicView, error) {
	return m.mutate(ctx, code, playerID, "continue_vote", func(g *types.Game) error {
		return m.engine.ContinueFromVote(g, playerID)
	})
}

// QuestVote submits a quest card.
func (m *Manager) QuestVote(ctx context.Context, code, playerID string, success bool) (*view.PublicView, error) {
	return m.mutate(ctx, code, playerID, "quest_vote", func(g *types.Game) error {
		return m.engine.QuestVote(g, playerID, success)
	})
}

// ContinueFromQuest moves past a resolved quest.
func (m *Manager) ContinueFromQuest(ctx context.Context, code, playerID string) (*view.PublicView, error) {
	return m.mutate(ctx, code, playerID, "continue_quest", func(g *types.Game) error {
		return m.engine.ContinueFromQuest(g, playerID)
	})
}

// Assassinate records Mordred's target and ends the match.
func (m *Manager) Assassinate(ctx context.Context, code, playerID, targetID string) (*view.PublicView, error) {
	return m.mutate(ctx, code, playerID, "assassinate", func(g *types.Game) error {
		return m.engine.Assassinate(g, playerID, targetID)
	})
}

// State returns the viewer's current snapshot. Reads take no lock: the
// repository hands out point-in-time copies.
func (m *Manager) State(ctx context.Context, code, viewerID string) (*view.PublicView, error) {
	g, err := m.repository.Load(ctx, code)
	if err != nil {
		return nil, err
	}
	return view.View(g, viewerID), nil
}

// Knowledge returns the viewer's role knowledge.
func (m *Manager) Knowledge(ctx context.Context, code, viewerID string) (*roles.Knowledge, error) {
	g, err := m.repository.Load(ctx, code)
	if err != nil {
		return nil, err
	}
	return roles.KnowledgeFor(g.Holders(), viewerID)
}

// mutate runs one action and projects the result for the acting viewer.
func (m *Manager) mutate(ctx context.Context, code, viewerID, action string, fn func(g *types.Game) error) (*view.PublicView, error) {
	g, err := m.apply(ctx, code, action, fn)
	if err != nil {
		return nil, err
	}
	return view.View(g, viewerID), nil
}

// apply runs one action under the game's lock: load, apply, save, publish.
// The lock is held for the whole read-mutate-write so two concurrent final
// votes can never both observe the same pre-vote tally. The returned game is
// the caller's private copy.
func (m *Manager) apply(ctx context.Context, code, action string, fn func(g *types.Game) error) (*types.Game, error) {
	lockCtx, cancel := context.WithTimeout(ctx, m.lockWait)
	defer cancel()
	release, err := m.locks.Acquire(lockCtx, code)
	if err != nil {
		metrics.ActionsTotal.WithLabelValues(action, metrics.OutcomeError).Inc()
		return nil, err
	}
	defer release()

	g, err := m.repository.Load(ctx, code)
	if err != nil {
		if repositories.IsNotFound(err) {
			metrics.ActionsTotal.WithLabelValues(action, metrics.OutcomeNotFound).Inc()
		} else {
			metrics.ActionsTotal.WithLabelValues(action, metrics.OutcomeError).Inc()
		}
		return nil, err
	}

	if err := fn(g); err != nil {
		if IsRejected(err) {
			metrics.ActionsTotal.WithLabelValues(action, metrics.OutcomeRejected).Inc()
		} else {
			metrics.ActionsTotal.WithLabelValues(action, metrics.OutcomeError).Inc()
		}
		return nil, err
	}

	if err := m.repository.Save(ctx, g, m.ttl); err != nil {
		metrics.ActionsTotal.WithLabelValues(action, metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("failed to save game: %v", err)
	}

	metrics.ActionsTotal.WithLabelValues(action, metrics.OutcomeOK).Inc()
	m.broker.Publish(code)
	return g, nil
}
