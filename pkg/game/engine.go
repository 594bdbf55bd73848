package game

import (
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/resistance-game/avalon/pkg/game/roles"
	"github.com/resistance-game/avalon/pkg/game/types"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9 ]+$`)

// Engine applies validated state transitions to a Game. Every action
// validates all of its preconditions before mutating anything, so a
// rejection never leaves a partially applied change behind. The engine
// performs no I/O; callers load the state, apply an action, and persist
// the result.
type Engine struct {
	// rngMu guards rng: one engine serves every game, and rand.Rand is
	// not safe for concurrent use.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewEngine creates an engine. Pass a seeded rng for deterministic role
// assignment and leader selection; nil uses a time-seeded source.
func NewEngine(rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{rng: rng}
}

// Join appends a new player to the lobby roster.
func (e *Engine) Join(g *types.Game, name string) (*types.Player, error) {
	if g.Phase != types.PhaseLobby {
		return nil, rejectf("the game has already started")
	}
	if len(g.Players) >= types.MaxPlayers {
		return nil, rejectf("the game is full")
	}
	name = strings.TrimSpace(name)
	if len(name) < 1 || len(name) > 16 {
		return nil, rejectf("name must be between 1 and 16 characters")
	}
	if !nameRegex.MatchString(name) {
		return nil, rejectf("name cannot contain special characters")
	}
	if g.HasName(name) {
		return nil, rejectf("the name %q is already taken", name)
	}

	player := &types.Player{
		ID:        uuid.New().String(),
		Name:      name,
		Connected: true,
		LastSeen:  now(),
	}
	g.Players = append(g.Players, player)
	touch(g)
	return player, nil
}

// Rejoin marks an existing player as connected again and refreshes their
// liveness timestamp. Liveness is advisory only; a disconnected player
// still counts toward every vote and quorum.
func (e *Engine) Rejoin(g *types.Game, playerID string) (*types.Player, error) {
	player := g.Player(playerID)
	if player == nil {
		return nil, rejectf("unknown player")
	}
	if g.Phase.Terminal() {
		return nil, rejectf("the game is over")
	}
	player.Connected = true
	player.LastSeen = now()
	touch(g)
	return player, nil
}

// Start assigns roles, picks a random leader, and opens team selection.
func (e *Engine) Start(g *types.Game, callerID string) error {
	caller := g.Player(callerID)
	if caller == nil {
		return rejectf("unknown player")
	}
	if g.Phase != types.PhaseLobby {
		return rejectf("the game has already started")
	}
	if !caller.IsHost {
		return rejectf("only the host can start the game")
	}
	if len(g.Players) < types.MinPlayers {
		return rejectf("need at least %d players to start", types.MinPlayers)
	}

	e.rngMu.Lock()
	assigned, err := roles.Assign(len(g.Players), e.rng)
	if err != nil {
		e.rngMu.Unlock()
		return rejectf("%v", err)
	}
	leaderIndex := e.rng.Intn(len(g.Players))
	e.rngMu.Unlock()

	for i, player := range g.Players {
		player.Role = assigned[i]
	}

	g.LeaderIndex = leaderIndex
	g.Phase = types.PhaseTeamSelection
	markSeen(caller)
	touch(g)
	return nil
}

// Propose sets the current leader's team proposal and opens the team vote.
func (e *Engine) Propose(g *types.Game, callerID string, team []string) error {
	caller := g.Player(callerID)
	if caller == nil {
		return rejectf("unknown player")
	}
	if g.Phase != types.PhaseTeamSelection {
		return rejectf("team proposals are not open")
	}
	if caller != g.Leader() {
		return rejectf("only the current leader can propose a team")
	}
	required := g.RequiredTeamSize()
	if len(team) != required {
		return rejectf("quest %d requires a team of %d", g.CurrentQuest+1, required)
	}
	seen := make(map[string]bool, len(team))
	for _, memberID := range team {
		if g.Player(memberID) == nil {
			return rejectf("proposed team includes an unknown player")
		}
		if seen[memberID] {
			return rejectf("proposed team includes the same player twice")
		}
		seen[memberID] = true
	}

	g.ProposedTeam = append([]string{}, team...)
	g.Votes = make(map[string]bool)
	g.LastVote = nil
	g.Phase = types.PhaseTeamVote
	markSeen(caller)
	touch(g)
	return nil
}

// Vote records a player's ballot on the proposed team. When the last roster
// member votes, the tally is closed: a strict majority of approvals is
// required, so an exact tie is a rejection.
func (e *Engine) Vote(g *types.Game, callerID string, approve bool) error {
	caller := g.Player(callerID)
	if caller == nil {
		return rejectf("unknown player")
	}
	if g.Phase != types.PhaseTeamVote {
		return rejectf("team voting is not open")
	}
	if _, voted := g.Votes[callerID]; voted {
		return rejectf("you have already voted on this team")
	}

	g.Votes[callerID] = approve
	markSeen(caller)
	touch(g)

	if len(g.Votes) < len(g.Players) {
		return nil
	}

	approveCount := 0
	for _, vote := range g.Votes {
		if vote {
			approveCount++
		}
	}
	rejectCount := len(g.Votes) - approveCount

	votes := make(map[string]bool, len(g.Votes))
	for id, vote := range g.Votes {
		votes[id] = vote
	}
	g.LastVote = &types.VoteResult{
		ApproveCount: approveCount,
		RejectCount:  rejectCount,
		Approved:     approveCount*2 > len(g.Players),
		Votes:        votes,
		Team:         append([]string{}, g.ProposedTeam...),
	}
	g.Phase = types.PhaseVoteResult
	return nil
}

// ContinueFromVote moves past a closed team vote. An approved proposal
// opens the quest; a rejected one passes leadership on, and the fifth
// consecutive rejection ends the match in evil's favor.
func (e *Engine) ContinueFromVote(g *types.Game, callerID string) error {
	caller := g.Player(callerID)
	if caller == nil {
		return rejectf("unknown player")
	}
	if g.Phase != types.PhaseVoteResult {
		return rejectf("there is no vote result to continue from")
	}
	if !caller.IsHost {
		return rejectf("only the host can continue")
	}

	markSeen(caller)
	touch(g)

	if g.LastVote.Approved {
		g.QuestVotes = make(map[string]bool)
		g.RejectCount = 0
		g.Phase = types.PhaseQuest
		return nil
	}

	g.RejectCount++
	if g.RejectCount >= types.MaxRejects {
		finish(g, roles.CampEvil, WinReasonFiveRejections)
		return nil
	}

	g.AdvanceLeader()
	g.ProposedTeam = []string{}
	g.Votes = make(map[string]bool)
	g.Phase = types.PhaseTeamSelection
	return nil
}

// QuestVote records a team member's quest card. Good players can only
// submit success; the engine enforces this rather than trusting clients.
// When the last team member submits, the quest resolves against the
// current quest's fail threshold.
func (e *Engine) QuestVote(g *types.Game, callerID string, success bool) error {
	caller := g.Player(callerID)
	if caller == nil {
		return rejectf("unknown player")
	}
	if g.Phase != types.PhaseQuest {
		return rejectf("quest voting is not open")
	}
	if !g.OnProposedTeam(callerID) {
		return rejectf("you are not on the quest team")
	}
	if _, voted := g.QuestVotes[callerID]; voted {
		return rejectf("you have already submitted a quest vote")
	}
	if !success && !caller.Role.IsEvil() {
		return rejectf("good players cannot fail a quest")
	}

	g.QuestVotes[callerID] = success
	markSeen(caller)
	touch(g)

	if len(g.QuestVotes) < len(g.ProposedTeam) {
		return nil
	}

	failCount := 0
	for _, vote := range g.QuestVotes {
		if !vote {
			failCount++
		}
	}
	g.QuestResults = append(g.QuestResults, types.QuestResult{
		Quest:     g.CurrentQuest,
		Success:   failCount < g.RequiredFails(),
		FailCount: failCount,
	})
	g.Phase = types.PhaseQuestResult
	return nil
}

// ContinueFromQuest moves past a resolved quest: three successes open the
// assassination phase, three failures end the match for evil, and anything
// else advances to the next quest with a new leader.
func (e *Engine) ContinueFromQuest(g *types.Game, callerID string) error {
	caller := g.Player(callerID)
	if caller == nil {
		return rejectf("unknown player")
	}
	if g.Phase != types.PhaseQuestResult {
		return rejectf("there is no quest result to continue from")
	}
	if !caller.IsHost {
		return rejectf("only the host can continue")
	}

	markSeen(caller)
	touch(g)

	successes, failures := g.QuestScore()
	switch {
	case successes >= types.QuestsToWin:
		g.Phase = types.PhaseAssassination
	case failures >= types.QuestsToWin:
		finish(g, roles.CampEvil, WinReasonThreeFailed)
	default:
		g.CurrentQuest++
		g.AdvanceLeader()
		g.ProposedTeam = []string{}
		g.Votes = make(map[string]bool)
		g.QuestVotes = make(map[string]bool)
		g.LastVote = nil
		g.Phase = types.PhaseTeamSelection
	}
	return nil
}

// Assassinate records Mordred's target and ends the match: hitting Merlin
// wins for evil, anyone else wins for good.
func (e *Engine) Assassinate(g *types.Game, callerID, targetID string) error {
	caller := g.Player(callerID)
	if caller == nil {
		return rejectf("unknown player")
	}
	if g.Phase != types.PhaseAssassination {
		return rejectf("the assassination phase is not open")
	}
	if caller.Role != roles.RoleMordred {
		return rejectf("only Mordred can assassinate")
	}
	target := g.Player(targetID)
	if target == nil {
		return rejectf("unknown target")
	}

	g.AssassinationTarget = targetID
	if target.Role == roles.RoleMerlin {
		finish(g, roles.CampEvil, WinReasonMerlinFound)
	} else {
		finish(g, roles.CampGood, WinReasonMerlinSurvived)
	}
	markSeen(caller)
	touch(g)
	return nil
}

// Win reasons. Handlers and clients surface these verbatim.
const (
	WinReasonFiveRejections = "five consecutive proposals rejected"
	WinReasonThreeFailed    = "three quests failed"
	WinReasonMerlinFound    = "Mordred correctly identified Merlin"
	WinReasonMerlinSurvived = "Merlin survived the assassination"
)

func finish(g *types.Game, winner roles.Camp, reason string) {
	g.Winner = winner
	g.WinReason = reason
	g.Phase = types.PhaseGameOver
}

func markSeen(p *types.Player) {
	p.Connected = true
	p.LastSeen = now()
}

func touch(g *types.Game) {
	g.UpdatedAt = now()
}

func now() int64 {
	return time.Now().UnixMilli()
}
