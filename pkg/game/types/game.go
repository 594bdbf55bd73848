package types

import (
	"strings"

	"github.com/resistance-game/avalon/pkg/game/roles"
)

const (
	// TotalQuests is the number of quests in a match.
	TotalQuests = 5
	// QuestsToWin is the number of quest results either camp needs.
	QuestsToWin = 3
	// MaxRejects is the number of consecutive rejected proposals that hands
	// the match to the evil camp.
	MaxRejects = 5
	// MaxPlayers is the roster cap.
	MaxPlayers = 12
	// MinPlayers is the smallest roster a game can start with.
	MinPlayers = 6
)

// QuestTeamSizes is the required team size per quest.
var QuestTeamSizes = [TotalQuests]int{3, 4, 5, 6, 6}

// QuestRequiredFails is the number of fail votes needed to fail each quest.
// Quest 4 (index 3) is the only one requiring two fails.
var QuestRequiredFails = [TotalQuests]int{1, 1, 1, 2, 1}

// Player is one identity slot in the roster. Players are appended at join
// and never deleted, even on disconnect: the slot is needed for vote and
// role integrity for the life of the match. Connected/LastSeen are advisory
// only and never alter game rules.
type Player struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Role      roles.Role `json:"role,omitempty"`
	IsHost    bool       `json:"isHost"`
	Connected bool       `json:"connected"`
	LastSeen  int64      `json:"lastSeen"`
}

// VoteResult is the closed tally of a team vote, snapshotted when the last
// ballot comes in. Unlike during the vote, the per-player ballots are fully
// visible once the vote has closed.
type VoteResult struct {
	ApproveCount int             `json:"approveCount"`
	RejectCount  int             `json:"rejectCount"`
	Approved     bool            `json:"approved"`
	Votes        map[string]bool `json:"votes"`
	Team         []string        `json:"team"`
}

// QuestResult is the outcome of one completed quest. It records only the
// aggregate fail count; which team member voted which way is never stored.
type QuestResult struct {
	Quest     int  `json:"quest"`
	Success   bool `json:"success"`
	FailCount int  `json:"failCount"`
}

// Game is the canonical record for one match and the single source of
// truth. Only the action engine mutates it; projections read copies.
// The JSON encoding of this struct is the persisted wire shape.
type Game struct {
	Code         string          `json:"code"`
	Phase        Phase           `json:"phase"`
	Players      []*Player       `json:"players"`
	CurrentQuest int             `json:"currentQuest"`
	LeaderIndex  int             `json:"leaderIndex"`
	ProposedTeam []string        `json:"proposedTeam"`
	Votes        map[string]bool `json:"votes"`
	QuestVotes   map[string]bool `json:"questVotes"`
	LastVote     *VoteResult     `json:"lastVote,omitempty"`
	QuestResults []QuestResult   `json:"questResults"`
	RejectCount  int             `json:"rejectCount"`

	AssassinationTarget string     `json:"assassinationTarget,omitempty"`
	Winner              roles.Camp `json:"winner,omitempty"`
	WinReason           string     `json:"winReason,omitempty"`

	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`
}

// NewGame returns an empty lobby-phase game.
func NewGame(code string, now int64) *Game {
	return &Game{
		Code:         code,
		Phase:        PhaseLobby,
		Players:      []*Player{},
		ProposedTeam: []string{},
		Votes:        make(map[string]bool),
		QuestVotes:   make(map[string]bool),
		QuestResults: []QuestResult{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Player returns the roster entry with the given id, or nil.
func (g *Game) Player(id string) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// HasName reports whether a roster entry already uses the given display
// name. Names are unique case-insensitively.
func (g *Game) HasName(name string) bool {
	for _, p := range g.Players {
		if strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

// Host returns the host player. Exactly one player is the host.
func (g *Game) Host() *Player {
	for _, p := range g.Players {
		if p.IsHost {
			return p
		}
	}
	return nil
}

// Leader returns the current proposal leader.
func (g *Game) Leader() *Player {
	if len(g.Players) == 0 {
		return nil
	}
	return g.Players[g.LeaderIndex]
}

// OnProposedTeam reports whether the player id is on the current proposal.
func (g *Game) OnProposedTeam(id string) bool {
	for _, member := range g.ProposedTeam {
		if member == id {
			return true
		}
	}
	return false
}

// RequiredTeamSize is the team size for the current quest.
func (g *Game) RequiredTeamSize() int {
	return QuestTeamSizes[g.CurrentQuest]
}

// RequiredFails is the fail-vote threshold for the current quest.
func (g *Game) RequiredFails() int {
	return QuestRequiredFails[g.CurrentQuest]
}

// QuestScore returns the cumulative successes and failures so far.
func (g *Game) QuestScore() (successes, failures int) {
	for _, result := range g.QuestResults {
		if result.Success {
			successes++
		} else {
			failures++
		}
	}
	return successes, failures
}

// AdvanceLeader moves proposal authority to the next roster slot, wrapping.
func (g *Game) AdvanceLeader() {
	g.LeaderIndex = (g.LeaderIndex + 1) % len(g.Players)
}

// Holders returns the roster as role holders for the knowledge projector.
func (g *Game) Holders() []roles.Holder {
	holders := make([]roles.Holder, len(g.Players))
	for i, p := range g.Players {
		holders[i] = roles.Holder{ID: p.ID, Name: p.Name, Role: p.Role}
	}
	return holders
}

// Clone returns a deep copy. Projections and callers outside the per-game
// lock must only ever be handed copies, never the canonical record.
func (g *Game) Clone() *Game {
	clone := *g

	clone.Players = make([]*Player, len(g.Players))
	for i, p := range g.Players {
		player := *p
		clone.Players[i] = &player
	}

	clone.ProposedTeam = append([]string{}, g.ProposedTeam...)
	clone.QuestResults = append([]QuestResult{}, g.QuestResults...)

	clone.Votes = make(map[string]bool, len(g.Votes))
	for id, vote := range g.Votes {
		clone.Votes[id] = vote
	}
	clone.QuestVotes = make(map[string]bool, len(g.QuestVotes))
	for id, vote := range g.QuestVotes {
		clone.QuestVotes[id] = vote
	}

	if g.LastVote != nil {
		lastVote := *g.LastVote
		lastVote.Votes = make(map[string]bool, len(g.LastVote.Votes))
		for id, vote := range g.LastVote.Votes {
			lastVote.Votes[id] = vote
		}
		lastVote.Team = append([]string{}, g.LastVote.Team...)
		clone.LastVote = &lastVote
	}

	return &clone
}
