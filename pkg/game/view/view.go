// Package view derives per-viewer redacted snapshots from the canonical
// game record. A view is computed for exactly one viewer and must never be
// reused for another without recomputation.
package view

import (
	"github.com/resistance-game/avalon/pkg/game/roles"
	"github.com/resistance-game/avalon/pkg/game/types"
)

// PlayerView is a roster entry as everyone may see it. Role stays empty
// until the match is over, at which point every role becomes visible.
type PlayerView struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	IsHost    bool       `json:"isHost"`
	Connected bool       `json:"connected"`
	Role      roles.Role `json:"role,omitempty"`
}

// YouView is the augmentation added when the viewer is a participant.
type YouView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	IsHost       bool   `json:"isHost"`
	IsLeader     bool   `json:"isLeader"`
	OnTeam       bool   `json:"onTeam"`
	HasVoted     bool   `json:"hasVoted,omitempty"`
	HasSubmitted bool   `json:"hasSubmitted,omitempty"`
	IsAssassin   bool   `json:"isAssassin,omitempty"`
}

// BallotView is one player's ballot, disclosed only after a vote closes.
type BallotView struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Approve bool   `json:"approve"`
}

// VoteResultView is the full tally of a closed team vote.
type VoteResultView struct {
	ApproveCount int          `json:"approveCount"`
	RejectCount  int          `json:"rejectCount"`
	Approved     bool         `json:"approved"`
	Ballots      []BallotView `json:"ballots"`
	Team         []string     `json:"team"`
}

// AssassinationView is disclosed during the assassination phase.
type AssassinationView struct {
	TargetChosen bool `json:"targetChosen"`
}

// PublicView is the redacted snapshot sent to one viewer. Fields beyond the
// baseline are populated strictly per phase; nothing outside the allow-list
// for the current phase is ever set.
type PublicView struct {
	Code               string              `json:"code"`
	Phase              types.Phase         `json:"phase"`
	Players            []PlayerView        `json:"players"`
	CurrentQuest       int                 `json:"currentQuest"`
	QuestTeamSizes     []int               `json:"questTeamSizes"`
	QuestRequiredFails []int               `json:"questRequiredFails"`
	QuestResults       []types.QuestResult `json:"questResults"`
	LeaderIndex        int                 `json:"leaderIndex"`
	LeaderName         string              `json:"leaderName,omitempty"`
	ProposedTeam       []string            `json:"proposedTeam"`
	RejectCount        int                 `json:"rejectCount"`
	Winner             roles.Camp          `json:"winner,omitempty"`
	WinReason          string              `json:"winReason,omitempty"`

	You *YouView `json:"you,omitempty"`

	VotedIDs      []string           `json:"votedIds,omitempty"`
	VoteResult    *VoteResultView    `json:"voteResult,omitempty"`
	SubmittedIDs  []string           `json:"submittedIds,omitempty"`
	Assassination *AssassinationView `json:"assassination,omitempty"`
}

// View computes the redacted snapshot of g for one viewer. Unknown viewer
// ids still get the baseline view; only recognized participants get the
// viewer-specific augmentation.
func View(g *types.Game, viewerID string) *PublicView {
	v := &PublicView{
		Code:               g.Code,
		Phase:              g.Phase,
		Players:            make([]PlayerView, len(g.Players)),
		CurrentQuest:       g.CurrentQuest,
		QuestTeamSizes:     types.QuestTeamSizes[:],
		QuestRequiredFails: types.QuestRequiredFails[:],
		QuestResults:       append([]types.QuestResult{}, g.QuestResults...),
		LeaderIndex:        g.LeaderIndex,
		ProposedTeam:       append([]string{}, g.ProposedTeam...),
		RejectCount:        g.RejectCount,
		Winner:             g.Winner,
		WinReason:          g.WinReason,
	}

	revealRoles := g.Phase.Terminal()
	for i, p := range g.Players {
		v.Players[i] = PlayerView{
			ID:        p.ID,
			Name:      p.Name,
			IsHost:    p.IsHost,
			Connected: p.Connected,
		}
		if revealRoles {
			v.Players[i].Role = p.Role
		}
	}

	if leader := g.Leader(); leader != nil {
		v.LeaderName = leader.Name
	}

	viewer := g.Player(viewerID)
	if viewer != nil {
		v.You = &YouView{
			ID:       viewer.ID,
			Name:     viewer.Name,
			IsHost:   viewer.IsHost,
			IsLeader: g.Leader() == viewer,
			OnTeam:   g.OnProposedTeam(viewer.ID),
		}
	}

	switch g.Phase {
	case types.PhaseTeamVote:
		// Who has voted is public during the vote; ballot values are not.
		for _, p := range g.Players {
			if _, voted := g.Votes[p.ID]; voted {
				v.VotedIDs = append(v.VotedIDs, p.ID)
			}
		}
		if viewer != nil {
			_, voted := g.Votes[viewer.ID]
			v.You.HasVoted = voted
		}
	case types.PhaseVoteResult:
		if g.LastVote != nil {
			result := &VoteResultView{
				ApproveCount: g.LastVote.ApproveCount,
				RejectCount:  g.LastVote.RejectCount,
				Approved:     g.LastVote.Approved,
				Team:         append([]string{}, g.LastVote.Team...),
			}
			for _, p := range g.Players {
				if approve, voted := g.LastVote.Votes[p.ID]; voted {
					result.Ballots = append(result.Ballots, BallotView{
						ID:      p.ID,
						Name:    p.Name,
						Approve: approve,
					})
				}
			}
			v.VoteResult = result
		}
	case types.PhaseQuest:
		// Quest-vote values stay secret forever; only submission is public.
		for _, memberID := range g.ProposedTeam {
			if _, submitted := g.QuestVotes[memberID]; submitted {
				v.SubmittedIDs = append(v.SubmittedIDs, memberID)
			}
		}
		if viewer != nil {
			_, submitted := g.QuestVotes[viewer.ID]
			v.You.HasSubmitted = submitted
		}
	case types.PhaseAssassination:
		v.Assassination = &AssassinationView{
			TargetChosen: g.AssassinationTarget != "",
		}
		if viewer != nil {
			v.You.IsAssassin = viewer.Role == roles.RoleMordred
		}
	}

	return v
}
