package view

import (
	"fmt"
	"testing"

	"github.com/resistance-game/avalon/pkg/game/roles"
	"github.com/resistance-game/avalon/pkg/game/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGame(phase types.Phase) *types.Game {
	g := types.NewGame("TEST42", 0)
	fixed := []roles.Role{
		roles.RoleMerlin, roles.RolePercival, roles.RoleMordred,
		roles.RoleMorgana, roles.RoleServant, roles.RoleServant,
	}
	for i, role := range fixed {
		g.Players = append(g.Players, &types.Player{
			ID:     fmt.Sprintf("p%d", i+1),
			Name:   fmt.Sprintf("player-%d", i+1),
			Role:   role,
			IsHost: i == 0,
		})
	}
	g.Phase = phase
	g.ProposedTeam = []string{"p1", "p2", "p3"}
	return g
}

func TestView_RolesHiddenUntilGameOver(t *testing.T) {
	nonTerminal := []types.Phase{
		types.PhaseLobby, types.PhaseTeamSelection, types.PhaseTeamVote,
		types.PhaseVoteResult, types.PhaseQuest, types.PhaseQuestResult,
		types.PhaseAssassination,
	}
	for _, phase := range nonTerminal {
		v := View(testGame(phase), "p1")
		for _, p := range v.Players {
			assert.Empty(t, p.Role, "role leaked in phase %s", phase)
		}
	}

	v := View(testGame(types.PhaseGameOver), "p1")
	for i, p := range v.Players {
		assert.NotEmpty(t, p.Role, "role missing for player %d after game over", i)
	}
}

func TestView_ViewerAugmentation(t *testing.T) {
	g := testGame(types.PhaseTeamSelection)

	t.Run("participant gets you", func(t *testing.T) {
		v := View(g, "p1")
		require.NotNil(t, v.You)
		assert.Equal(t, "p1", v.You.ID)
		assert.True(t, v.You.IsHost)
		assert.True(t, v.You.IsLeader)
		assert.True(t, v.You.OnTeam)
	})

	t.Run("unknown viewer gets baseline only", func(t *testing.T) {
		v := View(g, "spectator")
		assert.Nil(t, v.You)
		assert.Equal(t, "TEST42", v.Code)
		assert.Len(t, v.Players, 6)
	})
}

func TestView_TeamVotePhase(t *testing.T) {
	g := testGame(types.PhaseTeamVote)
	g.Votes["p1"] = true
	g.Votes["p2"] = false

	v := View(g, "p3")
	// Who voted is public; ballot values are not exposed anywhere.
	assert.ElementsMatch(t, []string{"p1", "p2"}, v.VotedIDs)
	assert.Nil(t, v.VoteResult)
	require.NotNil(t, v.You)
	assert.False(t, v.You.HasVoted)

	voted := View(g, "p1")
	assert.True(t, voted.You.HasVoted)
}

func TestView_VoteResultPhase(t *testing.T) {
	g := testGame(types.PhaseVoteResult)
	g.LastVote = &types.VoteResult{
		ApproveCount: 4,
		RejectCount:  2,
		Approved:     true,
		Votes:        map[string]bool{"p1": true, "p2": false},
		Team:         []string{"p1", "p2", "p3"},
	}

	v := View(g, "p1")
	require.NotNil(t, v.VoteResult)
	assert.Equal(t, 4, v.VoteResult.ApproveCount)
	assert.Equal(t, 2, v.VoteResult.RejectCount)
	assert.True(t, v.VoteResult.Approved)
	assert.Len(t, v.VoteResult.Ballots, 2)
}

func TestView_QuestPhase(t *testing.T) {
	g := testGame(types.PhaseQuest)
	g.QuestVotes["p1"] = true
	g.QuestVotes["p3"] = false

	v := View(g, "p2")
	// Submission is public; the submitted values never appear in any view.
	assert.ElementsMatch(t, []string{"p1", "p3"}, v.SubmittedIDs)
	require.NotNil(t, v.You)
	assert.False(t, v.You.HasSubmitted)

	submitted := View(g, "p1")
	assert.True(t, submitted.You.HasSubmitted)
}

func TestView_AssassinationPhase(t *testing.T) {
	g := testGame(types.PhaseAssassination)

	v := View(g, "p3")
	require.NotNil(t, v.Assassination)
	assert.False(t, v.Assassination.TargetChosen)
	require.NotNil(t, v.You)
	assert.True(t, v.You.IsAssassin, "mordred is the assassin")

	other := View(g, "p1")
	assert.False(t, other.You.IsAssassin)

	g.AssassinationTarget = "p1"
	chosen := View(g, "p4")
	assert.True(t, chosen.Assassination.TargetChosen)
}

// TestView_NoVoteDataOutsidePhases verifies the allow-list: vote bookkeeping
// fields stay empty in phases that do not disclose them.
func TestView_NoVoteDataOutsidePhases(t *testing.T) {
	g := testGame(types.PhaseTeamSelection)
	g.Votes["p1"] = true
	g.QuestVotes["p1"] = true
	g.LastVote = &types.VoteResult{Approved: true}

	v := View(g, "p1")
	assert.Empty(t, v.VotedIDs)
	assert.Nil(t, v.VoteResult)
	assert.Empty(t, v.SubmittedIDs)
	assert.Nil(t, v.Assassination)
}
