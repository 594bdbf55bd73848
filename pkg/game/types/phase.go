package types

// Phase is the current stage of a match's state machine. Phases only move
// forward; the team_selection -> team_vote -> vote_result cycle repeats for
// consecutive proposal rounds within a quest.
type Phase string

const (
	PhaseLobby         Phase = "lobby"
	PhaseTeamSelection Phase = "team_selection"
	PhaseTeamVote      Phase = "team_vote"
	PhaseVoteResult    Phase = "vote_result"
	PhaseQuest         Phase = "quest"
	PhaseQuestResult   Phase = "quest_result"
	PhaseAssassination Phase = "assassination"
	PhaseGameOver      Phase = "game_over"
)

func (p Phase) String() string {
	return string(p)
}

// Terminal reports whether the match is over. A terminal game rejects every
// further action.
func (p Phase) Terminal() bool {
	return p == PhaseGameOver
}
