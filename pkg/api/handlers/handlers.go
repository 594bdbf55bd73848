package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/resistance-game/avalon/pkg/api/middleware"
	"github.com/resistance-game/avalon/pkg/game"
	"github.com/resistance-game/avalon/pkg/game/roles"
	"github.com/resistance-game/avalon/pkg/locks"
	"github.com/resistance-game/avalon/pkg/log"
	"github.com/resistance-game/avalon/pkg/repositories"
)

type createGameRequest struct {
	HostName string `json:"hostName"`
}

type joinGameRequest struct {
	Name string `json:"name"`
}

type proposeRequest struct {
	Team []string `json:"team"`
}

type voteRequest struct {
	Approve bool `json:"approve"`
}

type questVoteRequest struct {
	Success bool `json:"success"`
}

type assassinateRequest struct {
	TargetID string `json:"targetId"`
}

// joinGameResponse pairs the new player's credentials with their first view.
// The player ID is the caller's secret; it is only ever returned here.
type joinGameResponse struct {
	PlayerID string      `json:"playerId"`
	Game     interface{} `json:"game"`
}

func HandleCreateGame(manager *game.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createGameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		v, host, err := manager.Create(r.Context(), req.HostName)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, joinGameResponse{
			PlayerID: host.ID,
			Game:     v,
		})
	}
}

func HandleJoinGame(manager *game.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req joinGameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		v, player, err := manager.Join(r.Context(), gameCode(r), req.Name)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, joinGameResponse{
			PlayerID: player.ID,
			Game:     v,
		})
	}
}

func HandleRejoinGame(manager *game.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := middleware.PlayerID(r)
		if playerID == "" {
			http.Error(w, "Missing player ID", http.StatusBadRequest)
			return
		}

		v, err := manager.Rejoin(r.Context(), gameCode(r), playerID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func HandleGetGame(manager *game.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := manager.State(r.Context(), gameCode(r), middleware.PlayerID(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func HandleGetKnowledge(manager *game.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := middleware.PlayerID(r)
		if playerID == "" {
			http.Error(w, "Missing player ID", http.StatusBadRequest)
			return
		}

		knowledge, err := manager.Knowledge(r.Context(), gameCode(r), playerID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, knowledge)
	}
}

func HandleStartGame(manager *game.Manager) http.HandlerFunc {
	return handleAction(func(r *http.Request, playerID string) (interface{}, error) {
		return manager.Start(r.Context(), gameCode(r), playerID)
	})
}

func HandlePropose(manager *game.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := middleware.PlayerID(r)
		if playerID == "" {
			http.Error(w, "Missing player ID", http.StatusBadRequest)
			return
		}
		var req proposeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		v, err := manager.Propose(r.Context(), gameCode(r), playerID, req.Team)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func HandleVote(manager *game.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := middleware.PlayerID(r)
		if playerID == "" {
			http.Error(w, "Missing player ID", http.StatusBadRequest)
			return
		}
		var req voteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		v, err := manager.Vote(r.Context(), gameCode(r), playerID, req.Approve)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func HandleContinueFromVote(manager *game.Manager) http.HandlerFunc {
	return handleAction(func(r *http.Request, playerID string) (interface{}, error) {
		return manager.ContinueFromVote(r.Context(), gameCode(r), playerID)
	})
}

func HandleQuestVote(manager *game.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := middleware.PlayerID(r)
		if playerID == "" {
			http.Error(w, "Missing player ID", http.StatusBadRequest)
			return
		}
		var req questVoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		v, err := manager.QuestVote(r.Context(), gameCode(r), playerID, req.Success)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func HandleContinueFromQuest(manager *game.Manager) http.HandlerFunc {
	return handleAction(func(r *http.Request, playerID string) (interface{}, error) {
		return manager.ContinueFromQuest(r.Context(), gameCode(r), playerID)
	})
}

func HandleAssassinate(manager *game.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := middleware.PlayerID(r)
		if playerID == "" {
			http.Error(w, "Missing player ID", http.StatusBadRequest)
			return
		}
		var req assassinateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		v, err := manager.Assassinate(r.Context(), gameCode(r), playerID, req.TargetID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// handleAction wraps the body-less POST actions that only need a player ID.
func handleAction(action func(r *http.Request, playerID string) (interface{}, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := middleware.PlayerID(r)
		if playerID == "" {
			http.Error(w, "Missing player ID", http.StatusBadRequest)
			return
		}

		v, err := action(r, playerID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// gameCode reads the {code} path variable. Codes are case-insensitive on the
// wire and canonically uppercase in storage.
func gameCode(r *http.Request) string {
	return strings.ToUpper(mux.Vars(r)["code"])
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response: %v", err)
	}
}

// writeError maps domain errors to HTTP statuses. Rule rejections surface
// their reason verbatim so clients can show it to the player.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case game.IsRejected(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case roles.IsNoKnowledge(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case repositories.IsNotFound(err):
		http.Error(w, "Game not found", http.StatusNotFound)
	case locks.IsAcquireTimeout(err):
		http.Error(w, "Game is busy, try again", http.StatusServiceUnavailable)
	default:
		log.Error("internal error handling request: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
