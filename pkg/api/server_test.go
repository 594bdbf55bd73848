package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/resistance-game/avalon/pkg/api/middleware"
	"github.com/resistance-game/avalon/pkg/game"
	"github.com/resistance-game/avalon/pkg/game/roles"
	"github.com/resistance-game/avalon/pkg/game/types"
	"github.com/resistance-game/avalon/pkg/game/view"
	"github.com/resistance-game/avalon/pkg/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type joinResponse struct {
	PlayerID string          `json:"playerId"`
	Game     view.PublicView `json:"game"`
}

type testClient struct {
	t      *testing.T
	server *httptest.Server
}

func newTestClient(t *testing.T) *testClient {
	t.Helper()
	manager := game.NewManager(game.NewManagerOptions{
		Repository: repositories.NewInMemoryRepository(),
	})
	server := httptest.NewServer(NewRouter(manager, "*"))
	t.Cleanup(server.Close)
	return &testClient{t: t, server: server}
}

// do sends a request and returns the response status and body.
func (c *testClient) do(method, path, playerID string, body interface{}) (int, []byte) {
	c.t.Helper()

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, c.server.URL+path, reqBody)
	require.NoError(c.t, err)
	if playerID != "" {
		req.Header.Set(middleware.PlayerHeader, playerID)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, respBody
}

func (c *testClient) view(path, playerID string) *view.PublicView {
	c.t.Helper()
	status, body := c.do(http.MethodGet, path, playerID, nil)
	require.Equal(c.t, http.StatusOK, status, "body: %s", body)
	v := &view.PublicView{}
	require.NoError(c.t, json.Unmarshal(body, v))
	return v
}

func (c *testClient) post(path, playerID string, body interface{}) *view.PublicView {
	c.t.Helper()
	status, respBody := c.do(http.MethodPost, path, playerID, body)
	require.Equal(c.t, http.StatusOK, status, "body: %s", respBody)
	v := &view.PublicView{}
	require.NoError(c.t, json.Unmarshal(respBody, v))
	return v
}

// TestAPI_FullGame drives a complete match through the HTTP surface: lobby,
// start, one approved quest round, and the error statuses along the way.
func TestAPI_FullGame(t *testing.T) {
	c := newTestClient(t)

	// Create the game with the host.
	status, body := c.do(http.MethodPost, "/api/games", "", map[string]string{"hostName": "alice"})
	require.Equal(t, http.StatusCreated, status, "body: %s", body)
	created := &joinResponse{}
	require.NoError(t, json.Unmarshal(body, created))
	require.NotEmpty(t, created.PlayerID)
	require.Len(t, created.Game.Code, 6)

	code := created.Game.Code
	base := "/api/games/" + code
	players := map[string]string{"alice": created.PlayerID}

	// Five more players join; codes are case-insensitive on the wire.
	for _, name := range []string{"bob", "carol", "dave", "erin", "frank"} {
		status, body := c.do(http.MethodPost, "/api/games/"+strings.ToLower(code)+"/join", "", map[string]string{"name": name})
		require.Equal(t, http.StatusOK, status, "body: %s", body)
		joined := &joinResponse{}
		require.NoError(t, json.Unmarshal(body, joined))
		players[name] = joined.PlayerID
	}

	v := c.view(base, players["alice"])
	assert.Equal(t, types.PhaseLobby, v.Phase)
	assert.Len(t, v.Players, 6)

	// Knowledge is unavailable before roles are dealt.
	status, _ = c.do(http.MethodGet, base+"/knowledge", players["alice"], nil)
	assert.Equal(t, http.StatusBadRequest, status)

	// Only the host can start; the rejection reason comes back verbatim.
	status, body = c.do(http.MethodPost, base+"/start", players["bob"], nil)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "only the host can start the game", strings.TrimSpace(string(body)))

	v = c.post(base+"/start", players["alice"], nil)
	assert.Equal(t, types.PhaseTeamSelection, v.Phase)
	for _, p := range v.Players {
		assert.Empty(t, p.Role, "roles must stay hidden after start")
	}

	// Every player can fetch their knowledge now.
	for name, id := range players {
		status, body := c.do(http.MethodGet, base+"/knowledge", id, nil)
		require.Equal(t, http.StatusOK, status, "player %s, body: %s", name, body)
		knowledge := &roles.Knowledge{}
		require.NoError(t, json.Unmarshal(body, knowledge))
		require.True(t, knowledge.Role.Valid())
	}

	// Find the leader and an ordered roster from the public view.
	var leaderID string
	ids := make([]string, 0, len(v.Players))
	for _, p := range v.Players {
		ids = append(ids, p.ID)
	}
	for _, id := range players {
		pv := c.view(base, id)
		require.NotNil(t, pv.You)
		if pv.You.IsLeader {
			leaderID = id
		}
	}
	require.NotEmpty(t, leaderID)

	// Propose the first three roster slots and approve unanimously.
	team := ids[:3]
	v = c.post(base+"/propose", leaderID, map[string][]string{"team": team})
	assert.Equal(t, types.PhaseTeamVote, v.Phase)

	for _, id := range players {
		v = c.post(base+"/vote", id, map[string]bool{"approve": true})
	}
	require.Equal(t, types.PhaseVoteResult, v.Phase)
	require.NotNil(t, v.VoteResult)
	assert.True(t, v.VoteResult.Approved)
	assert.Equal(t, 6, v.VoteResult.ApproveCount)

	v = c.post(base+"/vote/continue", players["alice"], nil)
	assert.Equal(t, types.PhaseQuest, v.Phase)

	// All team members play success, which both camps may do.
	for _, id := range team {
		v = c.post(base+"/quest", id, map[string]bool{"success": true})
	}
	require.Equal(t, types.PhaseQuestResult, v.Phase)
	require.Len(t, v.QuestResults, 1)
	assert.True(t, v.QuestResults[0].Success)

	v = c.post(base+"/quest/continue", players["alice"], nil)
	assert.Equal(t, types.PhaseTeamSelection, v.Phase)
	assert.Equal(t, 1, v.CurrentQuest)
}

func TestAPI_GameNotFound(t *testing.T) {
	c := newTestClient(t)

	status, _ := c.do(http.MethodGet, "/api/games/NOSUCH", "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = c.do(http.MethodPost, "/api/games/NOSUCH/start", "someone", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPI_MissingPlayerID(t *testing.T) {
	c := newTestClient(t)

	status, body := c.do(http.MethodPost, "/api/games", "", map[string]string{"hostName": "alice"})
	require.Equal(t, http.StatusCreated, status)
	created := &joinResponse{}
	require.NoError(t, json.Unmarshal(body, created))

	status, _ = c.do(http.MethodPost, "/api/games/"+created.Game.Code+"/start", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPI_Healthz(t *testing.T) {
	c := newTestClient(t)
	status, body := c.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", strings.TrimSpace(string(body)))
}

func TestAPI_InvalidBody(t *testing.T) {
	c := newTestClient(t)

	req, err := http.NewRequest(http.MethodPost, c.server.URL+"/api/games", strings.NewReader("{"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
