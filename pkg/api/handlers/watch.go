package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/resistance-game/avalon/pkg/api/middleware"
	"github.com/resistance-game/avalon/pkg/game"
	"github.com/resistance-game/avalon/pkg/log"
	"github.com/resistance-game/avalon/pkg/metrics"
	"nhooyr.io/websocket"
)

const writeTimeout = 10 * time.Second

// HandleWatchGame upgrades to a WebSocket and pushes the caller's redacted
// view on connect and after every accepted action on the game. Each push is
// recomputed for this viewer; the socket carries views only, never commands.
func HandleWatchGame(manager *game.Manager, allowOrigin string) http.HandlerFunc {
	acceptOpts := &websocket.AcceptOptions{}
	if allowOrigin == "*" {
		acceptOpts.InsecureSkipVerify = true
	} else if allowOrigin != "" {
		acceptOpts.OriginPatterns = []string{allowOrigin}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		code := gameCode(r)
		playerID := middleware.PlayerID(r)

		// Reject unknown games before upgrading.
		if _, err := manager.State(r.Context(), code, playerID); err != nil {
			writeError(w, err)
			return
		}

		conn, err := websocket.Accept(w, r, acceptOpts)
		if err != nil {
			log.Error("failed to accept websocket: %v", err)
			return
		}
		defer conn.Close(websocket.StatusInternalError, "closed")

		metrics.Watchers.Inc()
		defer metrics.Watchers.Dec()

		changes, cancel := manager.Broker().Subscribe(code)
		defer cancel()

		// CloseRead drains incoming frames and cancels the context when the
		// client goes away.
		ctx := conn.CloseRead(r.Context())

		if err := pushView(ctx, conn, manager, code, playerID); err != nil {
			log.Debug("failed to push initial view: %v", err)
			return
		}

		for {
			select {
			case <-ctx.Done():
				conn.Close(websocket.StatusNormalClosure, "")
				return
			case <-changes:
				if err := pushView(ctx, conn, manager, code, playerID); err != nil {
					log.Debug("failed to push view: %v", err)
					return
				}
			}
		}
	}
}

func pushView(ctx context.Context, conn *websocket.Conn, manager *game.Manager, code, playerID string) error {
	v, err := manager.State(ctx, code, playerID)
	if err != nil {
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, b)
}
