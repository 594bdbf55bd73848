package middleware

import (
	"context"
	"net/http"

	"github.com/resistance-game/avalon/pkg/log"
)

type ContextKey int

const (
	// PlayerContextKey is the key used to store the player ID in the request context
	PlayerContextKey ContextKey = iota
)

// PlayerHeader carries the caller's player ID. WebSocket clients cannot set
// headers, so the playerId query parameter is accepted as a fallback.
const PlayerHeader = "X-Player-ID"

// NewCORSMiddleware answers preflight requests and stamps every response
// with the allowed origin.
func NewCORSMiddleware(allowOrigin string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+PlayerHeader)
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NewPlayerMiddleware extracts the caller's player ID and stores it in the
// request context. An empty ID is allowed; handlers that require a player
// reject the request themselves.
func NewPlayerMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			playerID := r.Header.Get(PlayerHeader)
			if playerID == "" {
				playerID = r.URL.Query().Get("playerId")
			}
			ctx := context.WithValue(r.Context(), PlayerContextKey, playerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PlayerID returns the player ID stored by NewPlayerMiddleware, or "".
func PlayerID(r *http.Request) string {
	playerID, ok := r.Context().Value(PlayerContextKey).(string)
	if !ok {
		log.Debug("no player ID in request context")
		return ""
	}
	return playerID
}
