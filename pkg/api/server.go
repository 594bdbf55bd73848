package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/resistance-game/avalon/pkg/api/handlers"
	"github.com/resistance-game/avalon/pkg/api/middleware"
	"github.com/resistance-game/avalon/pkg/game"
	"github.com/resistance-game/avalon/pkg/log"
)

type APIServer struct {
	server *http.Server
	tls    *TLSConfig
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewAPIServerOptions struct {
	Port    int
	TLS     *TLSConfig
	Manager *game.Manager
	// AllowOrigin is the CORS allowed origin. Empty means "*".
	AllowOrigin string
}

// NewAPIServer creates a new http.Server for handling API requests
func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	router := NewRouter(opts.Manager, opts.AllowOrigin)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}
	return &APIServer{
		server: server,
		tls:    opts.TLS,
	}
}

// NewRouter builds the full route table.
func NewRouter(manager *game.Manager, allowOrigin string) *mux.Router {
	if allowOrigin == "" {
		allowOrigin = "*"
	}

	router := mux.NewRouter()
	router.Use(middleware.NewCORSMiddleware(allowOrigin))
	router.Use(middleware.NewPlayerMiddleware())

	games := router.PathPrefix("/api/games").Subrouter()
	games.HandleFunc("", handlers.HandleCreateGame(manager)).Methods(http.MethodPost, http.MethodOptions)
	games.HandleFunc("/{code}", handlers.HandleGetGame(manager)).Methods(http.MethodGet, http.MethodOptions)
	games.HandleFunc("/{code}/join", handlers.HandleJoinGame(manager)).Methods(http.MethodPost, http.MethodOptions)
	games.HandleFunc("/{code}/rejoin", handlers.HandleRejoinGame(manager)).Methods(http.MethodPost, http.MethodOptions)
	games.HandleFunc("/{code}/knowledge", handlers.HandleGetKnowledge(manager)).Methods(http.MethodGet, http.MethodOptions)
	games.HandleFunc("/{code}/start", handlers.HandleStartGame(manager)).Methods(http.MethodPost, http.MethodOptions)
	games.HandleFunc("/{code}/propose", handlers.HandlePropose(manager)).Methods(http.MethodPost, http.MethodOptions)
	games.HandleFunc("/{code}/vote", handlers.HandleVote(manager)).Methods(http.MethodPost, http.MethodOptions)
	games.HandleFunc("/{code}/vote/continue", handlers.HandleContinueFromVote(manager)).Methods(http.MethodPost, http.MethodOptions)
	games.HandleFunc("/{code}/quest", handlers.HandleQuestVote(manager)).Methods(http.MethodPost, http.MethodOptions)
	games.HandleFunc("/{code}/quest/continue", handlers.HandleContinueFromQuest(manager)).Methods(http.MethodPost, http.MethodOptions)
	games.HandleFunc("/{code}/assassinate", handlers.HandleAssassinate(manager)).Methods(http.MethodPost, http.MethodOptions)
	games.HandleFunc("/{code}/watch", handlers.HandleWatchGame(manager, allowOrigin)).Methods(http.MethodGet)

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	}).Methods(http.MethodGet)

	return router
}

// Start starts the APIServer
func (s *APIServer) Start() {
	var listenAndServe func() error
	if s.tls != nil {
		log.Info("API server listening on %s with TLS", s.server.Addr)
		listenAndServe = func() error {
			return s.server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("API server listening on %s", s.server.Addr)
		listenAndServe = s.server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("API server closed")
			return
		}
		log.Error("API server error: %v", err)
	}
}

// Stop stops the APIServer
func (s *APIServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
