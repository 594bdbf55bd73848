package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/resistance-game/avalon/pkg/api"
	"github.com/resistance-game/avalon/pkg/game"
	"github.com/resistance-game/avalon/pkg/log"
	"github.com/resistance-game/avalon/pkg/repositories"
	"github.com/resistance-game/avalon/pkg/version"
)

func main() {
	port := flag.Int("port", 9090, "port to listen on")
	allowOrigin := flag.String("allow-origin", "*", "CORS allowed origin")
	logLevel := flag.String("log-level", "info", "Log level")
	gameTTL := flag.Duration("game-ttl", game.DefaultTTL, "how long games survive after their last action")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file loaded: %v", err)
	}

	log.Info("Starting server version %s", version.Get())
	ctx := context.Background()

	repository, err := newRepository(ctx, os.Getenv("AVALON_DATABASE_URL"))
	if err != nil {
		panic(fmt.Sprintf("Failed to create repository: %v", err))
	}
	defer repository.Close(ctx)

	manager := game.NewManager(game.NewManagerOptions{
		Repository: repository,
		TTL:        *gameTTL,
	})

	apiServerOpts := api.NewAPIServerOptions{
		Port:        *port,
		AllowOrigin: *allowOrigin,
		Manager:     manager,
	}
	tlsCertFile := os.Getenv("AVALON_TLS_CERT_FILE")
	tlsKeyFile := os.Getenv("AVALON_TLS_KEY_FILE")
	if tlsCertFile != "" && tlsKeyFile != "" {
		apiServerOpts.TLS = &api.TLSConfig{
			CertFile: tlsCertFile,
			KeyFile:  tlsKeyFile,
		}
	}
	server := api.NewAPIServer(apiServerOpts)
	go server.Start()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop server: %v", err)
	}
}

// newRepository selects the game store from the connection string scheme.
// An empty connection string means the in-memory store.
func newRepository(ctx context.Context, connStr string) (repositories.Repository, error) {
	if connStr == "" {
		log.Info("Using in-memory game store")
		return repositories.NewInMemoryRepository(), nil
	}

	u, err := url.Parse(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %v", err)
	}

	switch u.Scheme {
	case "memory":
		log.Info("Using in-memory game store")
		return repositories.NewInMemoryRepository(), nil
	case "redis", "rediss":
		log.Info("Using Redis game store")
		return repositories.NewRedisRepository(ctx, connStr)
	case "sqlite":
		path := u.Host + u.Path
		if path == "" {
			path = "avalon.db"
		}
		log.Info("Using SQLite game store at %s", path)
		return repositories.NewSQLiteRepository(ctx, path)
	case "postgres", "postgresql":
		log.Info("Using Postgres game store")
		return repositories.NewPostgresRepository(ctx, connStr)
	default:
		return nil, fmt.Errorf("unknown database type %q", u.Scheme)
	}
}
