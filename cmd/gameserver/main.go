// Package main provides the game server binary: a framed-TCP listener in
// front of the session core, lobby and game registries, and optional
// match-result persistence.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tilegame/internal/config"
	"github.com/cory-johannsen/tilegame/internal/frontend/tcp"
	"github.com/cory-johannsen/tilegame/internal/game/lobby"
	"github.com/cory-johannsen/tilegame/internal/game/match"
	"github.com/cory-johannsen/tilegame/internal/game/rules"
	"github.com/cory-johannsen/tilegame/internal/game/session"
	"github.com/cory-johannsen/tilegame/internal/gameserver"
	"github.com/cory-johannsen/tilegame/internal/observability"
	"github.com/cory-johannsen/tilegame/internal/server"
	"github.com/cory-johannsen/tilegame/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting game server",
		zap.String("addr", cfg.Server.Addr()),
	)

	// Load the deck.
	deck := rules.DefaultDeck()
	if cfg.Game.DeckFile != "" {
		deckStart := time.Now()
		deck, err = rules.LoadDeck(cfg.Game.DeckFile)
		if err != nil {
			logger.Fatal("loading deck", zap.Error(err))
		}
		logger.Info("deck loaded",
			zap.String("file", cfg.Game.DeckFile),
			zap.String("name", deck.Name),
			zap.Int("cards", deck.TotalCards()),
			zap.Duration("elapsed", time.Since(deckStart)),
		)
	}
	engine := rules.NewEngine(deck, cfg.Game.BoardSize, cfg.Game.HandSize)

	// Connect to PostgreSQL when match persistence is enabled.
	var (
		pool     *postgres.Pool
		recorder gameserver.MatchRecorder = gameserver.NopRecorder{}
	)
	if cfg.Database.Enabled {
		dbStart := time.Now()
		pool, err = postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		recorder = postgres.NewMatchResultRepository(pool.DB())
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
	}

	// Registries and handlers.
	sessions := session.NewRegistry()
	lobbies := lobby.NewRegistry(cfg.Lobby.Capacity)
	matches := match.NewRegistry(engine, lobbies, sessions, cfg.Lobby.MinPlayers, logger)
	timeouts := gameserver.NewTimeoutQueue()

	control := gameserver.NewControlHandler(
		sessions, lobbies, matches, timeouts, recorder,
		cfg.Session.HeartbeatTimeout, logger,
	)
	lobbyHandler := gameserver.NewLobbyHandler(sessions, lobbies, logger)
	gameHandler := gameserver.NewGameHandler(sessions, lobbies, matches, recorder, logger)
	dispatcher := gameserver.NewDispatcher(control, lobbyHandler, gameHandler, logger)

	service := gameserver.NewService(dispatcher, cfg.Server.OutboundBuffer, logger)
	sweeper := gameserver.NewSweeper(timeouts, dispatcher, service, cfg.Session.SweepInterval, logger)
	acceptor := tcp.NewAcceptor(cfg.Server, service, logger)

	// Wire lifecycle.
	lifecycle := server.NewLifecycle(logger)

	var stopSweeper func()
	lifecycle.Add("sweeper", &server.FuncService{
		StartFn: func() error {
			stopSweeper = sweeper.Start()
			return nil
		},
		StopFn: func() {
			if stopSweeper != nil {
				stopSweeper()
			}
		},
	})

	lifecycle.Add("acceptor", &server.FuncService{
		StartFn: acceptor.ListenAndServe,
		StopFn:  acceptor.Stop,
	})

	if pool != nil {
		quit := make(chan struct{})
		lifecycle.Add("postgres", &server.FuncService{
			StartFn: func() error {
				ticker := time.NewTicker(30 * time.Second)
				defer ticker.Stop()
				for {
					select {
					case <-ticker.C:
						if err := pool.Health(ctx, 5*time.Second); err != nil {
							logger.Warn("database health check failed", zap.Error(err))
						}
					case <-quit:
						return nil
					}
				}
			},
			StopFn: func() {
				close(quit)
				pool.Close()
			},
		})
	}

	logger.Info("game server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("addr", cfg.Server.Addr()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
