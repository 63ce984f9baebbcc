// Package main is the entry point of the application
package main

import (
	"flag"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/indichess/live-server/internal/auth"
	"github.com/indichess/live-server/pkg/config"
	"github.com/indichess/live-server/pkg/events"
	"github.com/indichess/live-server/pkg/game"
	"github.com/indichess/live-server/pkg/matchmaking"
	"github.com/indichess/live-server/pkg/rules"
	"github.com/indichess/live-server/pkg/server"
	"github.com/indichess/live-server/pkg/store"
)

// application encapsulates global dependencies
type application struct {
	Auth      *auth.TokenAuth
	Logger    *zap.Logger
	Config    *config.Config
	Publisher *events.Publisher
	Manager   *game.Manager
	Queue     *matchmaking.Queue
	Hub       *server.Hub
	Writer    *store.AsyncWriter
	Server    *http.Server

	upgrader websocket.Upgrader

	StartTime time.Time
}

func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	port := flag.String("port", "8080", "server port")
	flag.Parse()

	// Initialize logger
	logger := initLogger(*debug)
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file loaded", zap.Error(err))
	}

	cfg, err := config.Load(*debug, *port)
	if err != nil {
		logger.Fatal("loading config error", zap.Error(err))
	}

	// Initialize event publisher
	publisher := events.NewPublisher()

	// Initialize durable store: Postgres when configured, memory otherwise.
	var backing store.Store
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("postgres connection error", zap.Error(err))
		}
		defer pg.Close()
		backing = pg
	} else {
		logger.Info("no DATABASE_URL set, match records are in-memory only")
		backing = store.NewMemoryStore()
	}

	writer := store.NewAsyncWriter(backing, cfg.StoreWorkers, cfg.StoreQueueSize, logger)
	writer.Start()

	// Initialize game manager
	gm := game.NewManager(writer, publisher, logger)
	gm.SetIdleTimeout(cfg.SessionIdleTimeout)
	if cfg.ValidateLegality {
		gm.SetLegalityChecker(rules.NewChecker())
		logger.Info("move legality validation enabled")
	}
	gm.StartSweeper(cfg.SweepInterval)

	// Initialize matchmaking queue
	queue := matchmaking.NewQueue(gm, logger)
	queue.SetEntryTTL(cfg.QueueEntryTTL)
	queue.StartSweeper(cfg.QueueSweepInterval)

	hub := server.NewHub(gm, publisher, logger)

	app := &application{
		Auth:      auth.NewTokenAuth(cfg.AuthTokens),
		Logger:    logger,
		Config:    cfg,
		Publisher: publisher,
		Manager:   gm,
		Queue:     queue,
		Hub:       hub,
		Writer:    writer,
		StartTime: time.Now(),
	}

	app.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,

		CheckOrigin: func(r *http.Request) bool {
			if cfg.AllowedOrigin == "" {
				return true
			}
			return cfg.AllowedOrigin == r.Header.Get("Origin")
		},
	}

	go app.Hub.Run()

	if err := app.serve(); err != nil {
		logger.Fatal("error serving", zap.Error(err))
	}
}

func initLogger(debug bool) *zap.Logger {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	return logger
}

// Shutdown cleans up resources
func (app *application) Shutdown() {
	if app.Hub != nil {
		app.Hub.Shutdown()
	}
	if app.Queue != nil {
		app.Queue.Close()
	}
	if app.Manager != nil {
		app.Manager.Close()
	}
	if app.Writer != nil {
		app.Writer.Close()
	}

	app.Logger.Info("All components shut down successfully")
}
