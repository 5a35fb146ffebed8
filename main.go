package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/MarkussPinkovskis/ColorGen/avatar"
	"github.com/MarkussPinkovskis/ColorGen/config"
	"github.com/MarkussPinkovskis/ColorGen/eventlogger"
	"github.com/MarkussPinkovskis/ColorGen/palette"
	"github.com/MarkussPinkovskis/ColorGen/server"
	"github.com/MarkussPinkovskis/ColorGen/session"
	"github.com/MarkussPinkovskis/ColorGen/store"
	"github.com/MarkussPinkovskis/ColorGen/user"
)

func main() {
	cfg := config.MustLoad()

	db, dialect, err := store.Open(cfg)
	if err != nil {
		printErrorAndExit("database connection", err)
	}

	var (
		userRepo    user.Repository
		sessionRepo session.Repository
		evtlogger   eventlogger.EventLogger
	)
	switch dialect {
	case store.DialectPostgres:
		userRepo = user.NewPostgresRepository(db)
		sessionRepo = session.NewPostgresRepository(db, cfg.SessionTTL)
		evtlogger = eventlogger.NewPostgresEventLogger(db)
	default:
		userRepo = user.NewSQLiteRepository(db)
		sessionRepo = session.NewSQLiteRepository(db, cfg.SessionTTL)
		evtlogger = eventlogger.NewSQLiteEventLogger(db)
	}

	worker := eventlogger.NewWorker(evtlogger, 100)
	worker.Start()
	defer worker.Shutdown()

	avatarManager, err := avatar.NewManager(cfg.AvatarDir, userRepo)
	if err != nil {
		printErrorAndExit("avatar storage", err)
	}

	openAI := palette.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, cfg.UpstreamTimeout)
	palettes := palette.NewService(openAI)

	srv := server.New(userRepo, sessionRepo, avatarManager, palettes, worker, "templates", "static")

	slog.Info("server starting", "addr", cfg.Addr, "dialect", dialect)
	if err := http.ListenAndServe(cfg.Addr, srv); err != nil {
		printErrorAndExit("server stopped", err)
	}
}

func printErrorAndExit(msg string, e error) {
	slog.Error(msg, "error", e)
	os.Exit(1)
}
