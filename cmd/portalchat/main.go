package main

import (
	"context"
	"io"
	"log"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/DeCamin0/decaminoserviciosapp-sub003/internal/api"
	"github.com/DeCamin0/decaminoserviciosapp-sub003/internal/config"
	"github.com/DeCamin0/decaminoserviciosapp-sub003/internal/models"
	"github.com/DeCamin0/decaminoserviciosapp-sub003/internal/push"
	"github.com/DeCamin0/decaminoserviciosapp-sub003/internal/service"
	"github.com/DeCamin0/decaminoserviciosapp-sub003/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Token == "" {
		log.Fatal("CHAT_TOKEN is required")
	}
	if cfg.ActorID == 0 {
		log.Fatal("CHAT_USER_ID is required")
	}

	logger := newLogger(cfg)

	actor := models.Actor{
		ID:   cfg.ActorID,
		Name: cfg.ActorName,
		Role: models.Role(strings.ToLower(cfg.ActorRole)),
	}

	client := api.NewClient(cfg.APIBaseURL, cfg.Token)
	state := store.NewChatState()

	rooms := service.NewRoomService(client, state, actor, logger)
	syncSvc := service.NewSyncService(client, state, actor, cfg.PollInterval, logger)
	presence := service.NewPresenceService(client, state, logger)
	receipts := service.NewReceiptService(client, state, syncSvc, actor, cfg.ReceiptDebounce, cfg.ComposingIdle, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer := push.NewConsumer(cfg.PushURL, cfg.Token, presence, syncSvc, logger)
	go consumer.Run(ctx)

	app := newApp(ctx, actor, state, rooms, syncSvc, presence, receipts, logger)
	if err := app.run(); err != nil {
		logger.Error().Err(err).Msg("ui terminated")
		os.Exit(1)
	}

	syncSvc.Close()
	receipts.Close()
}

// newLogger writes structured logs to the configured file; the terminal
// itself belongs to the UI.
func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out io.Writer = io.Discard
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			out = f
		}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
