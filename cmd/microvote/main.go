package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"github.com/microvote/microvote/internal/api"
	"github.com/microvote/microvote/internal/clock"
	"github.com/microvote/microvote/internal/config"
	"github.com/microvote/microvote/internal/display"
	"github.com/microvote/microvote/internal/handlers"
	"github.com/microvote/microvote/internal/service"
	"github.com/microvote/microvote/internal/store/postgres"
	"github.com/microvote/microvote/internal/telegram"
	"github.com/microvote/microvote/pkg/logger"
)

func main() {
	// A .env file is a convenience for local runs; in production the
	// variables come from the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel)
	l.Info("Starting MicroVote...")

	// Database
	db, err := config.NewDatabase(cfg.DatabaseURL, l)
	if err != nil {
		l.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate("migrations"); err != nil {
		l.Fatalf("Failed to run migrations: %v", err)
	}

	// Service layer
	st := postgres.New(db.DB)
	svc := service.New(st, l)

	// Telegram bot
	bot, err := telegram.NewBot(cfg.TelegramToken, l)
	if err != nil {
		l.Fatalf("Failed to create Telegram bot: %v", err)
	}

	router := bot.Router()
	router.Register("start", handlers.NewStartHandler(l))
	router.Register("help", handlers.NewHelpHandler(l))

	// Polls
	router.Register("newpoll", handlers.NewNewPollHandler(svc, l))
	router.Register("mine", handlers.NewMineHandler(svc, l))
	router.Register("result", handlers.NewResultHandler(svc, l))

	// Laws
	router.Register("newlaw", handlers.NewNewLawHandler(svc, l))
	router.Register("law", handlers.NewLawLookupHandler(svc, l))
	router.Register("laws", handlers.NewLawsHandler(svc, l))

	// Chat settings
	router.Register("quorum", handlers.NewQuorumHandler(svc, l))
	router.Register("limits", handlers.NewLimitsHandler(svc, l))
	router.Register("notify", handlers.NewNotifyHandler(svc, l))

	// Replies to poll messages cast votes.
	router.SetReplyHandler(handlers.NewVoteHandler(svc, l))

	// Every group message marks its sender active, which is what grants
	// vote eligibility for polls that close later.
	router.SetMessageHook(func(message *tgbotapi.Message) {
		chatName := message.Chat.Title
		if message.Chat.ID >= 0 {
			chatName = "Myself"
		}
		if err := svc.LogUser(context.Background(), message.Chat.ID, chatName, message.From.ID); err != nil {
			l.WithError(err).Warn("Failed to log user activity")
		}
	})

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		l.Info("Received shutdown signal...")
		cancel()
	}()

	// Notify opted-in voters when polls close.
	go svc.StartCloseAnnouncer(ctx, time.Minute, func(userID, pollID int64) {
		poll, err := svc.Poll(context.Background(), pollID)
		if err != nil || poll == nil {
			return
		}
		text := "A poll you could vote in has closed.\n" +
			display.ResultText(service.Tally(poll)) + "\n" +
			display.PollStatusLine(poll, clock.Now())
		if err := bot.SendHTML(userID, text); err != nil {
			l.WithError(err).WithField("user_id", userID).Warn("Failed to send close notification")
		}
	})

	// HTTP API and metrics
	apiServer := api.NewServer(svc, l)
	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: apiServer.Handler(),
	}

	go func() {
		l.Infof("HTTP server listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Errorf("HTTP server error: %v", err)
		}
	}()

	go func() {
		if err := bot.Start(ctx); err != nil {
			l.Errorf("Bot error: %v", err)
		}
	}()

	l.Info("MicroVote started successfully")

	<-ctx.Done()

	l.Info("Shutting down HTTP server...")
	httpServer.Close()

	l.Info("MicroVote stopped")
}
