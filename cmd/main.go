package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"github.com/itzme-challa/TalkStranger-chatbot/ai"
	"github.com/itzme-challa/TalkStranger-chatbot/internal"
	"github.com/itzme-challa/TalkStranger-chatbot/repositories"
	"github.com/itzme-challa/TalkStranger-chatbot/runtime"
	"github.com/itzme-challa/TalkStranger-chatbot/runtime/workers"
	"github.com/itzme-challa/TalkStranger-chatbot/services"
	"github.com/itzme-challa/TalkStranger-chatbot/telegram"
)

const maxResponderTurns = 10

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for the webhook server and workers.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	//  Defer will be executed before run() returned anything to main()
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Core: repositories and services over the store
	directory := repositories.NewParticipantRepository(db, log)
	conversations := repositories.NewConversationRepository(db, log, config.PendingLease)
	matcher := services.NewMatchService(directory, conversations, log, config.MatchMaxAttempts)

	bot := telegram.NewClient(config.BotToken, nil, log)
	relay := services.NewRelayService(conversations, bot, log)

	var responder ai.Responder
	if config.GeminiAPIKey != nil && config.GeminiModel != nil {
		responder = ai.NewGeminiResponder(
			*config.GeminiAPIKey, *config.GeminiModel,
			nil, ai.NewContextBuffer(maxResponderTurns),
		)
		log.Info("Fallback responder enabled", "model", *config.GeminiModel)
	}

	// 4. Dispatch: worker pool under supervision
	dispatcher := runtime.NewDispatcher(
		log, matcher, relay, bot, responder,
		config.NumberOfWorkers, config.BufferSize, config.SinkTimeout,
	)
	sup := workers.NewSupervisor(log).Add(dispatcher.Workers()...)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sup.Run(ctx)

	// 6. Webhook registration & HTTP server
	if err = bot.EnsureWebhook(ctx, config.WebhookURL, config.WebhookSecret); err != nil {
		return fmt.Errorf("webhook registration failed: %w", err)
	}

	handler := telegram.NewWebhookHandler(log, dispatcher, bot, config.WebhookSecret)
	server := &http.Server{
		Addr:    config.Addr(),
		Handler: handler,
	}

	if config.DebugPort != nil {
		internal.StartDebugServer(db, *config.DebugPort, nil, func() map[string]any {
			return map[string]any{
				"Workers": config.NumberOfWorkers,
				"Time":    time.Now().Format(time.RFC822),
			}
		})
		log.Info("Debug server started", "port", *config.DebugPort)
	}

	// Use an error channel to capture ListenAndServe() issues
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting webhook server", "address", config.Addr(), "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("webhook server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	log.Info("Program stopped cleanly")

	return nil
}
