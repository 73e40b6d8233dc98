package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"chatnet/ai"
	"chatnet/auth"
	"chatnet/infrastructure/httpapi"
	"chatnet/infrastructure/ws"
	"chatnet/internal"
	"chatnet/moderation"
	"chatnet/repositories"
	"chatnet/repositories/storage"
	"chatnet/runtime"
	"chatnet/runtime/workers"
	"chatnet/services"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so every defer executes before exit.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Storage (BadgerDB + bluge index)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	index, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return fmt.Errorf("index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing bluge index...")
		_ = index.Close()
	}()

	// 3. Moderation classifier
	censoredChar, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return err
	}
	moderateWords, err := loadWords(config.ModerateWordsFile)
	if err != nil {
		return fmt.Errorf("moderate word list: %w", err)
	}
	severeWords, err := loadWords(config.SevereWordsFile)
	if err != nil {
		return fmt.Errorf("severe word list: %w", err)
	}
	classifier, err := moderation.NewClassifier(moderateWords, severeWords, censoredChar, log)
	if err != nil {
		return fmt.Errorf("classifier build failed: %w", err)
	}

	// 4. Repositories & runtime state
	accountRepository := repositories.NewAccountRepository(db)
	denylistRepository := repositories.NewDenylistRepository(db)
	messageRepository := repositories.NewMessageRepository(db, log, config.LimitMessages)
	reportRepository := repositories.NewReportRepository(db, index, log)

	registry := runtime.NewRegistry()
	state := runtime.NewState(log, registry, denylistRepository, config.ModeratorName, config.BufferSize)

	// The lobby is always present, even on a cold start.
	if _, err := state.CreatePublicRoom("lobby", ""); err != nil {
		return err
	}

	// 5. Services
	tokens := auth.NewTokenManager(config.AuthTokenSecret, config.AuthTokenDuration)
	authService := services.NewAuthService(accountRepository, denylistRepository, tokens)

	uploads, err := storage.NewUploadStore(config.UploadDir, log)
	if err != nil {
		return err
	}

	prompts := make(chan workers.Prompt, config.PromptBuffer)
	chatService := services.NewChatService(log, state, authService, classifier,
		uploads, prompts, config.GuestMessageLimit, config.BotName)
	moderationService := services.NewModerationService(log, state, accountRepository, denylistRepository)
	reportService := services.NewReportService(log, state, reportRepository,
		accountRepository, denylistRepository, config.SnapshotSize)

	// 6. Workers under supervision
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(
		workers.NewEventFanout(log, state.Events(), state, config.SinkTimeout,
			storage.NewArchiveSink(messageRepository, log)),
		workers.NewBotResponder(log, prompts, ai.NewScriptedResponder(config.BotName), state, config.BotName),
		workers.NewAdminAlertBatcher(log, state.Alerts(), state.Events(), config.AlertFlushInterval),
		workers.NewHealthMonitoringWorker(log, state.Alerts(), config.MetricInterval, config.CPUThreshold),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go sup.Run(ctx)

	// 7. Transport
	app := fiber.New()
	app.Use(logger.New())
	app.Static("/uploads", config.UploadDir)

	httpapi.NewHandler(log, authService, reportService).Register(app)
	wsHandler := ws.NewHandler(log, chatService, moderationService, reportService, config.HistorySize)
	app.Get("/ws", wsHandler.UpgradeMiddleware, websocket.New(wsHandler.Handle))

	internal.StartDebugServer(db, config.DebugPort, "/inspect", nil, func() map[string]any {
		return map[string]any{
			"Online": state.Online(),
			"Rooms":  len(state.Directory()),
			"Time":   time.Now().Format(time.RFC822),
		}
	})

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting server", "address", address, "at", time.Now().UTC())
		if err := app.Listen(address); err != nil {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// 8. Wait for stop or error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	_ = app.Shutdown()
	sup.Stop()
	log.Info("Program stopped cleanly")
	return nil
}

// loadWords reads one dictionary word per line, skipping blanks and
// comment lines.
func loadWords(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var words []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	return words, nil
}
