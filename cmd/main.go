package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"concord/auth"
	"concord/httpapi"
	"concord/internal"
	"concord/moderation"
	"concord/observability"
	"concord/repositories"
	"concord/runtime"
	"concord/runtime/workers"
	"concord/services"
	"concord/storage"
	"concord/ws"

	env "github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so deferred cleanup always executes before
// the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := internal.GetLoggerFromString(config.LogLevel)

	replacement, err := characterRune(config.ModerationReplacement)
	if err != nil {
		return err
	}

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Repositories & seed
	messageRepository := repositories.NewMessageRepository(db, log)
	userRepository := repositories.NewUserRepository(db)
	directoryRepository := repositories.NewDirectoryRepository(db)
	if err = directoryRepository.Seed(); err != nil {
		return fmt.Errorf("directory seed failed: %w", err)
	}

	// 4. Broadcast pipeline
	moderator, err := moderation.NewModerator(censoredWords(config.CensoredWords), replacement)
	if err != nil {
		return fmt.Errorf("moderator build failed: %w", err)
	}

	sup := workers.NewSupervisor(log, config.RestartInterval)
	registry := runtime.NewRegistry()
	promRegistry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(promRegistry)

	router := runtime.NewRouter(log, sup, registry, messageRepository,
		moderator, metrics, config.BufferSize, config.SinkTimeout)

	// 5. Services & transport
	tokens := auth.NewTokenManager(config.JWTSecret, config.TokenDuration)
	chatService := services.NewChatService(router, messageRepository, userRepository, config.HistoryLimit)
	authService := services.NewAuthService(userRepository, tokens)
	directoryService := services.NewDirectoryService(directoryRepository)

	wsHandler := ws.NewHandler(tokens, chatService, config.ConnectionBufferSize, config.AuthTimeout, log)
	uploads := storage.NewDiskStore(config.UploadDir, log)
	api := httpapi.NewAPI(authService, directoryService, chatService,
		uploads, config.StaticDir, log)

	// 6. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router.Start(ctx)

	// 7. HTTP server
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{
		Addr:    address,
		Handler: api.Router(wsHandler, promRegistry),
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Server running", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 8. Wait for stop or error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 9. Final cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	router.Stop()
	log.Info("Program stopped cleanly")

	return nil
}

func censoredWords(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	words := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			words = append(words, trimmed)
		}
	}
	return words
}

func characterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf("MODERATION_CHARACTER_REPLACEMENT must be a single character, got %q", str)
	}
	return r[0], nil
}
