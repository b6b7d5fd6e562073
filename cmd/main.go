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

	"whisperline/api"
	"whisperline/api/middleware"
	"whisperline/auth"
	"whisperline/repositories"
	"whisperline/runtime"
	"whisperline/runtime/workers"
	"whisperline/services"
	"whisperline/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting, so every defer (database close, supervisor
// shutdown) executes before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

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

	// 3. Core components
	registry := runtime.NewRegistry(config.PresenceBufferSize)
	fanout := runtime.NewRegistryFanout(log, registry)
	typing := runtime.NewTypingCoordinator(log, fanout, config.TypingTTL)

	messageRepository := repositories.NewMessageRepository(db, log)
	userRepository := repositories.NewUserRepository(db)

	issuer := auth.NewTokenIssuer(config.JWTSecret, config.AuthTokenDuration)
	authService := services.NewAuthService(userRepository, issuer)
	messageService := services.NewMessageService(log, messageRepository,
		userRepository, fanout, typing)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Background workers
	supervisor := workers.NewSupervisor(log)
	supervisor.Add(workers.NewPresenceFanout(log, registry.PresenceEvents(), fanout))
	go supervisor.Run(ctx)

	// 6. HTTP server (REST + live channel)
	gateway := ws.NewGateway(log, registry, typing, config.ConnectionBufferSize)
	handler := api.NewHandler(log, authService, messageService, userRepository,
		issuer, config.SecureCookies)
	authMw := middleware.NewAuthMiddleware(issuer, userRepository)
	router := api.NewRouter(log, handler, authMw, gateway)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: router}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown was not clean", "error", err)
	}
	log.Info("Program stopped cleanly")

	return nil
}
