// Package main initializes and starts the kakeibo HTTP server,
// setting up configuration, logging, database connections, repositories,
// services, handlers, the session sweeper and optional TLS.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/atinyakov/kakeibo/internal/config"
	"github.com/atinyakov/kakeibo/internal/credential"
	"github.com/atinyakov/kakeibo/internal/db"
	"github.com/atinyakov/kakeibo/internal/logger"
	"github.com/atinyakov/kakeibo/internal/repository"
	"github.com/atinyakov/kakeibo/internal/server/handler/http"
	"github.com/atinyakov/kakeibo/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const shutdownTimeout = 10 * time.Second

// sessionStore is satisfied by both the SQL and the in-memory session repositories.
type sessionStore interface {
	service.SessionRepository
	db.ExpiredSessionDeleter
}

func main() {
	// Parse .env, command-line, config file and environment configuration.
	options, err := config.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(2)
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, options, zapLogger); err != nil {
		zapLogger.Fatal("server stopped with error", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}

// run wires the application and serves until ctx is cancelled.
func run(ctx context.Context, options *config.Options, zapLogger *zap.Logger) error {
	dialect := db.Dialect(options.DatabaseDriver)
	conn, err := db.Init(dialect, options.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("cannot init database: %w", err)
	}
	defer conn.Close()

	// Initialize repositories for users, sessions and items.
	authRepo := repository.NewAuthRepository(conn, dialect)
	itemRepo := repository.NewItemRepository(conn, dialect)
	var sessionRepo sessionStore = repository.NewSessionRepository(conn, dialect)
	if options.SessionStore == "memory" {
		sessionRepo = repository.NewMemorySessionRepository()
	}

	// Initialize business-logic services.
	sessions := service.NewSessionManager(sessionRepo, time.Duration(options.SessionTTL))
	authService := service.NewAuthService(authRepo, credential.NewBcryptHasher(options.BcryptCost), sessions)
	ledgerService := service.NewLedgerService(itemRepo)

	// Create HTTP handlers and the router.
	authHandler := &http.AuthHandler{AuthService: authService, Logger: zapLogger, SecureCookie: options.SecureCookie}
	itemHandler := &http.ItemHandler{LedgerService: ledgerService, Logger: zapLogger}
	router := http.NewRouter(authHandler, itemHandler, sessions, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if options.TLSEnabled() {
		server.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return db.RunSessionCleaner(gctx, sessionRepo, time.Duration(options.SessionSweepInterval), zapLogger)
	})

	g.Go(func() error {
		var err error
		if options.TLSEnabled() {
			zapLogger.Info("starting HTTPS server", zap.String("addr", options.Address))
			err = server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
		} else {
			zapLogger.Info("starting HTTP server", zap.String("addr", options.Address))
			err = server.ListenAndServe()
		}
		if errors.Is(err, nethttp.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start server: %w", err)
	})

	g.Go(func() error {
		<-gctx.Done()
		zapLogger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
