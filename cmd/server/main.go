package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hirehall/dealflow/internal/config"
	"github.com/hirehall/dealflow/internal/coordinator"
	"github.com/hirehall/dealflow/internal/domain/project"
	"github.com/hirehall/dealflow/internal/notify"
	"github.com/hirehall/dealflow/internal/sqlite"
	"github.com/hirehall/dealflow/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		logger.Error("failed to prepare database path", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	projectRepo := sqlite.NewProjectRepository(db)
	quoteRepo := sqlite.NewQuoteRepository(db)
	revisionRepo := sqlite.NewRevisionRepository(db)
	escrowRepo := sqlite.NewEscrowRepository(db)
	notificationRepo := sqlite.NewNotificationRepository(db)

	projectSvc := project.NewService(projectRepo, logger)
	notifySvc := notify.NewService(notificationRepo, logger)
	coord := coordinator.New(projectRepo, quoteRepo, revisionRepo, escrowRepo, notifySvc, logger)

	resolver := &apiKeyResolver{db: db}
	router := transport.NewServer(transport.Services{
		Coordinator:   coord,
		Projects:      projectSvc,
		Notifications: notifySvc,
		Quotes:        quoteRepo,
		Revisions:     revisionRepo,
		Escrows:       escrowRepo,
	}, transport.AuthMiddleware(resolver))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	waitForShutdown(logger, httpServer)
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func waitForShutdown(logger *slog.Logger, server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type apiKeyResolver struct {
	db *sqlite.DB
}

func (r *apiKeyResolver) ResolveActor(ctx context.Context, token string) (coordinator.Actor, error) {
	hash := hashToken(token)
	var actor coordinator.Actor
	err := r.db.QueryRowContext(ctx,
		`SELECT actor_id, actor_role FROM api_keys WHERE key_hash = ?`, hash).
		Scan(&actor.ID, &actor.Role)
	if err != nil || actor.ID == "" {
		return coordinator.Actor{}, fmt.Errorf("unauthorized: invalid token")
	}
	return actor, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
