package testserver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hirehall/dealflow/internal/coordinator"
	"github.com/hirehall/dealflow/internal/domain/project"
	"github.com/hirehall/dealflow/internal/notify"
	"github.com/hirehall/dealflow/internal/sqlite"
	"github.com/hirehall/dealflow/internal/transport"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server *httptest.Server
	DB     *sqlite.DB
}

// New starts an in-memory server. Call AddAPIKey to register actor tokens
// before issuing authenticated requests.
func New(t *testing.T) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	projectRepo := sqlite.NewProjectRepository(db)
	quoteRepo := sqlite.NewQuoteRepository(db)
	revisionRepo := sqlite.NewRevisionRepository(db)
	escrowRepo := sqlite.NewEscrowRepository(db)
	notificationRepo := sqlite.NewNotificationRepository(db)

	projectSvc := project.NewService(projectRepo, nil)
	notifySvc := notify.NewService(notificationRepo, nil)
	coord := coordinator.New(projectRepo, quoteRepo, revisionRepo, escrowRepo, notifySvc, nil)

	resolver := &apiKeyResolver{db: db}
	server := httptest.NewServer(transport.NewServer(transport.Services{
		Coordinator:   coord,
		Projects:      projectSvc,
		Notifications: notifySvc,
		Quotes:        quoteRepo,
		Revisions:     revisionRepo,
		Escrows:       escrowRepo,
	}, transport.AuthMiddleware(resolver)))

	ts := &TestServer{
		Server: server,
		DB:     db,
	}

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

// AddAPIKey registers a bearer token for an actor.
func (ts *TestServer) AddAPIKey(token, actorID string, role coordinator.Role) error {
	hash := hashToken(token)
	_, err := ts.DB.Exec(
		`INSERT INTO api_keys (key_hash, actor_id, actor_role, created_at) VALUES (?, ?, ?, ?)`,
		hash, actorID, role, time.Now(),
	)
	return err
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
		return coordinator.Actor{}, transport.ErrUnauthorized
	}
	return actor, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
