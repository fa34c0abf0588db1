package transport

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/hirehall/dealflow/internal/coordinator"
)

// ErrUnauthorized indicates invalid or missing credentials.
var ErrUnauthorized = errors.New("unauthorized")

type actorKey struct{}

// ActorResolver resolves an authenticated actor from a bearer token.
type ActorResolver interface {
	ResolveActor(ctx context.Context, token string) (coordinator.Actor, error)
}

// ActorFromContext returns the actor from context, if present.
func ActorFromContext(ctx context.Context) (coordinator.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(coordinator.Actor)
	return actor, ok
}

// AuthMiddleware enforces bearer token authentication.
func AuthMiddleware(resolver ActorResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			actor, err := resolver.ResolveActor(r.Context(), token)
			if err != nil || actor.ID == "" {
				http.Error(w, "invalid bearer token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), actorKey{}, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
