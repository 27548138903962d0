package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/jabenka/bank-cards/internal/models"
)

type contextKey string

const actorContextKey contextKey = "actor"

// Actor is the authenticated caller of a request
type Actor struct {
	ID   uuid.UUID
	Role models.Role
}

// ActorFrom extracts the authenticated actor from the request context.
// The second return is false when the request carried no valid token.
func ActorFrom(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey).(Actor)
	return actor, ok
}

// AuthMiddleware validates the bearer token and stores the actor identity
// in the request context. Handlers pass the identity into services
// explicitly; nothing below this point reads ambient state.
func (h *Handler) AuthMiddleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				h.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Authorization header is required"})
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				h.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid Authorization header format"})
				return
			}

			userID, role, err := h.auth.ParseAccessToken(parts[1])
			if err != nil {
				h.writeError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), actorContextKey, Actor{ID: userID, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly rejects requests whose actor does not carry the ADMIN role
func (h *Handler) AdminOnly() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFrom(r.Context())
			if !ok {
				h.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "user not authenticated"})
				return
			}
			if actor.Role != models.RoleAdmin {
				h.writeJSON(w, http.StatusForbidden, errorResponse{Error: "admin role required"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
