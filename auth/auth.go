// Package auth carries the acting user through request contexts.
// Authentication happens upstream: a gateway sets the actor header after
// verifying the caller, and this package only trusts and parses it.
package auth

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

type ctxKey string

const (
	// ActorHeader names the header holding the numeric user ID.
	ActorHeader  = "X-Actor-ID"
	userIDCtxKey = ctxKey("userID")
)

// UserVerifier is an optional callback to validate that the actor still exists.
type UserVerifier func(ctx context.Context, uid uint) bool

// ParseActor returns the user ID from the actor header.
func ParseActor(r *http.Request) (uint, bool) {
	raw := strings.TrimSpace(r.Header.Get(ActorHeader))
	if raw == "" {
		return 0, false
	}
	id64, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id64 == 0 {
		return 0, false
	}
	return uint(id64), true
}

// WithUserID stores user id in context.
func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, userIDCtxKey, userID)
}

// UserIDFromContext extracts user id.
func UserIDFromContext(ctx context.Context) (uint, bool) {
	v := ctx.Value(userIDCtxKey)
	if v == nil {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// Middleware attaches the actor to the request context if present.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uid, ok := ParseActor(r); ok {
			r = r.WithContext(WithUserID(r.Context(), uid))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth answers 401 when no actor is attached or verify rejects it.
// A nil verify accepts every parsed actor.
func RequireAuth(verify UserVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid, ok := UserIDFromContext(r.Context())
			if !ok || (verify != nil && !verify(r.Context(), uid)) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
