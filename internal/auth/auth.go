package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	applog "seta/internal/log"
)

type contextKey string

const OwnerIDKey contextKey = "owner_id"

var ErrUnknownToken = errors.New("unknown token")

// Resolver maps a bearer token to the owner it authenticates.
type Resolver interface {
	Resolve(ctx context.Context, token string) (ownerID string, err error)
}

// StaticResolver resolves tokens from a fixed token to owner table.
type StaticResolver map[string]string

func (s StaticResolver) Resolve(_ context.Context, token string) (string, error) {
	if owner, ok := s[token]; ok {
		return owner, nil
	}
	return "", ErrUnknownToken
}

// Middleware attaches the owner id to the request context when the
// request carries a resolvable bearer token. Requests without one pass
// through unauthenticated.
func Middleware(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			owner, err := resolver.Resolve(r.Context(), token)
			if err != nil || owner == "" {
				applog.FromContext(r.Context()).WithComponent(applog.ComponentAuth).
					InfoContext(r.Context(), "Bearer token not accepted", applog.FieldError, errString(err))
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithOwner(r.Context(), owner)
			ctx = applog.NewContext(ctx, applog.FromContext(ctx).With(applog.FieldOwnerID, owner))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireOwner rejects unauthenticated requests with onMissing, or a plain
// 401 when onMissing is nil.
func RequireOwner(onMissing func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := OwnerFromContext(r.Context()); !ok {
				if onMissing != nil {
					onMissing(w, r)
				} else {
					http.Error(w, "unauthorized", http.StatusUnauthorized)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, OwnerIDKey, ownerID)
}

// OwnerFromContext extracts the owner id set by Middleware.
func OwnerFromContext(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(OwnerIDKey).(string)
	return owner, ok && owner != ""
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func errString(err error) string {
	if err == nil {
		return "empty owner"
	}
	return err.Error()
}
