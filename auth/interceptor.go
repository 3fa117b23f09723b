package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"social-chat/domain/chat"
	"social-chat/errors"
	"strings"
)

type contextKey string

const principalKey contextKey = "principal"

const (
	// SessionCookie carries the token for browsers, which cannot set
	// headers on a WebSocket handshake.
	SessionCookie = "session"
	tokenQuery    = "token"
)

func WithPrincipal(ctx context.Context, p chat.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the principal of the request, anonymous when none was resolved.
func PrincipalFrom(ctx context.Context) chat.Principal {
	p, _ := ctx.Value(principalKey).(chat.Principal)
	return p
}

// Interceptor resolves the principal of every request. A missing or invalid
// token leaves the request anonymous: routes decide what anonymous means.
func Interceptor(issuer *TokenIssuer, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := issuer.ValidateToken(token)
			if err != nil {
				log.Debug("Rejected token", "path", r.URL.Path, "error", err)
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), claims.Principal())))
		})
	}
}

// RequireAuth answers 401 to anonymous requests.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !PrincipalFrom(r.Context()).Authenticated() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": errors.ErrUnauthenticated.Error()})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractToken looks at the Authorization header, then the token query
// parameter, then the session cookie.
func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if token := r.URL.Query().Get(tokenQuery); token != "" {
		return token
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}
