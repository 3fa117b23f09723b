package auth_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"social-chat/auth"
	"social-chat/domain/chat"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInterceptor(t *testing.T) {
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	token, err := issuer.GenerateToken(42, "bob")
	require.NoError(t, err)

	// echo records the principal seen by the route
	var seen chat.Principal
	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.PrincipalFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	handler := auth.Interceptor(issuer, slog.Default())(echo)
	bob := chat.Principal{UserID: 42, Username: "bob"}

	tests := []struct {
		name    string
		prepare func(r *http.Request)
		want    chat.Principal
	}{
		{"bearer header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, bob},
		{"query parameter", func(r *http.Request) { r.URL.RawQuery = "token=" + token }, bob},
		{"session cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: token}) }, bob},
		{"no token is anonymous", func(r *http.Request) {}, chat.Principal{}},
		{"invalid token is anonymous", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, chat.Principal{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			seen = chat.Principal{}
			r := httptest.NewRequest(http.MethodGet, "/ws/notifications", nil)
			tt.prepare(r)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, r)

			req.Equal(http.StatusNoContent, w.Code)
			req.Equal(tt.want, seen)
		})
	}
}

func TestRequireAuth(t *testing.T) {
	req := require.New(t)
	protected := auth.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Anonymous
	w := httptest.NewRecorder()
	protected.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/notifications", nil))
	req.Equal(http.StatusUnauthorized, w.Code)
	req.JSONEq(`{"error":"unauthenticated principal"}`, w.Body.String())

	// Authenticated
	r := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	r = r.WithContext(auth.WithPrincipal(r.Context(), chat.Principal{UserID: 1, Username: "alice"}))
	w = httptest.NewRecorder()
	protected.ServeHTTP(w, r)
	req.Equal(http.StatusOK, w.Code)
}
