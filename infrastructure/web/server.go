// Package web exposes the chat core over HTTP: the WebSocket endpoints of
// rooms and notification channels plus the JSON routes around them.
package web

import (
	"log/slog"
	"net/http"
	"slices"
	"social-chat/auth"
	"social-chat/contract"
	"social-chat/observability"
	"social-chat/runtime"
	"social-chat/services"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
)

const maxBodySize = 1 << 20

type Config struct {
	AllowedOrigins []string
	MediaRoot      string
	MediaPrefix    string
	ReadLimit      int64
	Session        runtime.SessionConfig
}

type Services struct {
	Chat          services.IChatService
	Auth          services.IAuthService
	Social        services.ISocialService
	Notifications services.INotificationService
}

type Server struct {
	services   Services
	registry   contract.IRegistry
	issuer     *auth.TokenIssuer
	monitoring *observability.MonitoringManager
	log        *slog.Logger
	cfg        Config
	upgrader   websocket.Upgrader
}

func NewServer(log *slog.Logger, cfg Config, svc Services, registry contract.IRegistry,
	issuer *auth.TokenIssuer, monitoring *observability.MonitoringManager) *Server {
	if cfg.MediaPrefix == "" {
		cfg.MediaPrefix = "/media"
	}
	return &Server{
		services:   svc,
		registry:   registry,
		issuer:     issuer,
		monitoring: monitoring,
		log:        log,
		cfg:        cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(cfg.AllowedOrigins),
		},
	}
}

// Handler is the router behind the CORS policy and the principal resolution.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Content-Length"},
		MaxAge:           300,
		AllowCredentials: true,
	})
	return c.Handler(auth.Interceptor(s.issuer, s.log)(s.Router()))
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	// WebSocket, anonymous connections are closed by the session
	r.HandleFunc("/ws/chat/{room}", s.chatSocket).Methods(http.MethodGet)
	r.HandleFunc("/ws/notifications", s.notificationSocket).Methods(http.MethodGet)

	// Accounts
	r.HandleFunc("/auth/register", s.register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", s.login).Methods(http.MethodPost)

	// Conversations
	r.Handle("/chat/dashboard", private(s.dashboard)).Methods(http.MethodGet)
	r.Handle("/chat/{userID}/history", private(s.history)).Methods(http.MethodGet)
	r.Handle("/chat/{userID}/messages", private(s.messages)).Methods(http.MethodGet)
	r.Handle("/chat/{userID}/search", private(s.search)).Methods(http.MethodGet)

	// Collaborators
	r.Handle("/requests/{userID}", private(s.sendRequest)).Methods(http.MethodPost)
	r.Handle("/requests/{requestID}/respond", private(s.respondRequest)).Methods(http.MethodPost)
	r.Handle("/posts", private(s.createPost)).Methods(http.MethodPost)
	r.Handle("/posts", private(s.listPosts)).Methods(http.MethodGet)
	r.Handle("/posts/{postID}/like", private(s.likePost)).Methods(http.MethodPost)
	r.Handle("/posts/{postID}/comments", private(s.addComment)).Methods(http.MethodPost)
	r.Handle("/notifications", private(s.listNotifications)).Methods(http.MethodGet)
	r.Handle("/notifications/{notificationID}/read", private(s.markRead)).Methods(http.MethodPost)

	media := strings.TrimSuffix(s.cfg.MediaPrefix, "/") + "/"
	r.PathPrefix(media).Handler(http.StripPrefix(media, http.FileServer(http.Dir(s.cfg.MediaRoot)))).
		Methods(http.MethodGet)

	r.Handle("/debug/stats", private(s.stats)).Methods(http.MethodGet)
	return r
}

func private(h http.HandlerFunc) http.Handler {
	return auth.RequireAuth(h)
}

// checkOrigin accepts requests without Origin (non browser clients), any
// origin when the allow-list holds "*", and listed origins otherwise.
func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
	}
}

// pongWait leaves room for one ping to get lost in transit.
func pongWait(pingPeriod time.Duration) time.Duration {
	if pingPeriod <= 0 {
		return 0
	}
	return pingPeriod * 10 / 9
}

func (s *Server) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.monitoring.Snapshot())
}
