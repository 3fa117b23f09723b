// Package app assembles the chat server from its configuration: storage,
// registry, services, transports and background workers.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"social-chat/auth"
	"social-chat/infrastructure/grpc/server"
	"social-chat/infrastructure/web"
	"social-chat/internal"
	"social-chat/moderation"
	"social-chat/observability"
	"social-chat/repositories"
	"social-chat/runtime"
	"social-chat/runtime/workers"
	"social-chat/services"
	"social-chat/storage"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
)

const mediaPrefix = "/media"

type App struct {
	cfg        internal.Config
	log        *slog.Logger
	db         *badger.DB
	writer     *bluge.Writer
	sequences  *repositories.Sequences
	registry   *runtime.Registry
	monitoring *observability.MonitoringManager
	supervisor *workers.Supervisor
	web        *web.Server
	health     *server.HealthServer
}

// New opens the stores and wires every component. Close releases what New opened.
func New(cfg internal.Config, log *slog.Logger) (*App, error) {
	db, err := badger.Open(badgerOptions(cfg, log))
	if err != nil {
		return nil, fmt.Errorf("database opening failed: %w", err)
	}
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(cfg.BlugeFilepath))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open bluge writer: %w", err)
	}

	a := &App{cfg: cfg, log: log, db: db, writer: writer}
	if err := a.wire(); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire() error {
	cfg, log := a.cfg, a.log

	a.sequences = repositories.NewSequences(a.db)
	messageRepository := repositories.NewMessageRepository(a.db, a.sequences, log, cfg.LimitMessages)
	userRepository := repositories.NewUserRepository(a.db, a.sequences)
	socialRepository := repositories.NewSocialRepository(a.db, a.sequences)
	notificationRepository := repositories.NewNotificationRepository(a.db, a.sequences)
	index := repositories.NewMessageIndex(a.writer, log)

	attachments, err := storage.NewDiskStore(cfg.MediaRoot, mediaPrefix, cfg.VerifyAttachmentType, log)
	if err != nil {
		return fmt.Errorf("media root: %w", err)
	}

	a.registry = runtime.NewRegistry(log, cfg.SinkTimeout)
	a.monitoring = observability.NewMonitoringManager(log, a.registry)
	notifier := runtime.NewNotifier(a.registry, log)

	options := []services.ChatServiceOption{services.WithIndex(index), services.WithMonitoring(a.monitoring)}
	if cfg.CensoredWordsDir != "" {
		moderator, err := loadModerator(cfg, log)
		if err != nil {
			return err
		}
		options = append(options, services.WithModerator(moderator))
	}

	issuer := auth.NewTokenIssuer(cfg.AuthSecret, cfg.AuthTokenDuration)
	notificationService := services.NewNotificationService(notificationRepository, userRepository, notifier, a.monitoring, log)
	svc := web.Services{
		Chat:          services.NewChatService(messageRepository, userRepository, attachments, log, options...),
		Auth:          services.NewAuthService(userRepository, issuer),
		Social:        services.NewSocialService(socialRepository, userRepository, notificationService, log),
		Notifications: notificationService,
	}

	a.web = web.NewServer(log, web.Config{
		AllowedOrigins: cfg.Origins(),
		MediaRoot:      cfg.MediaRoot,
		MediaPrefix:    mediaPrefix,
		ReadLimit:      int64(cfg.MaxFrameSize),
		Session: runtime.SessionConfig{
			BufferSize: cfg.ConnectionBufferSize,
			PingPeriod: cfg.PingPeriod,
		},
	}, svc, a.registry, issuer, a.monitoring)
	a.health = server.NewHealthServer(log)

	a.supervisor = workers.NewSupervisor(log).WithRestartDelay(cfg.RestartInterval)
	a.supervisor.Add(
		workers.NewValueLogGCWorker(a.db, log, cfg.ValueLogGCPeriod),
		workers.NewHeartbeatWorker(log, a.monitoring, cfg.MetricInterval),
		workers.NewChannelCapacityWorker(log, a.registry, cfg.MetricInterval),
	)
	return nil
}

func loadModerator(cfg internal.Config, log *slog.Logger) (*moderation.Moderator, error) {
	char, err := internal.CharacterRune(cfg.CharReplacement)
	if err != nil {
		return nil, err
	}
	data, err := runtime.NewCensoredLoader(os.DirFS(cfg.CensoredWordsDir)).LoadAll(".")
	if err != nil {
		return nil, fmt.Errorf("loading censored words from %s: %w", cfg.CensoredWordsDir, err)
	}
	log.Info("Censored words loaded", "words", len(data.Words), "languages", data.Languages)
	return moderation.NewModerator(data.Words, char, log)
}

// Handler is the HTTP entry point, exposed for in-process servers.
func (a *App) Handler() http.Handler {
	return a.web.Handler()
}

func (a *App) Monitoring() *observability.MonitoringManager {
	return a.monitoring
}

func (a *App) Health() *server.HealthServer {
	return a.health
}

// Run serves HTTP and gRPC health until ctx is canceled or a listener fails,
// then shuts everything down. Live sessions see ctx canceled and close with 1001.
func (a *App) Run(ctx context.Context) error {
	httpAddr := fmt.Sprintf("%s:%d", a.cfg.Host, a.cfg.HTTPPort)
	grpcAddr := fmt.Sprintf("%s:%d", a.cfg.Host, a.cfg.GRPCPort)

	grpcListener, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", grpcAddr, err)
	}

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errChan := make(chan error, 3)
	go func() {
		a.log.Info("Starting gRPC health server", "address", grpcAddr)
		if err := a.health.Serve(grpcListener); err != nil {
			errChan <- err
		}
	}()
	go func() {
		a.log.Info("Starting HTTP server", "address", httpAddr, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	var debugServer *http.Server
	if a.cfg.DebugPort > 0 {
		debugServer = internal.NewDebugServer(a.db, fmt.Sprintf("localhost:%d", a.cfg.DebugPort),
			inspectMapper, a.inspectStats, a.log)
		go func() {
			a.log.Info("Debug badger inspector available", "url", fmt.Sprintf("http://%s/inspect", debugServer.Addr))
			if err := debugServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Warn("Debug server stopped", "error", err)
			}
		}()
	}

	workersDone := make(chan struct{})
	go func() {
		defer close(workersDone)
		a.supervisor.Run(ctx)
	}()
	a.health.SetServing(true)

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("Shutdown signal received")
	case runErr = <-errChan:
	}

	a.log.Info("Shutting down gracefully...")
	a.health.SetServing(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		a.log.Warn("HTTP shutdown incomplete", "error", err)
	}
	if debugServer != nil {
		_ = debugServer.Shutdown(shutdownCtx)
	}
	a.health.Stop()
	a.supervisor.Stop()
	<-workersDone
	return runErr
}

// Close flushes and releases the stores.
func (a *App) Close() error {
	var errs []error
	if a.sequences != nil {
		errs = append(errs, a.sequences.Release())
	}
	if a.writer != nil {
		a.log.Info("Closing Bluge...")
		errs = append(errs, a.writer.Close())
	}
	if a.db != nil {
		a.log.Info("Closing BadgerDB...")
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

func (a *App) inspectStats() map[string]any {
	s := a.monitoring.Snapshot()
	return map[string]any{
		"groups":           s.Groups,
		"connections":      s.Connections,
		"messages_stored":  s.MessagesStored,
		"messages_dropped": s.MessagesDropped,
		"goroutines":       s.Goroutines,
	}
}

func inspectMapper(key string, val []byte) internal.InspectRow {
	row := internal.DefaultMapper(key, val)
	row.Type, row.Detail = repositories.Describe(key, val)
	return row
}

func badgerOptions(cfg internal.Config, log *slog.Logger) badger.Options {
	options := badger.DefaultOptions(cfg.BadgerFilepath)
	if log.Enabled(context.Background(), slog.LevelDebug) {
		return options.WithLoggingLevel(badger.DEBUG)
	}
	return options.WithLoggingLevel(badger.WARNING)
}
