package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/hrygo/gigvoice/internal/profile"
	"github.com/hrygo/gigvoice/plugin/ai"
	"github.com/hrygo/gigvoice/plugin/ai/cache"
	"github.com/hrygo/gigvoice/plugin/ai/session"
	"github.com/hrygo/gigvoice/server/internal/observability"
	gvmiddleware "github.com/hrygo/gigvoice/server/middleware"
	apiv1 "github.com/hrygo/gigvoice/server/router/api/v1"
	"github.com/hrygo/gigvoice/server/service/assistant"
	"github.com/hrygo/gigvoice/store"
)

// Session backends selectable by profile.
const (
	SessionBackendMemory = "memory"
	SessionBackendCache  = "cache"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	cleanupJob *session.CleanupJob
	limiter    *gvmiddleware.RateLimiter
	cache      *cache.Service
	logger     *slog.Logger
}

// NewLogger builds the process logger for the profile.
func NewLogger(p *profile.Profile, w io.Writer) *slog.Logger {
	return observability.NewLogger(p.Mode, p.LogLevel, w)
}

func NewServer(profile *profile.Profile, store *store.Store, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		Profile: profile,
		Store:   store,
		logger:  logger,
	}

	llm, err := newLLMService(profile)
	if err != nil {
		return nil, err
	}

	sessions, err := s.newSessionService(profile)
	if err != nil {
		return nil, err
	}
	s.cleanupJob = session.NewCleanupJob(sessions, session.CleanupConfig{
		IdleTTL:         profile.SessionIdleTTL,
		CleanupInterval: profile.SessionCleanupInterval,
	})

	assistantService, err := assistant.NewService(assistant.Deps{
		Store:    store,
		Sessions: sessions,
		LLM:      llm,
	}, assistant.NewConfigFromProfile(profile))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create assistant service")
	}

	echoServer := echo.New()
	echoServer.Debug = profile.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(middleware.Recover())
	echoServer.Use(gvmiddleware.RequestContext(logger))
	apiV1Service := apiv1.NewAPIV1Service(profile, store, assistantService)
	apiV1Service.RegisterRoutes(echoServer)
	s.echoServer = echoServer
	s.limiter = apiV1Service.RateLimiter()

	return s, nil
}

// newLLMService returns nil when AI is disabled; the assistant then extracts
// with the default strategy and answers chat with the static apology.
func newLLMService(profile *profile.Profile) (ai.LLMService, error) {
	aiConfig := ai.NewConfigFromProfile(profile)
	if !aiConfig.Enabled {
		slog.Info("AI disabled, chat fallback will use static replies")
		return nil, nil
	}
	if err := aiConfig.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid AI config")
	}
	llm, err := ai.NewLLMService(&aiConfig.LLM)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create LLM service")
	}
	slog.Info("LLM service ready", "provider", aiConfig.LLM.Provider, "model", aiConfig.LLM.Model)
	return llm, nil
}

func (s *Server) newSessionService(profile *profile.Profile) (session.SessionService, error) {
	cfg := session.Config{
		MaxTurns: profile.SessionMaxTurns,
		Preamble: assistant.DefaultPreamble,
	}
	switch profile.SessionBackend {
	case "", SessionBackendMemory:
		return session.NewMemoryStore(cfg), nil
	case SessionBackendCache:
		s.cache = cache.NewService(cache.ServiceConfig{
			Capacity:      10000,
			DefaultTTL:    profile.SessionIdleTTL,
			SweepInterval: profile.SessionCleanupInterval,
		})
		return session.NewCacheStore(s.cache, cfg, profile.SessionIdleTTL), nil
	default:
		return nil, errors.Errorf("unknown session backend %q: only %q and %q are supported",
			profile.SessionBackend, SessionBackendMemory, SessionBackendCache)
	}
}

// Handler exposes the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}

func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrap(err, "failed to listen")
	}

	s.cleanupJob.Start(ctx)
	s.limiter.StartSweeper(ctx, gvmiddleware.DefaultLimiterSweepInterval, gvmiddleware.DefaultLimiterIdleTTL)

	go func() {
		s.echoServer.Listener = listener
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("failed to start echo server", "error", err)
		}
	}()
	s.logger.Info("gigvoice started", "address", address, "version", s.Profile.Version, "mode", s.Profile.Mode)
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	s.logger.Info("server shutting down")

	if err := s.echoServer.Shutdown(ctx); err != nil {
		s.logger.Error("failed to shutdown server", "error", err)
	}
	s.cleanupJob.Stop()
	s.limiter.StopSweeper()
	if s.cache != nil {
		s.cache.Close()
	}
	if err := s.Store.Close(); err != nil {
		s.logger.Error("failed to close database", "error", err)
	}

	s.logger.Info("gigvoice stopped properly")
}
