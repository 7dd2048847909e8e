// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer. It connects handlers, middleware and
// routes, and owns the lifecycle of the storage backend.
//
// DEPENDENCY INJECTION FLOW:
// main.go creates the store, the agent engine, the sports API client and the
// lock, then hands them to New. New builds the services and handlers:
//
//	Store ──► UserService ─────────► UserHandler
//	Store ──► ConversationService ─┐
//	Engine, Source, Locker ────────┴► ChatService ──► ChatHandler
//
// This is the "composition root" pattern: all dependencies are wired in one
// place instead of being scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/chatbet/internal/agent"
	"github.com/sakif/chatbet/internal/handler"
	"github.com/sakif/chatbet/internal/lock"
	"github.com/sakif/chatbet/internal/middleware"
	"github.com/sakif/chatbet/internal/repository"
	"github.com/sakif/chatbet/internal/service"
	"github.com/sakif/chatbet/internal/tools"
)

// Config holds HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string

	// WriteTimeout must exceed the longest chat turn; 0 means 5 minutes.
	WriteTimeout time.Duration
	// LockWait bounds the wait for a busy thread; 0 means service.DefaultLockWait.
	LockWait time.Duration
}

// Deps are the long-lived collaborators built by main.
type Deps struct {
	Store  repository.Store
	Engine agent.Engine
	Source tools.FixtureSource

	// Locker serialises turns per thread; nil means an in-process lock.
	Locker lock.Locker
}

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the store. Start closes it after the HTTP server has
// drained, so in-flight turns can still persist their history.
type Server struct {
	router *chi.Mux
	config Config
	store  repository.Store
	logger *slog.Logger
}

// New builds the services and handlers and registers the routes.
func New(cfg Config, deps Deps, logger *slog.Logger) (*Server, error) {
	if deps.Store == nil || deps.Engine == nil || deps.Source == nil {
		return nil, errors.New("server: store, engine and source are required")
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 5 * time.Minute
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		store:  deps.Store,
		logger: logger,
	}
	s.setupRoutes(deps)
	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /                                  → status message
// GET    /health                            → liveness
// GET    /api/users                         → list users
// POST   /api/users/{userID}/threads        → open a thread
// POST   /api/threads/{threadID}/messages   → run a chat turn
// GET    /api/threads/{threadID}/history    → read a thread's turns
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns a unique ID to each request (the logger reads it)
// 2. RealIP: extracts the client IP from proxy headers
// 3. Recoverer: catches panics and returns 500 instead of crashing
// 4. Logger: logs each request with timing info
// 5. CORS: answers preflight requests from browser clients
func (s *Server) setupRoutes(deps Deps) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// DEPENDENCY CHAIN:
	// the store implements every repository interface; each service only
	// sees the ones it needs.
	userService := service.NewUserService(deps.Store, deps.Store, s.logger)
	conversations := service.NewConversationService(deps.Store, s.logger)
	chatService := service.NewChatService(service.ChatDeps{
		Threads:       deps.Store,
		Users:         deps.Store,
		Conversations: conversations,
		Engine:        deps.Engine,
		Source:        deps.Source,
		Locker:        deps.Locker,
		Logger:        s.logger,
		LockWait:      s.config.LockWait,
	})

	userHandler := handler.NewUserHandler(userService, s.logger)
	chatHandler := handler.NewChatHandler(chatService, s.logger)

	s.router.Get("/", handler.HandleRoot)
	s.router.Get("/health", handler.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/users", userHandler.HandleList)
		r.Post("/users/{userID}/threads", userHandler.HandleCreateThread)
		r.Post("/threads/{threadID}/messages", chatHandler.HandleSendMessage)
		r.Get("/threads/{threadID}/history", chatHandler.HandleHistory)
	})
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight chat turns to finish (up to WriteTimeout)
// 3. Close the store
func (s *Server) Start() error {
	defer s.store.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), s.config.WriteTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
