package chatapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Overwatch47/SpectraScout/runner"
	"github.com/Overwatch47/SpectraScout/session"
	"github.com/Overwatch47/SpectraScout/tools"
)

// TurnRunner runs one conversational turn. *runner.Runner satisfies it.
type TurnRunner interface {
	Run(ctx context.Context, userID, sessionID, message string) (*runner.Result, error)
}

// Deps are the collaborators of the HTTP server.
type Deps struct {
	Runner   TurnRunner
	Sessions session.Service
	Checker  tools.SyntaxChecker
	Code     tools.CodeRunner
}

// Server is the chat HTTP server.
type Server struct {
	router *chi.Mux
	deps   Deps
	logger *zap.Logger
	srv    *http.Server
}

// New creates the server and its routes.
func New(deps Deps, logger *zap.Logger) *Server {
	s := &Server{
		router: chi.NewRouter(),
		deps:   deps,
		logger: logger.Named("chatapi"),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(requestLogger(s.logger))

	s.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Get("/", s.handleListSessions)
			r.Get("/{id}", s.handleGetSession)
			r.Delete("/{id}", s.handleDeleteSession)
			r.Post("/{id}/messages", s.handleSendMessage)
		})
		r.Post("/tools/debug_code", s.handleDebugCode)
		r.Post("/tools/run_code", s.handleRunCode)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start listens on port and serves in the background.
func (s *Server) Start(port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", port, err)
	}

	s.srv = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("chat API listening", zap.String("addr", ln.Addr().String()))
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("chat API stopped", zap.Error(err))
		}
	}()
	return nil
}

// Shutdown gracefully stops a started server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	s.logger.Info("shutting down chat API")
	return s.srv.Shutdown(ctx)
}
