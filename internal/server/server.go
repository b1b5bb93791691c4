// Package server provides the HTTP REST API for the application pipeline.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/job-autopilot/internal/chat"
	"github.com/jonathan/job-autopilot/internal/config"
	"github.com/jonathan/job-autopilot/internal/db"
	"github.com/jonathan/job-autopilot/internal/pipeline"
	"github.com/jonathan/job-autopilot/internal/server/middleware"
	"github.com/jonathan/job-autopilot/internal/types"
)

// ProfileParser structures a raw resume upload into a CandidateProfile.
type ProfileParser func(ctx context.Context, content string) (*types.CandidateProfile, error)

// Deps are the server's collaborators. Chat and History are optional.
type Deps struct {
	Controller   *pipeline.Controller
	Chat         *chat.Client
	History      *db.DB
	ParseProfile ProfileParser
	JWT          *config.JWTConfig
}

// Config holds server configuration
type Config struct {
	Port int
}

// Server represents the HTTP server
type Server struct {
	httpServer   *http.Server
	controller   *pipeline.Controller
	chat         *chat.Client
	history      *db.DB
	parseProfile ProfileParser
	jwtService   *JWTService
	validate     *validator.Validate
}

// New creates a new server instance
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Controller == nil {
		return nil, fmt.Errorf("pipeline controller is required")
	}
	if deps.JWT == nil {
		return nil, fmt.Errorf("JWT configuration is required")
	}

	s := &Server{
		controller:   deps.Controller,
		chat:         deps.Chat,
		history:      deps.History,
		parseProfile: deps.ParseProfile,
		jwtService:   NewJWTService(deps.JWT),
		validate:     validator.New(),
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withLogging(s.withCORS(s.routes())),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// routes builds the request mux. Everything except /health requires a
// bearer token carrying the owner identity.
func (s *Server) routes() http.Handler {
	authed := middleware.AuthMiddleware(s.jwtService.AsTokenValidator())

	api := http.NewServeMux()
	api.HandleFunc("POST /pipeline/start", s.handleStart)
	api.HandleFunc("GET /pipeline/status", s.handleStatus)
	api.HandleFunc("POST /pipeline/cv-review/{approval_id}/approve", s.handleApproveCVReview)
	api.HandleFunc("POST /pipeline/email-review/{approval_id}/approve", s.handleApproveEmailReview)
	api.HandleFunc("POST /pipeline/reject", s.handleReject)
	api.HandleFunc("POST /pipeline/reset", s.handleReset)
	api.HandleFunc("GET /pipeline/activity", s.handleActivity)
	api.HandleFunc("GET /pipeline/history", s.handleHistory)
	api.HandleFunc("POST /chat", s.handleChat)
	api.HandleFunc("GET /chat/status", s.handleChatStatus)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("/", authed(api))
	return mux
}

// Start begins listening for requests and blocks until shutdown.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// withCORS adds CORS headers for the browser client.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging logs each request and its duration.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
