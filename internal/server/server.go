// Package server serves the screening desk's HTML pages and actions.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/screening-desk/internal/config"
	"github.com/jonathan/screening-desk/internal/importjob"
	"github.com/jonathan/screening-desk/internal/rendering"
	"github.com/jonathan/screening-desk/internal/screening"
	"github.com/jonathan/screening-desk/internal/server/middleware"
	"github.com/jonathan/screening-desk/internal/server/ratelimit"
	"github.com/jonathan/screening-desk/internal/types"
)

// InterviewInserter creates Interview records from prepared drafts.
type InterviewInserter interface {
	InsertInterview(ctx context.Context, draft *types.InterviewDraft) (string, error)
}

// Deps are the backends the server talks to.
type Deps struct {
	Records screening.RecordSource
	// Interviews may be nil; the interview form then only links to the desk.
	Interviews InterviewInserter
	Imports    importjob.Backend
	// DeskURL is the record backend's base URL for record links.
	DeskURL string
	// JWT enables operator authentication when non-nil.
	JWT *config.JWTConfig
	// RateLimit overrides the environment's rate limit configuration.
	RateLimit *ratelimit.Config
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	cfg         *config.Config
	records     screening.RecordSource
	interviews  InterviewInserter
	imports     *importjob.Form
	deskURL     string
	resolver    rendering.ResumeResolver
	loc         *time.Location
	pages       *rendering.Pages
	sessions    *Sessions
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
}

// New creates a new server instance
func New(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.Records == nil {
		return nil, fmt.Errorf("a record source is required")
	}
	if _, ok := rendering.VariantByKey(cfg.Variant); !ok {
		return nil, &ErrUnknownVariant{Key: cfg.Variant}
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone: %w", err)
	}

	pages, err := rendering.LoadPages()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:        cfg,
		records:    deps.Records,
		interviews: deps.Interviews,
		deskURL:    deps.DeskURL,
		resolver: rendering.ResumeResolver{
			PublicPrefix:        cfg.FilesPrefix,
			PassthroughPrefixes: []string{cfg.FilesPrefix, cfg.PrivateFilesPrefix},
		},
		loc:      loc,
		pages:    pages,
		sessions: NewSessions(cfg.SessionIdle()),
	}
	if deps.Imports != nil {
		s.imports = importjob.NewForm(deps.Imports)
	}

	rateCfg := deps.RateLimit
	if rateCfg == nil {
		rateCfg = ratelimit.LoadConfig()
	}
	s.rateLimiter = ratelimit.NewLimiter(rateCfg)

	if deps.JWT != nil {
		s.jwtService = NewJWTService(deps.JWT)
	}

	// Screening and import pages live under /app and require a session
	app := http.NewServeMux()
	app.HandleFunc("GET /app/screening", s.handleScreeningIndex)
	app.HandleFunc("GET /app/screening/{variant}", s.handleScreeningPage)
	app.HandleFunc("POST /app/screening/{variant}/filters", s.handleSetFilters)
	app.HandleFunc("POST /app/screening/{variant}/reload", s.handleReload)
	app.HandleFunc("GET /app/screening/{variant}/events", s.handleEvents)
	app.HandleFunc("POST /app/screening/{variant}/rows/{id}/save", s.handleSaveRow)
	app.HandleFunc("POST /app/screening/{variant}/rows/{id}/schedule-interview", s.handleScheduleInterview)
	app.HandleFunc("POST /app/interview", s.handleCreateInterview)
	app.HandleFunc("GET /app/slack-to-raven-import/{name}", s.handleImportForm)
	app.HandleFunc("POST /app/slack-to-raven-import/{name}/run", s.handleRunImport)
	app.HandleFunc("POST /app/slack-to-raven-import/{name}/join", s.handleJoinWorkspace)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /auth/session", s.handleAuthSession)
	mux.Handle("/app/", s.withAuth(s.withSession(app)))

	// Import runs block until the backend finishes
	s.httpServer = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(mux))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Sessions returns the session registry.
func (s *Server) Sessions() *Sessions {
	return s.sessions
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		interval := min(s.cfg.SessionIdle()/2, 5*time.Minute)
		if interval <= 0 {
			interval = time.Minute
		}
		return s.sessions.Run(gctx, interval)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	err := g.Wait()
	s.Close()
	log.Println("Server stopped")
	return err
}

// Close stops background work and unmounts every page.
func (s *Server) Close() {
	s.rateLimiter.Stop()
	s.sessions.Close()
}

// withCORS adds CORS headers
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

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// withAuth requires an operator token when authentication is enabled.
func (s *Server) withAuth(next http.Handler) http.Handler {
	if s.jwtService == nil {
		return next
	}
	return middleware.AuthMiddleware(s.jwtService.AsTokenValidator())(next)
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes a plain-text error page
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	http.Error(w, message, status)
}

// extractClientID extracts the client identifier from the request.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		response["retry_after"] = int(info.RetryAfter.Seconds())
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())))
	}

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
