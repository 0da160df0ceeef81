// Package server provides the HTTP REST API for the verification engine.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonathan/trustcheck/internal/config"
	"github.com/jonathan/trustcheck/internal/history"
	"github.com/jonathan/trustcheck/internal/pipeline"
	"github.com/jonathan/trustcheck/internal/server/middleware"
	"github.com/jonathan/trustcheck/internal/server/ratelimit"
	"github.com/jonathan/trustcheck/internal/types"
)

// Verifier runs verifications. *pipeline.Engine implements it.
type Verifier interface {
	VerifyWithProgress(ctx context.Context, req types.VerificationRequest, onProgress pipeline.ProgressCallback) (*types.VerificationResult, error)
}

// Server represents the HTTP server
type Server struct {
	httpServer        *http.Server
	engine            Verifier
	history           history.Store
	rateLimiter       *ratelimit.Limiter
	jwtService        *JWTService
	authHandler       *AuthHandler
	validateResponses bool
	now               func() time.Time
	logger            *slog.Logger
}

// Config holds server configuration
type Config struct {
	Port    int
	Engine  Verifier
	History history.Store

	// Admin authentication; a nil JWT disables the admin endpoints
	JWT               *config.JWTConfig
	Password          *config.PasswordConfig
	AdminPasswordHash string

	// RateLimit defaults to ratelimit.LoadConfig(os.Getenv)
	RateLimit *ratelimit.Config

	// ValidateResponses checks every result against the published JSON schema
	ValidateResponses bool

	Now func() time.Time
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	if cfg.Engine == nil {
		return nil, fmt.Errorf("server requires a verification engine")
	}

	s := &Server{
		engine:            cfg.Engine,
		history:           cfg.History,
		validateResponses: cfg.ValidateResponses,
		now:               cfg.Now,
		logger:            slog.With("component", "server"),
	}
	if s.history == nil {
		s.history = history.NewMemoryStore()
	}
	if s.now == nil {
		s.now = time.Now
	}

	// Initialize rate limiter
	rateConfig := cfg.RateLimit
	if rateConfig == nil {
		rateConfig = ratelimit.LoadConfig(os.Getenv)
	}
	s.rateLimiter = ratelimit.NewLimiter(rateConfig)

	// Initialize authentication services
	passwords := cfg.Password
	if passwords == nil {
		var err error
		passwords, err = config.NewPasswordConfig(0, "")
		if err != nil {
			return nil, fmt.Errorf("failed to create password config: %w", err)
		}
	}
	if cfg.JWT != nil {
		s.jwtService = NewJWTService(cfg.JWT)
	}
	s.authHandler = NewAuthHandler(passwords, cfg.AdminPasswordHash, s.jwtService)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // Long timeout for streamed verifications
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /verify", s.handleVerify)
	mux.HandleFunc("POST /verify/stream", s.handleVerifyStream)
	mux.HandleFunc("GET /history", s.handleHistoryList)
	mux.HandleFunc("GET /history/stats", s.handleHistoryStats)
	mux.HandleFunc("GET /history/export", s.handleHistoryExport)
	mux.HandleFunc("POST /admin/login", s.authHandler.Login)
	mux.HandleFunc("GET /health", s.handleHealth)

	// Admin-only endpoints
	clearHistory := http.Handler(http.HandlerFunc(s.handleHistoryClear))
	if s.jwtService != nil {
		clearHistory = middleware.AuthMiddleware(s.jwtService.AsTokenValidator(), RoleAdmin)(clearHistory)
	} else {
		clearHistory = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			err := &ErrAdminDisabled{}
			errorResponse(w, HTTPStatus(err), err.Error())
		})
	}
	mux.Handle("DELETE /history", clearHistory)

	return s.withRateLimit(s.withLogging(s.withCORS(mux)))
}

// Start begins listening for requests and blocks until SIGINT or SIGTERM.
func (s *Server) Start() error {
	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info("[Server] starting", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		s.rateLimiter.Stop()
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}
	s.logger.Info("[Server] shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// Stop rate limiter cleanup goroutine
	s.rateLimiter.Stop()

	s.logger.Info("[Server] stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
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
			s.rateLimitResponse(w, clientID, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("[HTTP] request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote", r.RemoteAddr),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)))
	})
}

// statusRecorder captures the response status and keeps streaming working.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("[HTTP] failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// errorResponse writes an error JSON response
func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr; X-Forwarded-For is not trusted.
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
func (s *Server) rateLimitResponse(w http.ResponseWriter, clientID string, info ratelimit.Info) {
	response := map[string]interface{}{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
	}

	s.logger.Warn("[RateLimit] limit exceeded",
		slog.String("client", clientID),
		slog.Int("limit", info.Limit),
		slog.Time("reset", info.ResetTime))

	jsonResponse(w, http.StatusTooManyRequests, response)
}
