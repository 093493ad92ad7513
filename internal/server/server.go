// Package server provides the HTTP REST API for the news assistant.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jonathan/news-assistant/internal/config"
	"github.com/jonathan/news-assistant/internal/db"
	"github.com/jonathan/news-assistant/internal/narration"
	"github.com/jonathan/news-assistant/internal/pipeline"
	"github.com/jonathan/news-assistant/internal/server/ratelimit"
	"github.com/jonathan/news-assistant/internal/speech"
)

// ArticleStore persists articles.
type ArticleStore interface {
	CreateArticle(ctx context.Context, in db.ArticleInput) (*db.Article, error)
	GetArticle(ctx context.Context, id int64) (*db.Article, error)
	GetArticleByURL(ctx context.Context, url string) (*db.Article, error)
	ListArticles(ctx context.Context, skip, limit int) ([]db.Article, int, error)
	UpdateArticle(ctx context.Context, id int64, patch db.ArticlePatch) (*db.Article, error)
	DeleteArticle(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}

// ContentProcessor runs the content pipeline for a URL.
type ContentProcessor interface {
	Process(ctx context.Context, url, fallbackTitle string, articleID *int64, summarize bool) (*pipeline.ProcessedContent, error)
}

// Narrator generates article audio in the background.
type Narrator interface {
	Dispatch(article narration.Article, kinds ...string)
}

// VoiceLister lists the available speech voices.
type VoiceLister interface {
	Voices(ctx context.Context) ([]speech.VoiceInfo, error)
}

// Deps are the collaborators the handlers call.
type Deps struct {
	Articles  ArticleStore
	Processor ContentProcessor
	Narrator  Narrator
	Voices    VoiceLister
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	articles    ArticleStore
	processor   ContentProcessor
	narrator    Narrator
	voices      VoiceLister
	rateLimiter *ratelimit.Limiter
	validate    *validator.Validate
	appName     string
	version     string
	debug       bool
	now         func() time.Time
}

// New creates a new server instance
func New(cfg *config.Config, deps Deps) *Server {
	s := &Server{
		articles:    deps.Articles,
		processor:   deps.Processor,
		narrator:    deps.Narrator,
		voices:      deps.Voices,
		rateLimiter: ratelimit.NewLimiter(ratelimit.NewConfig(cfg.Server.RateLimit)),
		validate:    validator.New(),
		appName:     cfg.AppName,
		version:     cfg.Version,
		debug:       cfg.Debug,
		now:         time.Now,
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // processing a URL can take a while
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the routed handler wrapped in middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /api/articles", s.handleCreateArticle)
	mux.HandleFunc("POST /api/articles/stream", s.handleCreateArticleStream)
	mux.HandleFunc("GET /api/articles", s.handleListArticles)
	mux.HandleFunc("GET /api/articles/{id}", s.handleGetArticle)
	mux.HandleFunc("PUT /api/articles/{id}", s.handleUpdateArticle)
	mux.HandleFunc("DELETE /api/articles/{id}", s.handleDeleteArticle)
	mux.HandleFunc("POST /api/articles/{id}/audio", s.handleGenerateAudio)

	mux.HandleFunc("GET /api/speech/voices", s.handleListVoices)

	return s.withRateLimit(s.withLogging(s.withCORS(mux)))
}

// Start listens until ctx is cancelled or SIGINT/SIGTERM arrives, then
// shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.httpServer.Addr).Msg("server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// Stop rate limiter cleanup goroutine
	s.rateLimiter.Stop()

	log.Info().Msg("server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
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

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush lets streaming handlers see through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		log.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("latency", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("request")
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("error encoding JSON response")
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"detail": message})
}

// domainError writes err with the status HTTPStatus maps it to.
func (s *Server) domainError(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("request failed")
	}
	s.errorResponse(w, status, err.Error())
}

// extractClientID extracts the client identifier from the request.
// It uses the IP address from RemoteAddr.
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
	response := map[string]any{
		"detail":    "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
	}

	log.Warn().Str("client", clientID).Int("limit", info.Limit).Msg("rate limit exceeded")

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
