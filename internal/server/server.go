// Package server binds the extraction engine to HTTP.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	kreuzberg "github.com/kreuzberg/kreuzberg-go"
)

// Server hosts the extraction API.
type Server struct {
	cfg Config
	log zerolog.Logger

	requestSem *semaphore.Weighted

	limitersMu sync.Mutex
	limiters   map[string]*rate.Limiter

	metricsMu     sync.RWMutex
	totalRequests int64
	activeReqs    int64
}

// New builds a server from config.
func New(cfg Config, log zerolog.Logger) *Server {
	return &Server{
		cfg:        cfg,
		log:        log,
		requestSem: semaphore.NewWeighted(cfg.MaxConcurrentRequests),
		limiters:   make(map[string]*rate.Limiter),
	}
}

// Handler assembles the route tree with the middleware chain.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.withLogging)
	r.Use(s.withRecovery)

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.withInternalAuth)
		r.Get("/metrics", s.handleMetrics)
		r.Get("/plugins", s.handlePlugins)

		r.Group(func(r chi.Router) {
			r.Use(s.withRateLimit)
			r.Use(s.withConcurrencyLimit)
			r.Post("/extract", s.handleExtract)
			r.Post("/batch", s.handleBatch)
		})
	})
	return r
}

// ListenAndServe runs the server until the listener fails or the
// context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
		MaxHeaderBytes:    s.cfg.MaxHeaderBytes,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info().
		Str("addr", srv.Addr).
		Int64("max_concurrent", s.cfg.MaxConcurrentRequests).
		Msg("listening")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ---------- Request/response shapes ----------

type extractRequest struct {
	// Content is base64-encoded document bytes.
	Content  string                      `json:"content"`
	MimeType string                      `json:"mimeType,omitempty"`
	Config   *kreuzberg.ExtractionConfig `json:"config,omitempty"`
}

type batchItem struct {
	Content  string `json:"content"`
	MimeType string `json:"mimeType,omitempty"`
}

type batchRequest struct {
	Items  []batchItem                 `json:"items"`
	Config *kreuzberg.ExtractionConfig `json:"config,omitempty"`
}

// ---------- Handlers ----------

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_, active := s.counters()
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"active": active,
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	total, active := s.counters()

	writeJSON(w, http.StatusOK, map[string]any{
		"activeRequests": active,
		"totalRequests":  total,
		"goroutines":     runtime.NumGoroutine(),
		"memAllocMB":     m.Alloc / (1 << 20),
	})
}

func (s *Server) handlePlugins(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"extractors":     kreuzberg.ListExtractors(),
		"ocrBackends":    kreuzberg.ListOcrBackends(),
		"postProcessors": kreuzberg.ListPostProcessors(),
		"validators":     kreuzberg.ListValidators(),
	})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[extractRequest](r, s.cfg.MaxJSONBodyBytes)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "bad_request", sanitizeError(err))
		return
	}

	content, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "bad_request", "content must be base64")
		return
	}
	if len(content) == 0 {
		writeErr(w, http.StatusBadRequest, "validation_failed", "content required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.ExtractTimeout)
	defer cancel()

	result, err := kreuzberg.ExtractBytes(ctx, content, req.MimeType, req.Config)
	if err != nil {
		s.writeExtractionErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[batchRequest](r, s.cfg.MaxJSONBodyBytes)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "bad_request", sanitizeError(err))
		return
	}

	inputs := make([]kreuzberg.BytesInput, len(req.Items))
	for i, item := range req.Items {
		content, err := base64.StdEncoding.DecodeString(item.Content)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "bad_request",
				fmt.Sprintf("items[%d].content must be base64", i))
			return
		}
		inputs[i] = kreuzberg.BytesInput{Content: content, MimeType: item.MimeType}
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.BatchTimeout)
	defer cancel()

	results, err := kreuzberg.BatchExtractBytes(ctx, inputs, req.Config)
	if err != nil {
		s.writeExtractionErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// writeExtractionErr maps the error taxonomy onto HTTP statuses.
func (s *Server) writeExtractionErr(w http.ResponseWriter, err error) {
	e := kreuzberg.AsError(err)
	status := http.StatusInternalServerError
	switch e.Kind {
	case kreuzberg.KindValidation:
		status = http.StatusBadRequest
	case kreuzberg.KindUnsupportedFormat:
		status = http.StatusUnsupportedMediaType
	case kreuzberg.KindParsing, kreuzberg.KindOcr:
		status = http.StatusUnprocessableEntity
	case kreuzberg.KindMissingDependency:
		status = http.StatusNotImplemented
	}
	writeErr(w, status, e.Kind.String(), sanitizeError(e))
}

// ---------- Middleware ----------

func (s *Server) withInternalAuth(next http.Handler) http.Handler {
	shared := s.cfg.InternalSharedSecret
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shared == "" {
			next.ServeHTTP(w, r)
			return
		}
		got := r.Header.Get("X-Internal-Auth")
		if subtle.ConstantTimeCompare([]byte(got), []byte(shared)) != 1 {
			writeErr(w, http.StatusUnauthorized, "unauthorized", "Invalid authentication")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withConcurrencyLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.requestSem.Acquire(r.Context(), 1); err != nil {
			writeErr(w, http.StatusServiceUnavailable, "capacity", "Service at capacity")
			return
		}
		defer s.requestSem.Release(1)

		s.incActive()
		defer s.decActive()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !s.rateLimiter(ip).Allow() {
			w.Header().Set("Retry-After", "60")
			writeErr(w, http.StatusTooManyRequests, "rate_limit", "Rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.log.Error().Interface("panic", err).Msg("handler panicked")
				writeErr(w, http.StatusInternalServerError, "internal_error", "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &wrapWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", sanitizeLogString(r.URL.Path)).
			Int("status", ww.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

type wrapWriter struct {
	http.ResponseWriter
	status int
}

func (w *wrapWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// ---------- Helpers ----------

func (s *Server) rateLimiter(ip string) *rate.Limiter {
	s.limitersMu.Lock()
	defer s.limitersMu.Unlock()
	if l, ok := s.limiters[ip]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Every(s.cfg.RateLimitEvery), s.cfg.RateLimitBurst)
	s.limiters[ip] = l
	return l
}

func (s *Server) counters() (total, active int64) {
	s.metricsMu.RLock()
	defer s.metricsMu.RUnlock()
	return s.totalRequests, s.activeReqs
}

func (s *Server) incActive() {
	s.metricsMu.Lock()
	s.activeReqs++
	s.totalRequests++
	s.metricsMu.Unlock()
}

func (s *Server) decActive() {
	s.metricsMu.Lock()
	s.activeReqs--
	s.metricsMu.Unlock()
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		if idx := strings.Index(ip, ","); idx > 0 {
			return strings.TrimSpace(ip[:idx])
		}
		return strings.TrimSpace(ip)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return strings.TrimSpace(ip)
	}
	host, _, _ := net.SplitHostPort(r.RemoteAddr)
	return host
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	msg = strings.ReplaceAll(msg, os.TempDir(), "[tmp]")
	if len(msg) > 300 {
		msg = msg[:300] + "..."
	}
	return msg
}

func sanitizeLogString(s string) string {
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, "\r", "")
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

func parseJSON[T any](r *http.Request, limit int64) (T, error) {
	var out T
	dec := json.NewDecoder(io.LimitReader(r.Body, limit))
	dec.DisallowUnknownFields()

	if err := dec.Decode(&out); err != nil {
		return out, err
	}

	// Nothing may follow the first JSON value.
	if err := dec.Decode(new(any)); err != io.EOF {
		if err == nil {
			return out, fmt.Errorf("unexpected trailing data")
		}
		return out, err
	}
	return out, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
		"code":    code,
	})
}
