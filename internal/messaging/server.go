package messaging

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mmcdole/moviemate/internal/adblock"
	"github.com/mmcdole/moviemate/internal/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RuleEngine is the blocker view the server needs
type RuleEngine interface {
	Rules() adblock.Rules
	Check(rawURL, resourceType string) bool
	Count() int64
}

// ServerOptions configures a Server
type ServerOptions struct {
	Addr           string
	AllowedOrigins []string
}

// Server exposes the router, pushes and rules over HTTP
type Server struct {
	router  *Router
	hub     *Hub
	rules   RuleEngine
	cache   domain.RecommendationQueries
	logger  *slog.Logger
	opts    ServerOptions
	httpSrv *http.Server
}

// NewServer creates a Server. cache may be nil.
func NewServer(opts ServerOptions, router *Router, hub *Hub, rules RuleEngine, cache domain.RecommendationQueries, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		router: router,
		hub:    hub,
		rules:  rules,
		cache:  cache,
		logger: logger,
		opts:   opts,
	}
	s.httpSrv = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the HTTP routes
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/message", s.handleMessage)
	r.Get("/events", s.hub.ServeHTTP)
	r.Get("/rules", s.handleRules)
	r.Post("/block", s.handleBlock)

	return r
}

// ListenAndServe serves until Shutdown
func (s *Server) ListenAndServe() error {
	s.logger.Info("messaging server listening", "addr", s.opts.Addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server and disconnects push subscribers
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := decode(r.Body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.router.Send(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownRequest) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.rules.Rules().Declarative())
}

// BlockReport is a rule-engine match candidate reported by the browser side
type BlockReport struct {
	URL          string `json:"url"`
	ResourceType string `json:"resourceType"`
}

// BlockResult answers a BlockReport
type BlockResult struct {
	Blocked bool  `json:"blocked"`
	Count   int64 `json:"count"`
}

func (s *Server) handleBlock(w http.ResponseWriter, r *http.Request) {
	var report BlockReport
	if err := decode(r.Body, &report); err != nil || report.URL == "" {
		s.writeError(w, http.StatusBadRequest, "invalid block report")
		return
	}
	blocked := s.rules.Check(report.URL, report.ResourceType)
	s.writeJSON(w, http.StatusOK, BlockResult{Blocked: blocked, Count: s.rules.Count()})
}

// Health is the /health body
type Health struct {
	Status      string         `json:"status"`
	Blocked     int64          `json:"blocked"`
	Subscribers int            `json:"subscribers"`
	Cache       map[string]int `json:"cache,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := Health{
		Status:      "ok",
		Blocked:     s.rules.Count(),
		Subscribers: s.hub.Len(),
	}
	if s.cache != nil {
		h.Cache = make(map[string]int)
		for g, n := range s.cache.Sizes() {
			h.Cache[string(g)] = n
		}
	}
	s.writeJSON(w, http.StatusOK, h)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := marshal(v)
	if err != nil {
		s.logger.Error("failed to encode response", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// ErrorBody is the body of non-2xx responses
type ErrorBody struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, ErrorBody{Error: msg})
}
