// Package server exposes the retrieval and layout pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/atlas-creative/content-engine/internal/config"
	"github.com/atlas-creative/content-engine/internal/layout"
	"github.com/atlas-creative/content-engine/internal/model"
	"github.com/atlas-creative/content-engine/internal/retrieve"
)

const (
	queryMinLen = 3
	queryMaxLen = 2000
)

// Retriever assembles context for a query. Satisfied by retrieve.Retriever.
type Retriever interface {
	Retrieve(ctx context.Context, query string, f retrieve.Filters, maxChunks, maxAssets int) (*retrieve.Bundle, error)
}

// GenerateRequest is the POST /api/generate body.
type GenerateRequest struct {
	Query               string                   `json:"query"`
	Filters             retrieve.Filters         `json:"filters"`
	ConversationHistory []model.ConversationTurn `json:"conversationHistory,omitempty"`
}

// Server wires the HTTP routes to the pipeline.
type Server struct {
	retriever    Retriever
	orchestrator layout.Orchestrator
	cfg          config.ServerConfig
}

// New constructs a Server.
func New(retriever Retriever, orchestrator layout.Orchestrator, cfg config.ServerConfig) *Server {
	return &Server{retriever: retriever, orchestrator: orchestrator, cfg: cfg}
}

// Handler builds the chi router with middleware and routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/api/generate", s.handleGenerate)
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "content-engine",
	})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Query) < queryMinLen || len(req.Query) > queryMaxLen {
		writeError(w, http.StatusBadRequest, "query must be between 3 and 2000 characters")
		return
	}

	bundle, err := s.retriever.Retrieve(r.Context(), req.Query, req.Filters, 0, 0)
	if err != nil {
		zap.L().Error("retrieval failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, layout.Fallback())
		return
	}

	plan, err := s.orchestrator.Plan(r.Context(), req.Query, bundle, req.ConversationHistory)
	if err != nil {
		zap.L().Error("layout orchestration failed", zap.Error(err))
		if plan == nil {
			plan = layout.Fallback()
		}
		writeJSON(w, http.StatusInternalServerError, plan)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
