// Package server exposes the resolver and knowledge base over HTTP.
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

	"github.com/trailpost/trailpost/internal/model"
	"github.com/trailpost/trailpost/internal/store"
	"github.com/trailpost/trailpost/pkg/geo"
)

// Resolver infers the semantic location of a point.
type Resolver interface {
	Infer(ctx context.Context, point geo.Point) (model.Location, error)
}

// KnowledgeBase records confirmed observations and lists known places.
type KnowledgeBase interface {
	AddObservation(ctx context.Context, label string, point geo.Point) (*store.Place, error)
	List(ctx context.Context) ([]store.Place, error)
}

// Server handles the HTTP API.
type Server struct {
	resolver Resolver
	kb       KnowledgeBase
}

// New creates a Server.
func New(resolver Resolver, kb KnowledgeBase) *Server {
	return &Server{resolver: resolver, kb: kb}
}

// Router builds the chi router with logging and CORS middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/resolve", s.handleResolve)
		r.Post("/observations", s.handleAddObservation)
		r.Get("/places", s.handleListPlaces)
	})

	return r
}

type resolveRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	loc, err := s.resolver.Infer(r.Context(), geo.NewPoint(req.Lat, req.Lon))
	if err != nil {
		zap.L().Error("resolve failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "resolve failed")
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

type observationRequest struct {
	Label string  `json:"label"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

type placeResponse struct {
	Label    string    `json:"label"`
	Centroid geo.Point `json:"centroid"`
	Points   int       `json:"points"`
}

func (s *Server) handleAddObservation(w http.ResponseWriter, r *http.Request) {
	var req observationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Label == "" {
		writeError(w, http.StatusBadRequest, "label is required")
		return
	}

	place, err := s.kb.AddObservation(r.Context(), req.Label, geo.NewPoint(req.Lat, req.Lon))
	if err != nil {
		zap.L().Error("observation failed", zap.String("label", req.Label), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "observation failed")
		return
	}
	writeJSON(w, http.StatusOK, placeResponse{
		Label:    place.Label,
		Centroid: place.Centroid,
		Points:   len(place.History),
	})
}

func (s *Server) handleListPlaces(w http.ResponseWriter, r *http.Request) {
	all, err := s.kb.List(r.Context())
	if err != nil {
		zap.L().Error("list places failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	out := make([]placeResponse, len(all))
	for i, p := range all {
		out[i] = placeResponse{Label: p.Label, Centroid: p.Centroid, Points: len(p.History)}
	}
	writeJSON(w, http.StatusOK, out)
}

// requestLogger logs one line per request through the global zap logger.
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

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
