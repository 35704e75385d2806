// Package httpapi exposes the persisted asteroid data as a JSON REST API.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/orbitwatch/neo-data-service/internal/domain"
	"github.com/orbitwatch/neo-data-service/internal/store"
)

// Read-side repository surfaces, satisfied by the store repositories.

type AsteroidReader interface {
	List(skip, limit int) ([]domain.Asteroid, error)
	NearEarth(maxMOID float64, skip, limit int) ([]domain.Asteroid, error)
	ByOrbitClass(class string, skip, limit int) ([]domain.Asteroid, error)
	AccurateDiameter(skip, limit int) ([]domain.Asteroid, error)
	GetByDesignation(designation string) (*domain.Asteroid, error)
	Statistics() (*store.AsteroidStats, error)
}

type ApproachReader interface {
	Upcoming(now time.Time, skip, limit int) ([]domain.CloseApproach, error)
	Closest(skip, limit int) ([]domain.CloseApproach, error)
	Fastest(skip, limit int) ([]domain.CloseApproach, error)
	InPeriod(from, to time.Time, maxDistanceAU *float64, skip, limit int) ([]domain.CloseApproach, error)
	ByAsteroid(asteroidID uint, skip, limit int) ([]domain.CloseApproach, error)
	Statistics(now time.Time) (*store.ApproachStats, error)
}

type ThreatReader interface {
	Current(minTorino, skip, limit int) ([]domain.ThreatAssessment, error)
	HighRisk(skip, limit int) ([]domain.ThreatAssessment, error)
	ByProbability(min, max float64, skip, limit int) ([]domain.ThreatAssessment, error)
	ByEnergy(min, max float64, skip, limit int) ([]domain.ThreatAssessment, error)
	ByCategory(category string, skip, limit int) ([]domain.ThreatAssessment, error)
	GetByDesignation(designation string) (*domain.ThreatAssessment, error)
	GetByAsteroidID(asteroidID uint) (*domain.ThreatAssessment, error)
	Statistics() (*store.ThreatStats, error)
}

// Pinger reports database connectivity for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server serves the read API plus health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	asteroids  AsteroidReader
	approaches ApproachReader
	threats    ThreatReader
	pinger     Pinger
	logger     *slog.Logger
}

// NewServer wires all routes onto one mux.
func NewServer(addr string, asteroids AsteroidReader, approaches ApproachReader, threats ThreatReader, pinger Pinger, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		asteroids:  asteroids,
		approaches: approaches,
		threats:    threats,
		pinger:     pinger,
		logger:     logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /asteroids", s.handleAsteroidList)
	mux.HandleFunc("GET /asteroids/near-earth", s.handleAsteroidNearEarth)
	mux.HandleFunc("GET /asteroids/orbit-class/{class}", s.handleAsteroidOrbitClass)
	mux.HandleFunc("GET /asteroids/accurate-diameter", s.handleAsteroidAccurate)
	mux.HandleFunc("GET /asteroids/statistics", s.handleAsteroidStats)
	mux.HandleFunc("GET /asteroids/{designation}", s.handleAsteroidDetail)

	mux.HandleFunc("GET /approaches/upcoming", s.handleApproachUpcoming)
	mux.HandleFunc("GET /approaches/closest", s.handleApproachClosest)
	mux.HandleFunc("GET /approaches/fastest", s.handleApproachFastest)
	mux.HandleFunc("GET /approaches/in-period", s.handleApproachInPeriod)
	mux.HandleFunc("GET /approaches/statistics", s.handleApproachStats)
	mux.HandleFunc("GET /approaches/asteroid/{id}", s.handleApproachByAsteroid)

	mux.HandleFunc("GET /threats/current", s.handleThreatCurrent)
	mux.HandleFunc("GET /threats/high-risk", s.handleThreatHighRisk)
	mux.HandleFunc("GET /threats/by-probability", s.handleThreatByProbability)
	mux.HandleFunc("GET /threats/by-energy", s.handleThreatByEnergy)
	mux.HandleFunc("GET /threats/category/{category}", s.handleThreatByCategory)
	mux.HandleFunc("GET /threats/statistics", s.handleThreatStats)
	mux.HandleFunc("GET /threats/{designation}", s.handleThreatDetail)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.pinger.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
