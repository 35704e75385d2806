package httpapi

import (
	"errors"
	"net/http"

	"github.com/orbitwatch/neo-data-service/internal/domain"
	"github.com/orbitwatch/neo-data-service/internal/store"
)

// asteroidDetail is the composite payload joining an asteroid with its
// close approaches and threat assessment, if any.
type asteroidDetail struct {
	domain.Asteroid
	CloseApproaches  []domain.CloseApproach   `json:"close_approaches"`
	ThreatAssessment *domain.ThreatAssessment `json:"threat_assessment"`
}

func (s *Server) handleAsteroidList(w http.ResponseWriter, r *http.Request) {
	skip, limit := pagination(r)
	out, err := s.asteroids.List(skip, limit)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAsteroidNearEarth(w http.ResponseWriter, r *http.Request) {
	maxMOID, err := floatParam(r, "max_moid", 0.05)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	skip, limit := pagination(r)
	out, err := s.asteroids.NearEarth(maxMOID, skip, limit)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAsteroidOrbitClass(w http.ResponseWriter, r *http.Request) {
	skip, limit := pagination(r)
	out, err := s.asteroids.ByOrbitClass(r.PathValue("class"), skip, limit)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAsteroidAccurate(w http.ResponseWriter, r *http.Request) {
	skip, limit := pagination(r)
	out, err := s.asteroids.AccurateDiameter(skip, limit)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAsteroidStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.asteroids.Statistics()
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleAsteroidDetail returns 404 for unknown designations, unlike the
// threat detail endpoint.
func (s *Server) handleAsteroidDetail(w http.ResponseWriter, r *http.Request) {
	designation := r.PathValue("designation")

	asteroid, err := s.asteroids.GetByDesignation(designation)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	approaches, err := s.approaches.ByAsteroid(asteroid.ID, 0, 0)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	threat, err := s.threats.GetByAsteroidID(asteroid.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, asteroidDetail{
		Asteroid:         *asteroid,
		CloseApproaches:  approaches,
		ThreatAssessment: threat,
	})
}
