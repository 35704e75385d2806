package httpapi

import (
	"errors"
	"net/http"

	"github.com/orbitwatch/neo-data-service/internal/store"
)

func (s *Server) handleThreatCurrent(w http.ResponseWriter, r *http.Request) {
	minTorino, err := intParam(r, "min_torino", 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	skip, limit := pagination(r)
	out, err := s.threats.Current(minTorino, skip, limit)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleThreatHighRisk(w http.ResponseWriter, r *http.Request) {
	skip, limit := pagination(r)
	out, err := s.threats.HighRisk(skip, limit)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleThreatByProbability(w http.ResponseWriter, r *http.Request) {
	min, err := floatParam(r, "min", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	max, err := floatParam(r, "max", 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	skip, limit := pagination(r)
	out, err := s.threats.ByProbability(min, max, skip, limit)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleThreatByEnergy(w http.ResponseWriter, r *http.Request) {
	min, err := floatParam(r, "min", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	max, err := floatParam(r, "max", 1e12)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	skip, limit := pagination(r)
	out, err := s.threats.ByEnergy(min, max, skip, limit)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleThreatByCategory(w http.ResponseWriter, r *http.Request) {
	skip, limit := pagination(r)
	out, err := s.threats.ByCategory(r.PathValue("category"), skip, limit)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleThreatStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.threats.Statistics()
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleThreatDetail returns 200 with a null payload for unknown
// designations; only the asteroid detail endpoint 404s. The asymmetry is
// deliberate and mirrors the upstream risk-table semantics, where absence
// means "no assessed risk".
func (s *Server) handleThreatDetail(w http.ResponseWriter, r *http.Request) {
	threat, err := s.threats.GetByDesignation(r.PathValue("designation"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusOK, nil)
			return
		}
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, threat)
}
