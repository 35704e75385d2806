package httpapi

import (
	"net/http"
	"strconv"

	"github.com/orbitwatch/neo-data-service/internal/domain"
)

func (s *Server) handleApproachUpcoming(w http.ResponseWriter, r *http.Request) {
	skip, limit := pagination(r)
	out, err := s.approaches.Upcoming(domain.Now(), skip, limit)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleApproachClosest(w http.ResponseWriter, r *http.Request) {
	skip, limit := pagination(r)
	out, err := s.approaches.Closest(skip, limit)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleApproachFastest(w http.ResponseWriter, r *http.Request) {
	skip, limit := pagination(r)
	out, err := s.approaches.Fastest(skip, limit)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleApproachInPeriod(w http.ResponseWriter, r *http.Request) {
	from, err := dateParam(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := dateParam(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var maxDistance *float64
	if raw := r.URL.Query().Get("max_distance_au"); raw != "" {
		v, err := floatParam(r, "max_distance_au", 0)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		maxDistance = &v
	}

	skip, limit := pagination(r)
	out, err := s.approaches.InPeriod(from, to, maxDistance, skip, limit)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleApproachStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.approaches.Statistics(domain.Now())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleApproachByAsteroid(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid asteroid id")
		return
	}
	skip, limit := pagination(r)
	out, err := s.approaches.ByAsteroid(uint(id), skip, limit)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
