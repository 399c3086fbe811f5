package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"PyramidSentinel/internal/collector"
	"PyramidSentinel/internal/model"
	"PyramidSentinel/internal/pyramid"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code string, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error(), Code: code})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleComputePlan(w http.ResponseWriter, r *http.Request) {
	var in model.StrategyInput
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		s.writeError(w, http.StatusBadRequest, "BadRequest", err)
		return
	}

	plan, err := pyramid.Compute(in)
	if err != nil {
		var verr *pyramid.ValidationError
		if errors.As(err, &verr) {
			s.writeError(w, http.StatusUnprocessableEntity, verr.CodeName(), err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, "", err)
		return
	}
	s.writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleLatestPlan(w http.ResponseWriter, r *http.Request) {
	if s.snapshots == nil {
		s.writeError(w, http.StatusNotFound, "NoSnapshot", errors.New("periodic refresh is not running"))
		return
	}
	snap, ok := s.snapshots.Latest()
	if !ok {
		s.writeError(w, http.StatusNotFound, "NoSnapshot", errors.New("no plan computed yet"))
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	q, err := s.fetcher.FetchQuote(r.Context(), symbol)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, collector.ErrUnknownSymbol) {
			status = http.StatusNotFound
		}
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("quote lookup failed")
		s.writeError(w, status, "QuoteUnavailable", err)
		return
	}
	s.writeJSON(w, http.StatusOK, q)
}
