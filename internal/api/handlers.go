package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hydavinci/formula-1-schedule/internal/f1"
	"github.com/hydavinci/formula-1-schedule/internal/schedule"
)

// minSeason is the first championship year.
const minSeason = 1950

type resultsResponse struct {
	Year  int       `json:"year"`
	Round string    `json:"round"`
	Races []f1.Race `json:"races"`
}

type standingsResponse struct {
	Kind           f1.StandingsKind   `json:"kind"`
	Year           int                `json:"year"`
	Round          string             `json:"round"`
	StandingsLists []f1.StandingsList `json:"standings_lists"`
}

// getCalendar answers 200 with the chain result, or 404 with the same body
// when every source and year came back empty.
func (s *Server) getCalendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, err := parseYear(q.Get("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	maxFallbacks := -1
	if raw := q.Get("max_fallbacks"); raw != "" {
		maxFallbacks, err = strconv.Atoi(raw)
		if err != nil || maxFallbacks < 0 {
			writeError(w, http.StatusBadRequest, "max_fallbacks must be a non-negative integer")
			return
		}
	}
	noCache, _ := strconv.ParseBool(q.Get("no_cache"))

	res, err := s.svc.Calendar(r.Context(), schedule.CalendarQuery{Year: year, MaxFallbacks: maxFallbacks, NoCache: noCache})
	if err != nil {
		s.logger.Error("calendar query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "calendar query failed")
		return
	}
	if res.Races == nil {
		res.Races = []f1.Race{}
	}
	status := http.StatusOK
	if res.Status == f1.StatusError {
		status = http.StatusNotFound
	}
	writeJSON(w, status, res)
}

func (s *Server) getResults(w http.ResponseWriter, r *http.Request) {
	year, round, ok := s.season(w, r)
	if !ok {
		return
	}
	races, err := s.svc.RaceResults(r.Context(), year, round)
	if err != nil {
		s.logger.Error("results query failed", zap.Int("year", year), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "results query failed")
		return
	}
	resp := resultsResponse{Year: year, Round: round.ForResults().String(), Races: races}
	if len(races) == 0 {
		resp.Races = []f1.Race{}
		writeJSON(w, http.StatusNotFound, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getStandings(w http.ResponseWriter, r *http.Request) {
	kind := f1.StandingsKind(chi.URLParam(r, "kind"))
	year, round, ok := s.season(w, r)
	if !ok {
		return
	}
	lists, err := s.svc.Standings(r.Context(), kind, year, round)
	if errors.Is(err, schedule.ErrUnknownKind) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("standings query failed", zap.String("kind", string(kind)), zap.Int("year", year), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "standings query failed")
		return
	}
	resp := standingsResponse{Kind: kind, Year: year, Round: round.String(), StandingsLists: lists}
	if len(lists) == 0 {
		resp.StandingsLists = []f1.StandingsList{}
		writeJSON(w, http.StatusNotFound, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) clearCache(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ClearCache(r.Context()); err != nil {
		s.logger.Error("cache clear failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "cache clear failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// season reads the {year} path segment and the round query parameter,
// writing a 400 on bad input.
func (s *Server) season(w http.ResponseWriter, r *http.Request) (int, f1.Round, bool) {
	year, err := parseYear(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return 0, f1.Round{}, false
	}
	round, err := f1.ParseRound(r.URL.Query().Get("round"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return 0, f1.Round{}, false
	}
	return s.svc.Year(year), round, true
}

// parseYear maps "" and "current" to 0.
func parseYear(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, f1.RoundCurrent) {
		return 0, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < minSeason {
		return 0, fmt.Errorf("invalid year %q", raw)
	}
	return year, nil
}
