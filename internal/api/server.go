package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/microvote/microvote/internal/clock"
	"github.com/microvote/microvote/internal/models"
	"github.com/microvote/microvote/internal/service"
)

// Server provides a read-only HTTP API over the voting state, plus the
// Prometheus metrics endpoint.
type Server struct {
	svc    *service.Service
	logger *logrus.Logger
	mux    *http.ServeMux
}

// NewServer creates a Server, registers all routes, and returns it.
func NewServer(svc *service.Service, logger *logrus.Logger) *Server {
	s := &Server{svc: svc, logger: logger, mux: http.NewServeMux()}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/polls", s.handleGetPolls)
	s.mux.HandleFunc("GET /api/polls/{id}", s.handleGetPoll)
	s.mux.HandleFunc("GET /api/polls/{id}/result", s.handleGetPollResult)
	s.mux.HandleFunc("GET /api/laws", s.handleGetLaws)
	s.mux.HandleFunc("GET /api/quorum", s.handleGetQuorum)

	s.mux.Handle("GET /metrics", promhttp.Handler())
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.WithError(err).Error("failed to encode JSON response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// pathID extracts the {id} path value and converts it to int64.
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// queryInt64 reads an optional int64 query parameter, returning 0 when
// absent or malformed.
func queryInt64(r *http.Request, name string) int64 {
	n, _ := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	return n
}

// ---------------------------------------------------------------------------
// Polls
// ---------------------------------------------------------------------------

// pollView is the wire shape of a poll: votes are reduced to a count and
// open-ness is precomputed.
type pollView struct {
	ID       int64    `json:"id"`
	Tag      string   `json:"tag"`
	ChatID   int64    `json:"chat_id"`
	Name     string   `json:"name"`
	Desc     string   `json:"desc"`
	Options  []string `json:"options"`
	Minutes  int64    `json:"minutes"`
	ClosesAt int64    `json:"closes_at"`
	Open     bool     `json:"open"`
	NumVotes int      `json:"num_votes"`
}

func newPollView(p *models.Poll) pollView {
	return pollView{
		ID:       p.ID,
		Tag:      p.DisplayID(),
		ChatID:   p.ChatID,
		Name:     p.Name,
		Desc:     p.Desc,
		Options:  p.Options,
		Minutes:  p.Minutes,
		ClosesAt: p.ClosesAt(),
		Open:     p.IsOpen(clock.Now()),
		NumVotes: len(p.Votes),
	}
}

func (s *Server) handleGetPolls(w http.ResponseWriter, r *http.Request) {
	polls, err := s.svc.Polls(r.Context(), queryInt64(r, "chat_id"))
	if err != nil {
		s.logger.WithError(err).Error("failed to list polls")
		s.respondError(w, http.StatusInternalServerError, "failed to list polls")
		return
	}
	views := make([]pollView, len(polls))
	for i, p := range polls {
		views[i] = newPollView(p)
	}
	s.respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetPoll(w http.ResponseWriter, r *http.Request) {
	poll, ok := s.pollFromPath(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, newPollView(poll))
}

func (s *Server) handleGetPollResult(w http.ResponseWriter, r *http.Request) {
	poll, ok := s.pollFromPath(w, r)
	if !ok {
		return
	}
	res := service.Tally(poll)
	s.respondJSON(w, http.StatusOK, map[string]any{
		"poll":           newPollView(poll),
		"averages":       res.Averages,
		"num_votes":      res.NumVotes,
		"turnout":        res.Turnout(),
		"reached_quorum": res.ReachedQuorum,
	})
}

func (s *Server) pollFromPath(w http.ResponseWriter, r *http.Request) (*models.Poll, bool) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid poll id")
		return nil, false
	}
	poll, err := s.svc.Poll(r.Context(), id)
	if err != nil {
		s.logger.WithError(err).Error("failed to get poll")
		s.respondError(w, http.StatusInternalServerError, "failed to get poll")
		return nil, false
	}
	if poll == nil {
		s.respondError(w, http.StatusNotFound, "poll not found")
		return nil, false
	}
	return poll, true
}

// ---------------------------------------------------------------------------
// Laws
// ---------------------------------------------------------------------------

type lawView struct {
	ID     int64   `json:"id"`
	Tag    string  `json:"tag"`
	Name   string  `json:"name"`
	Body   string  `json:"body"`
	Status string  `json:"status"`
	Polls  []int64 `json:"poll_ids"`
}

func (s *Server) handleGetLaws(w http.ResponseWriter, r *http.Request) {
	chatID := queryInt64(r, "chat_id")
	if chatID == 0 {
		s.respondError(w, http.StatusBadRequest, "chat_id query parameter is required")
		return
	}
	laws, err := s.svc.Laws(r.Context(), chatID)
	if err != nil {
		s.logger.WithError(err).Error("failed to list laws")
		s.respondError(w, http.StatusInternalServerError, "failed to list laws")
		return
	}
	views := make([]lawView, 0, len(laws))
	for _, law := range laws {
		res, err := s.svc.LawResult(r.Context(), law)
		if err != nil {
			s.logger.WithError(err).Error("failed to resolve law")
			s.respondError(w, http.StatusInternalServerError, "failed to resolve law")
			return
		}
		views = append(views, lawView{
			ID:     law.ID,
			Tag:    law.DisplayID(),
			Name:   law.Name,
			Body:   law.Body,
			Status: res.Status.String(),
			Polls:  law.PollIDs,
		})
	}
	s.respondJSON(w, http.StatusOK, views)
}

// ---------------------------------------------------------------------------
// Quorum
// ---------------------------------------------------------------------------

func (s *Server) handleGetQuorum(w http.ResponseWriter, r *http.Request) {
	chatID := queryInt64(r, "chat_id")
	if chatID == 0 {
		s.respondError(w, http.StatusBadRequest, "chat_id query parameter is required")
		return
	}
	population := int(queryInt64(r, "population"))
	required, formula, err := s.svc.ChatQuorum(r.Context(), chatID, population)
	if err != nil {
		s.logger.WithError(err).Error("failed to get quorum")
		s.respondError(w, http.StatusInternalServerError, "failed to get quorum")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"formula":    string(formula),
		"population": population,
		"required":   required,
	})
}
