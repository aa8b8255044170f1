package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/snaretech/snare/internal/detect"
	"github.com/snaretech/snare/internal/honeypot"
	"github.com/snaretech/snare/internal/session"
	"github.com/snaretech/snare/internal/signal"
)

type signalsRequest struct {
	SessionID        string `json:"session_id"`
	PointerMoves     int64  `json:"pointer_moves"`
	Scrolls          int64  `json:"scrolls"`
	Clicks           int64  `json:"clicks"`
	InputEvents      int64  `json:"input_events"`
	PagesVisited     int64  `json:"pages_visited"`
	ResourceRequests int64  `json:"resource_requests"`
	Searches         int64  `json:"searches"`
	APICalls         int64  `json:"api_calls"`
}

type scoreRequest struct {
	SessionID string `json:"session_id"`
}

type sessionRequest struct {
	SessionID string `json:"session_id"`
}

type feedbackRequest struct {
	VerdictID   string `json:"verdict_id"`
	ActualIsBot *bool  `json:"actual_is_bot"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	// Ready once a parameter version is published; scoring cannot run
	// without one.
	if s.registry.Current() == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "no scoring parameters"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	var req signalsRequest
	if !s.decode(w, r, &req) {
		return
	}

	delta := session.Delta{
		PointerMoves:     req.PointerMoves,
		Scrolls:          req.Scrolls,
		Clicks:           req.Clicks,
		InputEvents:      req.InputEvents,
		PagesVisited:     req.PagesVisited,
		ResourceRequests: req.ResourceRequests,
		Searches:         req.Searches,
		APICalls:         req.APICalls,
	}
	if err := s.detector.ReportSignals(r.Context(), req.SessionID, delta); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"accepted": true})
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if !s.decode(w, r, &req) {
		return
	}

	snap := signal.Collect(r, s.cfg.TrustProxy, s.reputation)
	verdict, err := s.detector.Score(r.Context(), req.SessionID, snap)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, verdict)
}

func (s *Server) handleTrap(w http.ResponseWriter, r *http.Request) {
	trapID := chi.URLParam(r, "trapID")

	var req sessionRequest
	if !s.decode(w, r, &req) {
		return
	}

	verdict, err := s.detector.ReportTrap(r.Context(), req.SessionID, trapID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, verdict)
}

func (s *Server) handleEntity(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "entityID")
	if entityID == "" {
		s.writeError(w, r, &detect.InputError{Field: "entity_id", Reason: "must not be empty"})
		return
	}

	entity := s.generator.GenerateEntity(entityID)
	s.metrics.IncrementHoneypotPages("entity")
	writeJSON(w, http.StatusOK, entity)
}

func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.writeError(w, r, &detect.InputError{Field: "page", Reason: "must be a positive integer"})
			return
		}
		page = n
	}

	filter := honeypot.Filter{Category: r.URL.Query().Get("category")}
	listing := s.generator.GenerateListing(filter, page)
	s.metrics.IncrementHoneypotPages("listing")
	writeJSON(w, http.StatusOK, listing)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.ActualIsBot == nil {
		s.writeError(w, r, &detect.InputError{Field: "actual_is_bot", Reason: "is required"})
		return
	}

	if err := s.loop.Record(req.VerdictID, *req.ActualIsBot); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"accepted": true})
}

func (s *Server) handleRecompute(w http.ResponseWriter, r *http.Request) {
	params, err := s.loop.Recompute()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"version": params.Version})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	window := 15
	if raw := r.URL.Query().Get("window"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.writeError(w, r, &detect.InputError{Field: "window", Reason: "must be a positive integer (minutes)"})
			return
		}
		window = n
	}
	writeJSON(w, http.StatusOK, s.detector.Aggregator().Summarize(window))
}

func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Current())
}

// decode reads a size-capped JSON body into dst. A false return means the
// error response has already been written.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	defer func() {
		_, _ = io.Copy(io.Discard, body)
	}()

	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		s.writeError(w, r, &detect.InputError{Field: "body", Reason: "invalid JSON"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the detection error taxonomy onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		inputErr  *detect.InputError
		notFound  *detect.NotFoundError
		transient *detect.TransientStoreError
	)

	switch {
	case errors.As(err, &inputErr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": inputErr.Error()})
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": notFound.Error()})
	case errors.As(err, &transient):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "store temporarily unavailable"})
	default:
		s.logger.WithError(err).WithField("path", r.URL.Path).Error("request failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
