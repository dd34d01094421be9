// Package web exposes the study API over HTTP.
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/grammr/srs/internal/domain"
	"github.com/grammr/srs/internal/fsrs"
	"github.com/grammr/srs/internal/planner"
	"github.com/grammr/srs/internal/review"
	"github.com/grammr/srs/internal/storage"
)

const (
	defaultStudyLimit = 20
	maxStudyLimit     = 100
)

// Server holds the dependencies for the HTTP API.
type Server struct {
	planner  *planner.Planner
	reviews  *review.Service
	logger   *slog.Logger
	router   *http.ServeMux
	validate *validator.Validate

	now func() time.Time
}

// NewServer creates and configures a new server.
func NewServer(p *planner.Planner, r *review.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		planner:  p,
		reviews:  r,
		logger:   logger,
		router:   http.NewServeMux(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.router.ServeHTTP(w, r)
	s.logger.Info("request",
		"method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	s.router.HandleFunc("GET /api/v1/study/due", s.requireUser(s.handleDueCounts()))
	s.router.HandleFunc("GET /api/v1/study", s.requireUser(s.handleStudyBatch()))
	s.router.HandleFunc("POST /api/v1/study/{cardID}/review", s.requireUser(s.handlePostReview()))
}

type userHandler func(w http.ResponseWriter, r *http.Request, userID string)

// requireUser resolves the caller's identity from the X-User-ID header.
func (s *Server) requireUser(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			s.writeError(w, http.StatusUnauthorized, "missing X-User-ID header")
			return
		}
		next(w, r, userID)
	}
}

// handleDueCounts reports how many cards are waiting for the user.
func (s *Server) handleDueCounts() userHandler {
	return func(w http.ResponseWriter, r *http.Request, userID string) {
		includeNew := true
		if raw := r.URL.Query().Get("include_new"); raw != "" {
			parsed, err := strconv.ParseBool(raw)
			if err != nil {
				s.writeError(w, http.StatusBadRequest, "include_new must be a boolean")
				return
			}
			includeNew = parsed
		}

		counts, err := s.planner.Counts(r.Context(), userID, s.now(), includeNew)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, counts)
	}
}

// handleStudyBatch returns the next page of cards to study.
func (s *Server) handleStudyBatch() userHandler {
	return func(w http.ResponseWriter, r *http.Request, userID string) {
		limit := defaultStudyLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 || parsed > maxStudyLimit {
				s.writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
				return
			}
			limit = parsed
		}

		batch, err := s.planner.NextBatch(r.Context(), userID, s.now(), limit)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, batch)
	}
}

type reviewRequest struct {
	Rating string `json:"rating" validate:"required"`
}

type reviewResponse struct {
	Success     bool              `json:"success"`
	UpdatedCard *domain.Card      `json:"updatedCard"`
	ReviewLog   *domain.ReviewLog `json:"reviewLog"`
}

// handlePostReview applies one rating to one card.
func (s *Server) handlePostReview() userHandler {
	return func(w http.ResponseWriter, r *http.Request, userID string) {
		cardID, err := strconv.ParseInt(r.PathValue("cardID"), 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid card id")
			return
		}

		var req reviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "malformed request body")
			return
		}
		if err := s.validate.Struct(req); err != nil {
			s.writeError(w, http.StatusBadRequest, "rating is required")
			return
		}
		rating, err := fsrs.ParseRating(req.Rating)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "rating must be one of Again, Hard, Good, Easy")
			return
		}

		card, log, err := s.reviews.Submit(r.Context(), userID, cardID, rating, s.now())
		switch {
		case errors.Is(err, storage.ErrNotFound):
			s.writeError(w, http.StatusNotFound, "card not found")
			return
		case errors.Is(err, storage.ErrConflict):
			s.writeError(w, http.StatusConflict, "card was modified by another review")
			return
		case err != nil:
			s.serverError(w, r, err)
			return
		}

		s.writeJSON(w, http.StatusOK, reviewResponse{
			Success:     true,
			UpdatedCard: card,
			ReviewLog:   log,
		})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	s.writeError(w, http.StatusInternalServerError, "internal server error")
}
