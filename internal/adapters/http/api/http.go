// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/okian/reelsim/internal/domain/model"
	"github.com/okian/reelsim/internal/domain/types"
	"github.com/okian/reelsim/internal/domain/weights"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	MovieDependencies
	RecommendDependencies
}

// Entry mirrors the read shape of one ranked recommendation.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	moviesHandler    *MoviesHandler
	recommendHandler *RecommendHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		moviesHandler:    NewMoviesHandler(deps),
		recommendHandler: NewRecommendHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.Handle("GET /healthz", RequestID(MetricsMiddleware(s.healthHandler.HandleHealth, "healthz")))
	mux.Handle("GET /metrics", MetricsMiddleware(s.healthHandler.HandleMetrics, "metrics"))
	mux.Handle("GET /stats", RequestID(MetricsMiddleware(s.statsHandler.HandleStats, "stats")))
	mux.Handle("GET /movies", RequestID(MetricsMiddleware(s.moviesHandler.HandleListMovies, "movies")))
	mux.Handle("GET /movies/{id}", RequestID(MetricsMiddleware(s.moviesHandler.HandleGetMovie, "movie")))
	mux.Handle("GET /recommendations/{id}", RequestID(MetricsMiddleware(s.recommendHandler.HandleRecommend, "recommendations")))
}

// recommendResponse is the body of GET /recommendations/{id}.
type recommendResponse struct {
	Reference types.Movie        `json:"reference"`
	K         int                `json:"k"`
	Weights   map[string]float64 `json:"weights"`
	Empty     bool               `json:"empty"`
	Results   []Entry            `json:"results"`
}

func newRecommendResponse(reference *model.Record, k int, w weights.Config, result model.RankedResult) recommendResponse {
	return recommendResponse{
		Reference: types.NewMovie(reference),
		K:         k,
		Weights:   w.Map(),
		Empty:     len(result) == 0,
		Results:   types.NewEntries(result),
	}
}

type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg, RequestID: RequestIDFrom(r.Context())})
}
