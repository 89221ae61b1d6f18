// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/okian/reelsim/internal/domain/model"
	"github.com/okian/reelsim/internal/domain/types"
)

// MovieDependencies defines the catalog reads behind the movie routes.
type MovieDependencies interface {
	Movie(ctx context.Context, id int64) (*model.Record, error)
	Movies(ctx context.Context, query string, offset, limit int) ([]model.Record, error)
}

// MoviesHandler handles catalog requests.
type MoviesHandler struct {
	deps MovieDependencies
}

// NewMoviesHandler creates a new movies handler.
func NewMoviesHandler(deps MovieDependencies) *MoviesHandler {
	return &MoviesHandler{deps: deps}
}

// HandleGetMovie handles GET /movies/{id} requests.
func (h *MoviesHandler) HandleGetMovie(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_movie"
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	rec, err := h.deps.Movie(r.Context(), id)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, types.NewMovie(rec))
}

// HandleListMovies handles GET /movies?q=title&offset=N&limit=M requests.
func (h *MoviesHandler) HandleListMovies(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_movies"
	req, err := parseListRequest(r)
	if err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	records, err := h.deps.Movies(r.Context(), req.Query, req.Offset, req.Limit)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	movies := make([]types.Movie, len(records))
	for i := range records {
		movies[i] = types.NewMovie(&records[i])
	}
	writeJSON(w, http.StatusOK, movies)
}
