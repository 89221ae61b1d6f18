// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/reelsim/internal/domain/model"
	"github.com/okian/reelsim/internal/domain/weights"
	"github.com/okian/reelsim/internal/engine"
)

// RecommendDependencies defines the interface for similarity queries.
type RecommendDependencies interface {
	Movie(ctx context.Context, id int64) (*model.Record, error)
	Recommend(ctx context.Context, id int64, k int) (model.RankedResult, error)
	DefaultK() int
	MaxK() int
	Weights() weights.Config
}

// RecommendHandler handles recommendation requests.
type RecommendHandler struct {
	deps RecommendDependencies
}

// NewRecommendHandler creates a new recommendation handler.
func NewRecommendHandler(deps RecommendDependencies) *RecommendHandler {
	return &RecommendHandler{deps: deps}
}

// HandleRecommend handles GET /recommendations/{id}?k=N requests. A
// reference with no other movie to compare against yields 200 with
// "empty": true.
func (h *RecommendHandler) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	const op = "api.recommend"
	req, err := parseRecommendRequest(r, h.deps.DefaultK(), h.deps.MaxK())
	if err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}

	reference, err := h.deps.Movie(r.Context(), req.ID)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}

	result, err := h.deps.Recommend(r.Context(), req.ID, req.K)
	if err != nil && !errors.Is(err, engine.ErrEmptyCandidateSet) {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, newRecommendResponse(reference, req.K, h.deps.Weights(), result))
}
