package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const defaultPageLimit = 50

var validate = validator.New(validator.WithRequiredStructEnabled())

// recommendRequest holds the parsed parameters of GET /recommendations/{id}.
type recommendRequest struct {
	ID int64
	K  int `validate:"min=1"`
}

// listRequest holds the parsed parameters of GET /movies.
type listRequest struct {
	Query  string `validate:"max=200"`
	Offset int    `validate:"min=0"`
	Limit  int    `validate:"min=1,max=500"`
}

func parseRecommendRequest(r *http.Request, defaultK, maxK int) (recommendRequest, error) {
	id, err := pathID(r)
	if err != nil {
		return recommendRequest{}, err
	}
	k, err := queryInt(r, "k", defaultK)
	if err != nil {
		return recommendRequest{}, err
	}
	req := recommendRequest{ID: id, K: k}
	if err := check(req); err != nil {
		return recommendRequest{}, err
	}
	if err := validate.Var(k, "max="+strconv.Itoa(maxK)); err != nil {
		return recommendRequest{}, fmt.Errorf("k must be at most %d", maxK)
	}
	return req, nil
}

func parseListRequest(r *http.Request) (listRequest, error) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		return listRequest{}, err
	}
	limit, err := queryInt(r, "limit", defaultPageLimit)
	if err != nil {
		return listRequest{}, err
	}
	req := listRequest{Query: strings.TrimSpace(r.URL.Query().Get("q")), Offset: offset, Limit: limit}
	if err := check(req); err != nil {
		return listRequest{}, err
	}
	return req, nil
}

func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid movie id %q", raw)
	}
	return id, nil
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, nil
}

// check validates req and reports the first failing field in request terms.
func check(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	if field == "query" {
		field = "q"
	}
	switch fe.Tag() {
	case "min":
		return fmt.Errorf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Errorf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Errorf("%s failed %s", field, fe.Tag())
	}
}
