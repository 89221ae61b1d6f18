// Package types contains the read shapes returned by the HTTP and CLI front ends.
package types

import (
	"github.com/okian/reelsim/internal/domain/model"
)

// Entry represents one ranked recommendation.
type Entry struct {
	Rank        int                `json:"rank"`
	ID          int64              `json:"id"`
	Title       string             `json:"title"`
	Score       float64            `json:"score"`
	Percent     int                `json:"percent"`
	Breakdown   map[string]float64 `json:"breakdown,omitempty"`
	Genres      []string           `json:"genres"`
	ReleaseDate string             `json:"release_date,omitempty"`
	Budget      float64            `json:"budget"`
}

// Movie is the public view of a catalog record.
type Movie struct {
	ID                  int64    `json:"id"`
	Title               string   `json:"title"`
	Homepage            string   `json:"homepage,omitempty"`
	Genres              []string `json:"genres"`
	Keywords            []string `json:"keywords"`
	ProductionCompanies []string `json:"production_companies"`
	Budget              float64  `json:"budget"`
	ReleaseDate         string   `json:"release_date,omitempty"`
	VoteAverage         float64  `json:"vote_average"`
	VoteCount           int64    `json:"vote_count"`
	OriginalLanguage    string   `json:"original_language,omitempty"`
	Overview            string   `json:"overview,omitempty"`
}

// NewEntries converts a ranked result into display entries, ranks starting at 1.
func NewEntries(result model.RankedResult) []Entry {
	entries := make([]Entry, 0, len(result))
	for i, m := range result {
		e := Entry{
			Rank:        i + 1,
			ID:          m.Record.ID,
			Title:       m.Record.Title,
			Score:       m.Score,
			Percent:     m.RoundedPercent(),
			Genres:      nonNil(m.Record.Genres),
			ReleaseDate: m.Record.ReleaseDate,
			Budget:      m.Record.Budget,
		}
		if len(m.Breakdown) > 0 {
			e.Breakdown = make(map[string]float64, len(m.Breakdown))
			for a, s := range m.Breakdown {
				e.Breakdown[string(a)] = s
			}
		}
		entries = append(entries, e)
	}
	return entries
}

// NewMovie converts a record to its public view.
func NewMovie(r *model.Record) Movie {
	return Movie{
		ID:                  r.ID,
		Title:               r.Title,
		Homepage:            r.Homepage,
		Genres:              nonNil(r.Genres),
		Keywords:            nonNil(r.Keywords),
		ProductionCompanies: nonNil(r.ProductionCompanies),
		Budget:              r.Budget,
		ReleaseDate:         r.ReleaseDate,
		VoteAverage:         r.VoteAverage,
		VoteCount:           r.VoteCount,
		OriginalLanguage:    r.OriginalLanguage,
		Overview:            r.Overview,
	}
}

// JSON arrays rather than null for empty sets.
func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
