package ranking

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/JaimeStill/courselens/pkg/repository"
)

// Store loads course summaries for ranking.
type Store interface {
	// Summaries returns the summaries of the given courses keyed by id.
	// Unknown ids are absent from the map.
	Summaries(ctx context.Context, ids []string) (map[string]Summary, error)

	ByCategory(ctx context.Context, name string) ([]Summary, error)
}

const summaryColumns = `id, title, provider, url, to_json(categories), num_reviews, smoothed_sentiment`

type pgStore struct {
	db *sql.DB
}

// NewStore returns the PostgreSQL summary store.
func NewStore(db *sql.DB) Store {
	return &pgStore{db: db}
}

func (s *pgStore) Summaries(ctx context.Context, ids []string) (map[string]Summary, error) {
	items, err := repository.QueryMany(
		ctx, s.db,
		"SELECT "+summaryColumns+" FROM courses WHERE id = ANY($1)",
		[]any{ids},
		scanSummary,
	)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}

	out := make(map[string]Summary, len(items))
	for _, it := range items {
		out[it.CourseID] = it
	}
	return out, nil
}

func (s *pgStore) ByCategory(ctx context.Context, name string) ([]Summary, error) {
	items, err := repository.QueryMany(
		ctx, s.db,
		"SELECT "+summaryColumns+" FROM courses WHERE $1 = ANY(categories) ORDER BY id",
		[]any{name},
		scanSummary,
	)
	if err != nil {
		return nil, fmt.Errorf("query category %q: %w", name, err)
	}
	return items, nil
}

func scanSummary(sc repository.Scanner) (Summary, error) {
	var s Summary
	err := sc.Scan(
		&s.CourseID,
		&s.Title,
		&s.Provider,
		&s.URL,
		repository.JSON(&s.Categories),
		&s.NumReviews,
		&s.SmoothedSentiment,
	)
	return s, err
}
