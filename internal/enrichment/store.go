package enrichment

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/JaimeStill/courselens/pkg/repository"
)

// ReviewKey identifies a review within the corpus.
type ReviewKey struct {
	CourseID string
	ID       string
}

// UnscoredReview is a review awaiting a sentiment score.
type UnscoredReview struct {
	Key  ReviewKey
	Text string
}

// CourseTotals are a course's scored-review count and sentiment sum along
// with its currently stored metrics.
type CourseTotals struct {
	CourseID string
	Count    int
	Sum      float64
	Current  Metrics
}

// Store is the persistence contract for enrichment.
type Store interface {
	// UnscoredReviews returns up to limit unscored reviews ordered by key,
	// starting after the given key.
	UnscoredReviews(ctx context.Context, after ReviewKey, limit int) ([]UnscoredReview, error)

	// SetSentiment stores a score only if the review has none. It reports
	// whether a row was written.
	SetSentiment(ctx context.Context, key ReviewKey, score float64) (bool, error)

	CourseTotals(ctx context.Context) ([]CourseTotals, error)

	UpdateMetrics(ctx context.Context, courseID string, m Metrics) error
}

type pgStore struct {
	db *sql.DB
}

// NewStore returns the PostgreSQL enrichment store.
func NewStore(db *sql.DB) Store {
	return &pgStore{db: db}
}

func (s *pgStore) UnscoredReviews(ctx context.Context, after ReviewKey, limit int) ([]UnscoredReview, error) {
	return repository.QueryMany(
		ctx, s.db,
		`SELECT course_id, id, text
		FROM reviews
		WHERE sentiment_score IS NULL
			AND (course_id, id) > ($1, $2)
		ORDER BY course_id, id
		LIMIT $3`,
		[]any{after.CourseID, after.ID, limit},
		func(sc repository.Scanner) (UnscoredReview, error) {
			var r UnscoredReview
			err := sc.Scan(&r.Key.CourseID, &r.Key.ID, &r.Text)
			return r, err
		},
	)
}

func (s *pgStore) SetSentiment(ctx context.Context, key ReviewKey, score float64) (bool, error) {
	n, err := repository.ExecCount(
		ctx, s.db,
		`UPDATE reviews SET sentiment_score = $3
		WHERE course_id = $1 AND id = $2 AND sentiment_score IS NULL`,
		key.CourseID, key.ID, score,
	)
	if err != nil {
		return false, fmt.Errorf("set sentiment: %w", err)
	}
	return n == 1, nil
}

func (s *pgStore) CourseTotals(ctx context.Context) ([]CourseTotals, error) {
	return repository.QueryMany(
		ctx, s.db,
		`SELECT c.id,
			count(r.sentiment_score),
			coalesce(sum(r.sentiment_score), 0),
			c.num_reviews,
			c.avg_sentiment,
			c.smoothed_sentiment
		FROM courses c
		LEFT JOIN reviews r ON r.course_id = c.id
		GROUP BY c.id
		ORDER BY c.id`,
		nil,
		func(sc repository.Scanner) (CourseTotals, error) {
			var t CourseTotals
			err := sc.Scan(
				&t.CourseID,
				&t.Count,
				&t.Sum,
				&t.Current.NumReviews,
				&t.Current.Avg,
				&t.Current.Smoothed,
			)
			return t, err
		},
	)
}

func (s *pgStore) UpdateMetrics(ctx context.Context, courseID string, m Metrics) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE courses
		SET num_reviews = $2, avg_sentiment = $3, smoothed_sentiment = $4,
			last_updated = NOW()
		WHERE id = $1`,
		courseID, m.NumReviews, m.Avg, m.Smoothed,
	)
	if err != nil {
		return fmt.Errorf("update metrics: %w", err)
	}
	return nil
}
