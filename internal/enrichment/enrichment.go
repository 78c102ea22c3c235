// Package enrichment scores review sentiment and aggregates per-course
// sentiment metrics with Bayesian shrinkage toward the corpus mean.
package enrichment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/courselens/internal/metrics"
	"github.com/JaimeStill/courselens/internal/sentiment"
)

const scoreBatchSize = 500

// Config holds aggregation parameters.
type Config struct {
	// Pseudocount is the prior strength C: the number of corpus-mean
	// observations blended into every course's smoothed sentiment.
	Pseudocount float64
}

// IndexEnsurer rebuilds the relevance index after an enrichment pass.
type IndexEnsurer interface {
	EnsureIndex(ctx context.Context) error
}

// ScoreReport summarizes a ScoreNewReviews pass.
type ScoreReport struct {
	Scored int `json:"scored"`
	Failed int `json:"failed"`
}

// AggregateReport summarizes an AggregateCourseMetrics pass.
type AggregateReport struct {
	GlobalMean float64 `json:"global_mean"`
	Courses    int     `json:"courses"`
	Updated    int     `json:"updated"`
	Failed     int     `json:"failed"`
}

// Report summarizes a full enrichment run.
type Report struct {
	Score     ScoreReport     `json:"score"`
	Aggregate AggregateReport `json:"aggregate"`
}

// Aggregator runs the enrichment passes against a Store.
type Aggregator struct {
	store     Store
	extractor sentiment.Extractor
	index     IndexEnsurer
	cfg       Config
	logger    *slog.Logger
}

func New(
	store Store,
	extractor sentiment.Extractor,
	index IndexEnsurer,
	cfg Config,
	logger *slog.Logger,
) *Aggregator {
	return &Aggregator{
		store:     store,
		extractor: extractor,
		index:     index,
		cfg:       cfg,
		logger:    logger.With("system", "enrichment"),
	}
}

// Run scores new reviews, aggregates course metrics, then ensures the
// relevance index.
func (a *Aggregator) Run(ctx context.Context) (Report, error) {
	var report Report

	scored, err := a.ScoreNewReviews(ctx)
	report.Score = scored
	if err != nil {
		return report, err
	}

	agg, err := a.AggregateCourseMetrics(ctx)
	report.Aggregate = agg
	if err != nil {
		return report, err
	}

	if a.index != nil {
		if err := a.index.EnsureIndex(ctx); err != nil {
			return report, fmt.Errorf("ensure index: %w", err)
		}
	}

	return report, nil
}

// ScoreNewReviews assigns a sentiment score to every review that has none.
// Already-scored reviews are never rescored. A failed write is logged and
// retried on the next pass.
func (a *Aggregator) ScoreNewReviews(ctx context.Context) (ScoreReport, error) {
	var report ScoreReport
	var after ReviewKey

	for {
		batch, err := a.store.UnscoredReviews(ctx, after, scoreBatchSize)
		if err != nil {
			return report, fmt.Errorf("load unscored reviews: %w", err)
		}

		for _, r := range batch {
			if err := ctx.Err(); err != nil {
				return report, err
			}

			score := sentiment.Clamp(a.extractor.TextSentiment(r.Text))
			ok, err := a.store.SetSentiment(ctx, r.Key, score)
			if err != nil {
				a.logger.Warn("score review failed", "course_id", r.Key.CourseID, "review_id", r.Key.ID, "error", err)
				report.Failed++
				continue
			}
			if ok {
				report.Scored++
			}
		}

		if len(batch) < scoreBatchSize {
			break
		}
		after = batch[len(batch)-1].Key
	}

	metrics.ReviewsScored.Add(float64(report.Scored))
	a.logger.Info("reviews scored", "scored", report.Scored, "failed", report.Failed)
	return report, nil
}

// AggregateCourseMetrics recomputes the corpus mean and then every
// course's review count, average and smoothed sentiment. Each course is
// written atomically; unchanged courses are not written.
func (a *Aggregator) AggregateCourseMetrics(ctx context.Context) (AggregateReport, error) {
	totals, err := a.store.CourseTotals(ctx)
	if err != nil {
		return AggregateReport{}, fmt.Errorf("load course totals: %w", err)
	}

	gm := GlobalMean(totals)
	report := AggregateReport{GlobalMean: gm, Courses: len(totals)}

	for _, t := range totals {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		m := Compute(t.Count, t.Sum, gm, a.cfg.Pseudocount)
		if m.Equal(t.Current) {
			continue
		}

		if err := a.store.UpdateMetrics(ctx, t.CourseID, m); err != nil {
			a.logger.Warn("update course metrics failed", "course_id", t.CourseID, "error", err)
			report.Failed++
			continue
		}
		report.Updated++
	}

	metrics.CoursesUpdated.Add(float64(report.Updated))
	metrics.GlobalMeanSentiment.Set(gm)
	a.logger.Info(
		"course metrics aggregated",
		"global_mean", gm,
		"courses", report.Courses,
		"updated", report.Updated,
		"failed", report.Failed,
	)
	return report, nil
}
