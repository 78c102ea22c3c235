package categories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/courselens/internal/index"
	"github.com/JaimeStill/courselens/internal/metrics"
)

// Outcome is the result of tagging one category.
type Outcome string

const (
	OutcomeTagged  Outcome = "tagged"
	OutcomeCleared Outcome = "cleared"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Source supplies categories to the tagger.
type Source interface {
	All(ctx context.Context) ([]Category, error)
	Find(ctx context.Context, id uuid.UUID) (*Category, error)
}

// TaggerConfig holds tagging parameters.
type TaggerConfig struct {
	// Threshold is the fraction of the best hit's score a course must reach
	// to be tagged.
	Threshold float64
	Workers   int
}

// Report summarizes a RetagAll pass.
type Report struct {
	Categories int `json:"categories"`
	Tagged     int `json:"tagged"`
	Cleared    int `json:"cleared"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
	Changed    int `json:"changed"`
}

func (r *Report) add(o Outcome, changed int) {
	r.Changed += changed
	switch o {
	case OutcomeTagged:
		r.Tagged++
	case OutcomeCleared:
		r.Cleared++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeFailed:
		r.Failed++
	}
}

// Tagger assigns category names to courses whose relevance to the
// category's keywords is within the threshold of the best match.
type Tagger struct {
	source Source
	store  TagStore
	index  index.Index
	cfg    TaggerConfig
	logger *slog.Logger
}

func NewTagger(
	source Source,
	store TagStore,
	idx index.Index,
	cfg TaggerConfig,
	logger *slog.Logger,
) *Tagger {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Tagger{
		source: source,
		store:  store,
		index:  idx,
		cfg:    cfg,
		logger: logger.With("system", "tagger"),
	}
}

// RetagAll ensures the index and retags every category. Categories are
// independent and processed concurrently; a failing category is logged
// and counted without affecting the others.
func (t *Tagger) RetagAll(ctx context.Context) (Report, error) {
	if err := t.index.EnsureIndex(ctx); err != nil {
		t.logger.Warn("ensure index failed, tagging without it", "error", err)
	}

	cats, err := t.source.All(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load categories: %w", err)
	}

	var (
		mu     sync.Mutex
		report = Report{Categories: len(cats)}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.cfg.Workers)

	for _, c := range cats {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcome, changed := t.Tag(gctx, c)

			mu.Lock()
			report.add(outcome, changed)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, err
	}

	t.logger.Info(
		"categories retagged",
		"categories", report.Categories,
		"tagged", report.Tagged,
		"cleared", report.Cleared,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"changed", report.Changed,
	)
	return report, nil
}

// OnCategoryChanged retags a single category after it was created or
// updated. A category that no longer exists is ignored.
func (t *Tagger) OnCategoryChanged(ctx context.Context, id uuid.UUID) error {
	c, err := t.source.Find(ctx, id)
	if errors.Is(err, ErrNotFound) {
		t.logger.Debug("changed category no longer exists", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load category %s: %w", id, err)
	}

	outcome, changed := t.Tag(ctx, *c)
	if outcome == OutcomeFailed {
		return fmt.Errorf("tag category %q failed", c.Name)
	}
	t.logger.Info("category retagged", "id", id, "name", c.Name, "outcome", outcome, "changed", changed)
	return nil
}

// Tag applies the tagging rule to one category and reports the outcome and
// the number of courses whose tags changed. Failures leave existing tags
// untouched.
func (t *Tagger) Tag(ctx context.Context, c Category) (Outcome, int) {
	outcome, changed := t.tag(ctx, c)
	metrics.RecordTagging(string(outcome))
	return outcome, changed
}

func (t *Tagger) tag(ctx context.Context, c Category) (Outcome, int) {
	if strings.TrimSpace(c.Name) == "" {
		t.logger.Warn("skipping malformed category", "id", c.ID)
		return OutcomeSkipped, 0
	}

	keywords := CleanKeywords(c.Keywords)
	if len(keywords) == 0 {
		changed, err := t.store.ReplaceTag(ctx, c.Name, nil)
		if errors.Is(err, ErrNotFound) {
			return t.vanished(c, changed)
		}
		if err != nil {
			t.logger.Error("clear category failed", "category", c.Name, "error", err)
			return OutcomeFailed, 0
		}
		return OutcomeCleared, changed
	}

	hits, err := t.index.Query(ctx, strings.Join(keywords, " "), index.Filter{}, 0)
	if err != nil {
		t.logger.Error("index query failed, skipping category", "category", c.Name, "error", err)
		return OutcomeFailed, 0
	}

	selected := SelectAboveThreshold(hits, t.cfg.Threshold)

	changed, err := t.store.ReplaceTag(ctx, c.Name, selected)
	if errors.Is(err, ErrNotFound) {
		return t.vanished(c, changed)
	}
	if err != nil {
		t.logger.Error("apply tags failed", "category", c.Name, "error", err)
		return OutcomeFailed, 0
	}

	if len(selected) == 0 {
		return OutcomeCleared, changed
	}
	return OutcomeTagged, changed
}

// vanished handles a category deleted or renamed while it was being tagged.
// The store has already removed its name.
func (t *Tagger) vanished(c Category, changed int) (Outcome, int) {
	t.logger.Info("category changed during tagging, tags removed", "category", c.Name, "changed", changed)
	return OutcomeSkipped, changed
}

// SelectAboveThreshold returns the ids of the leading hits scoring at least
// threshold times the best score. Hits must be ordered by score descending.
func SelectAboveThreshold(hits []index.Hit, threshold float64) []string {
	if len(hits) == 0 {
		return []string{}
	}

	cutoff := threshold * hits[0].Score
	selected := make([]string, 0, len(hits))
	for _, h := range hits {
		if h.Score < cutoff {
			break
		}
		selected = append(selected, h.CourseID)
	}
	return selected
}
