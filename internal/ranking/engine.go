package ranking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/courselens/internal/index"
	"github.com/JaimeStill/courselens/internal/metrics"
)

const (
	DefaultTopK = 10
	MaxTopK     = 100
)

var (
	ErrInvalidQuery = errors.New("query is required")
	ErrInvalidTopK  = fmt.Errorf("top_k must be between 1 and %d", MaxTopK)
)

// Request is a free-text search.
type Request struct {
	Query    string
	Category *string
	Provider *string

	// TopK is the number of results; zero selects DefaultTopK.
	TopK int

	// UserID identifies the searcher for demand tracking. Nil for
	// anonymous searches.
	UserID *uuid.UUID
}

// DemandRecorder records a search that found nothing.
type DemandRecorder interface {
	RecordMiss(ctx context.Context, userID *uuid.UUID, keyword string) error
}

// Engine ranks search and category-browse results.
type Engine struct {
	index  index.Index
	store  Store
	demand DemandRecorder
	cfg    Config
	logger *slog.Logger
}

func NewEngine(
	idx index.Index,
	store Store,
	demand DemandRecorder,
	cfg Config,
	logger *slog.Logger,
) *Engine {
	if cfg.CandidateFactor < 1 {
		cfg.CandidateFactor = 1
	}
	return &Engine{
		index:  idx,
		store:  store,
		demand: demand,
		cfg:    cfg,
		logger: logger.With("system", "ranking"),
	}
}

// Search returns up to TopK courses ranked by composite score. A search
// with no matches records the demand and returns an empty result.
func (e *Engine) Search(ctx context.Context, req Request) ([]RankedCourse, error) {
	start := time.Now()
	results, err := e.search(ctx, req)
	metrics.RecordSearch(len(results), time.Since(start), err)
	return results, err
}

func (e *Engine) search(ctx context.Context, req Request) ([]RankedCourse, error) {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return nil, ErrInvalidQuery
	}
	if req.TopK == 0 {
		req.TopK = DefaultTopK
	}
	if req.TopK < 1 || req.TopK > MaxTopK {
		return nil, ErrInvalidTopK
	}

	filter := index.Filter{Category: req.Category, Provider: req.Provider}
	hits, err := e.index.Query(ctx, req.Query, filter, req.TopK*e.cfg.CandidateFactor)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	if len(hits) == 0 {
		e.recordMiss(ctx, req)
		return []RankedCourse{}, nil
	}

	ids := make([]string, len(hits))
	maxScore := 0.0
	for i, h := range hits {
		ids[i] = h.CourseID
		maxScore = max(maxScore, h.Score)
	}
	if maxScore <= 0 {
		maxScore = 1
	}

	summaries, err := e.store.Summaries(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}

	results := make([]RankedCourse, 0, len(hits))
	for _, h := range hits {
		s, ok := summaries[h.CourseID]
		if !ok {
			continue
		}
		results = append(results, Score(e.cfg, s, h.Score/maxScore))
	}

	Sort(results)
	if len(results) > req.TopK {
		results = results[:req.TopK]
	}
	return results, nil
}

func (e *Engine) recordMiss(ctx context.Context, req Request) {
	if e.demand == nil {
		return
	}
	if err := e.demand.RecordMiss(ctx, req.UserID, req.Query); err != nil {
		e.logger.Error("record search demand failed", "keyword", req.Query, "error", err)
	}
}

// CoursesByCategory ranks every course tagged with name. There is no text
// signal, so only sentiment and popularity contribute.
func (e *Engine) CoursesByCategory(ctx context.Context, name string) ([]RankedCourse, error) {
	summaries, err := e.store.ByCategory(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load category courses: %w", err)
	}

	results := make([]RankedCourse, 0, len(summaries))
	for _, s := range summaries {
		results = append(results, Score(e.cfg, s, 0))
	}

	Sort(results)
	return results, nil
}
