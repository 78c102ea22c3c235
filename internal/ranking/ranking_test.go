package ranking_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/courselens/internal/index"
	"github.com/JaimeStill/courselens/internal/ranking"
)

var defaults = ranking.Config{Alpha: 0.7, Beta: 0.2, CandidateFactor: 5}

type fakeIndex struct {
	hits      []index.Hit
	err       error
	lastLimit int
	lastTerms string
}

func (f *fakeIndex) EnsureIndex(context.Context) error { return nil }

func (f *fakeIndex) Query(_ context.Context, terms string, _ index.Filter, limit int) ([]index.Hit, error) {
	f.lastTerms = terms
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if limit > 0 && len(f.hits) > limit {
		return f.hits[:limit], nil
	}
	return f.hits, nil
}

type fakeStore struct {
	courses map[string]ranking.Summary
}

func (f *fakeStore) Summaries(_ context.Context, ids []string) (map[string]ranking.Summary, error) {
	out := map[string]ranking.Summary{}
	for _, id := range ids {
		if s, ok := f.courses[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

func (f *fakeStore) ByCategory(_ context.Context, name string) ([]ranking.Summary, error) {
	var out []ranking.Summary
	for _, s := range f.courses {
		for _, c := range s.Categories {
			if c == name {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

type miss struct {
	user    *uuid.UUID
	keyword string
}

type fakeDemand struct {
	misses []miss
	err    error
}

func (f *fakeDemand) RecordMiss(_ context.Context, user *uuid.UUID, keyword string) error {
	f.misses = append(f.misses, miss{user, keyword})
	return f.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

// exampleFixture: raw scores [10, 5, 2], sent_norm [0.9, 0.6, 0.5],
// num_reviews [100, 1, 0].
func exampleFixture() (*fakeIndex, *fakeStore) {
	idx := &fakeIndex{hits: []index.Hit{
		{CourseID: "c1", Score: 10},
		{CourseID: "c2", Score: 5},
		{CourseID: "c3", Score: 2},
	}}
	store := &fakeStore{courses: map[string]ranking.Summary{
		"c1": {CourseID: "c1", NumReviews: 100, SmoothedSentiment: 0.8, Categories: []string{"Python"}},
		"c2": {CourseID: "c2", NumReviews: 1, SmoothedSentiment: 0.2, Categories: []string{"Python"}},
		"c3": {CourseID: "c3", NumReviews: 0, SmoothedSentiment: 0},
	}}
	return idx, store
}

func TestSearchRankingExample(t *testing.T) {
	idx, store := exampleFixture()
	engine := ranking.NewEngine(idx, store, &fakeDemand{}, defaults, discard())

	results, err := engine.Search(context.Background(), ranking.Request{Query: "python"})
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len = %d, want 3", len(results))
	}

	want := []struct {
		id    string
		text  float64
		sent  float64
		score float64
	}{
		{"c1", 1.0, 0.9, 0.7*1.0 + 0.3*0.9 + 0.2*math.Log(101)},
		{"c2", 0.5, 0.6, 0.7*0.5 + 0.3*0.6 + 0.2*math.Log(2)},
		{"c3", 0.2, 0.5, 0.7*0.2 + 0.3*0.5},
	}

	for i, w := range want {
		r := results[i]
		if r.CourseID != w.id {
			t.Errorf("results[%d] = %s, want %s", i, r.CourseID, w.id)
			continue
		}
		if !near(r.TextNorm, w.text) || !near(r.SentNorm, w.sent) || !near(r.Ranking, w.score) {
			t.Errorf("%s: text=%v sent=%v ranking=%v, want %v %v %v", w.id, r.TextNorm, r.SentNorm, r.Ranking, w.text, w.sent, w.score)
		}
	}

	if idx.lastLimit != ranking.DefaultTopK*5 {
		t.Errorf("candidate limit = %d, want %d", idx.lastLimit, ranking.DefaultTopK*5)
	}
}

func TestSearchTopK(t *testing.T) {
	idx, store := exampleFixture()
	engine := ranking.NewEngine(idx, store, &fakeDemand{}, defaults, discard())

	results, err := engine.Search(context.Background(), ranking.Request{Query: "python", TopK: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || results[0].CourseID != "c1" || results[1].CourseID != "c2" {
		t.Errorf("results = %+v", results)
	}
	if idx.lastLimit != 10 {
		t.Errorf("candidate limit = %d, want 10", idx.lastLimit)
	}
}

func TestSearchValidation(t *testing.T) {
	idx, store := exampleFixture()
	engine := ranking.NewEngine(idx, store, &fakeDemand{}, defaults, discard())

	tests := []struct {
		name string
		req  ranking.Request
		want error
	}{
		{"blank query", ranking.Request{Query: "   "}, ranking.ErrInvalidQuery},
		{"top_k too large", ranking.Request{Query: "go", TopK: 101}, ranking.ErrInvalidTopK},
		{"negative top_k", ranking.Request{Query: "go", TopK: -1}, ranking.ErrInvalidTopK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := engine.Search(context.Background(), tt.req); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSearchMissRecordsDemand(t *testing.T) {
	user := uuid.New()
	demand := &fakeDemand{}
	engine := ranking.NewEngine(&fakeIndex{}, &fakeStore{}, demand, defaults, discard())

	results, err := engine.Search(context.Background(), ranking.Request{Query: " rust ", UserID: &user})
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("results = %v, want empty non-nil", results)
	}
	if len(demand.misses) != 1 || demand.misses[0].keyword != "rust" || *demand.misses[0].user != user {
		t.Errorf("misses = %+v", demand.misses)
	}

	t.Run("recording failure is not an error", func(t *testing.T) {
		demand.err = errors.New("db down")
		results, err := engine.Search(context.Background(), ranking.Request{Query: "rust"})
		if err != nil || len(results) != 0 {
			t.Errorf("results = %v, err = %v", results, err)
		}
	})
}

func TestSearchIndexError(t *testing.T) {
	demand := &fakeDemand{}
	engine := ranking.NewEngine(&fakeIndex{err: errors.New("down")}, &fakeStore{}, demand, defaults, discard())

	if _, err := engine.Search(context.Background(), ranking.Request{Query: "go"}); err == nil {
		t.Error("expected error")
	}
	if len(demand.misses) != 0 {
		t.Error("index failure must not be recorded as demand")
	}
}

func TestSearchTieBreak(t *testing.T) {
	idx := &fakeIndex{hits: []index.Hit{
		{CourseID: "zeta", Score: 3},
		{CourseID: "alpha", Score: 3},
	}}
	store := &fakeStore{courses: map[string]ranking.Summary{
		"zeta":  {CourseID: "zeta"},
		"alpha": {CourseID: "alpha"},
	}}
	engine := ranking.NewEngine(idx, store, nil, defaults, discard())

	results, err := engine.Search(context.Background(), ranking.Request{Query: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if results[0].CourseID != "alpha" || results[1].CourseID != "zeta" {
		t.Errorf("order = %s, %s", results[0].CourseID, results[1].CourseID)
	}
}

func TestCoursesByCategory(t *testing.T) {
	_, store := exampleFixture()
	engine := ranking.NewEngine(&fakeIndex{}, store, nil, defaults, discard())

	results, err := engine.CoursesByCategory(context.Background(), "Python")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || results[0].CourseID != "c1" {
		t.Fatalf("results = %+v", results)
	}
	for _, r := range results {
		if r.TextNorm != 0 {
			t.Errorf("%s: TextNorm = %v, want 0", r.CourseID, r.TextNorm)
		}
		want := 0.3*r.SentNorm + 0.2*r.PopWeight
		if !near(r.Ranking, want) {
			t.Errorf("%s: Ranking = %v, want %v", r.CourseID, r.Ranking, want)
		}
	}

	empty, err := engine.CoursesByCategory(context.Background(), "Unknown")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("unknown category = %v, %v", empty, err)
	}
}

func TestRounded(t *testing.T) {
	r := ranking.RankedCourse{Ranking: 1.8930240123, TextNorm: 0.33333333, SentNorm: 0.66666, PopWeight: 4.6151205}
	got := r.Rounded()

	if got.Ranking != 1.893 || got.TextNorm != 0.3333 || got.SentNorm != 0.6667 || got.PopWeight != 4.6151 {
		t.Errorf("Rounded = %+v", got)
	}
	if r.Ranking != 1.8930240123 {
		t.Error("Rounded mutated the receiver")
	}
}

func TestComposite(t *testing.T) {
	tests := []struct {
		name string
		cfg  ranking.Config
		text float64
		sent float64
		pop  float64
		want float64
	}{
		{"text only", ranking.Config{Alpha: 1}, 0.5, 0.9, 3, 0.5},
		{"sentiment only", ranking.Config{Alpha: 0}, 0.5, 0.9, 3, 0.9},
		{"beta exceeds one", ranking.Config{Alpha: 0.7, Beta: 0.2}, 1, 1, 5, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ranking.Composite(tt.cfg, tt.text, tt.sent, tt.pop); !near(got, tt.want) {
				t.Errorf("Composite = %v, want %v", got, tt.want)
			}
		})
	}
}
