// Package ranking orders search and category-browse results by a composite
// of text relevance, smoothed sentiment, and popularity.
package ranking

import (
	"math"
	"sort"
)

// Config holds the composite score weights.
type Config struct {
	// Alpha splits text relevance (Alpha) against sentiment (1 - Alpha).
	Alpha float64

	// Beta weights the additive popularity bonus ln(1 + num_reviews).
	Beta float64

	// CandidateFactor multiplies TopK to size the candidate set pulled
	// from the relevance index.
	CandidateFactor int
}

// Summary is the course data needed to rank and display a result.
type Summary struct {
	CourseID          string
	Title             string
	Provider          string
	URL               string
	Categories        []string
	NumReviews        int
	SmoothedSentiment float64
}

// RankedCourse is a scored result with its component signals.
type RankedCourse struct {
	CourseID          string   `json:"course_id"`
	Title             string   `json:"title"`
	Provider          string   `json:"provider"`
	URL               string   `json:"url"`
	Categories        []string `json:"categories"`
	Ranking           float64  `json:"ranking"`
	TextNorm          float64  `json:"text_norm"`
	SentNorm          float64  `json:"sent_norm"`
	PopWeight         float64  `json:"pop_weight"`
	NumReviews        int      `json:"num_reviews"`
	SmoothedSentiment float64  `json:"smoothed_sentiment"`
}

// Rounded returns a copy with scores rounded to four decimals for display.
func (r RankedCourse) Rounded() RankedCourse {
	r.Ranking = round4(r.Ranking)
	r.TextNorm = round4(r.TextNorm)
	r.SentNorm = round4(r.SentNorm)
	r.PopWeight = round4(r.PopWeight)
	r.SmoothedSentiment = round4(r.SmoothedSentiment)
	return r
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// SentNorm maps a smoothed sentiment in [-1, 1] onto [0, 1].
func SentNorm(smoothed float64) float64 {
	return (smoothed + 1) / 2
}

// PopWeight is the diminishing-returns popularity signal ln(1 + n).
func PopWeight(numReviews int) float64 {
	return math.Log1p(float64(max(numReviews, 0)))
}

// Composite computes alpha*text + (1-alpha)*sent + beta*pop.
func Composite(cfg Config, textNorm, sentNorm, popWeight float64) float64 {
	return cfg.Alpha*textNorm + (1-cfg.Alpha)*sentNorm + cfg.Beta*popWeight
}

// Score builds a ranked result for a summary with the given text signal.
func Score(cfg Config, s Summary, textNorm float64) RankedCourse {
	sent := SentNorm(s.SmoothedSentiment)
	pop := PopWeight(s.NumReviews)

	categories := s.Categories
	if categories == nil {
		categories = []string{}
	}

	return RankedCourse{
		CourseID:          s.CourseID,
		Title:             s.Title,
		Provider:          s.Provider,
		URL:               s.URL,
		Categories:        categories,
		Ranking:           Composite(cfg, textNorm, sent, pop),
		TextNorm:          textNorm,
		SentNorm:          sent,
		PopWeight:         pop,
		NumReviews:        s.NumReviews,
		SmoothedSentiment: s.SmoothedSentiment,
	}
}

// Sort orders results by ranking descending, then course id ascending.
func Sort(results []RankedCourse) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Ranking != results[j].Ranking {
			return results[i].Ranking > results[j].Ranking
		}
		return results[i].CourseID < results[j].CourseID
	})
}
