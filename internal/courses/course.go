// Package courses implements the course listing domain: provider-qualified
// course documents with their reviews, ingestion upserts, and detail lookup.
package courses

import (
	"encoding/json"
	"time"
)

// Course is a provider-qualified listing with its derived metrics.
type Course struct {
	ID                string    `json:"course_id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Provider          string    `json:"provider"`
	URL               string    `json:"url"`
	Categories        []string  `json:"categories"`
	NumReviews        int       `json:"num_reviews"`
	AvgSentiment      float64   `json:"avg_sentiment"`
	SmoothedSentiment float64   `json:"smoothed_sentiment"`
	LastUpdated       time.Time `json:"last_updated"`
	Reviews           []Review  `json:"reviews,omitempty"`
}

// Review is a single piece of user feedback on a course.
// SentimentScore is absent until the enrichment pass scores it.
type Review struct {
	ID             string    `json:"review_id"`
	Text           string    `json:"text"`
	Rating         NullFloat `json:"rating"`
	SentimentScore NullFloat `json:"sentiment_score"`
	ScrapedAt      time.Time `json:"scraped_at"`
}

// ImportCommand carries one provider's scraped listings.
type ImportCommand struct {
	Provider string      `json:"provider" validate:"required"`
	Courses  []RawCourse `json:"courses" validate:"required,min=1"`
}

// RawCourse is a provider listing as scraped. Alternate field names used by
// different scrapers are accepted.
type RawCourse struct {
	ID          Ident       `json:"id"`
	Slug        string      `json:"slug"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	URL         string      `json:"url"`
	Link        string      `json:"link"`
	InfoURL     string      `json:"info_url"`
	Reviews     []RawReview `json:"reviews"`
}

// RawReview is a provider review as scraped.
type RawReview struct {
	Text       string    `json:"text"`
	ReviewText string    `json:"review_text"`
	Rating     NullFloat `json:"rating"`
	Stars      NullFloat `json:"stars"`
}

// ImportResult summarizes an import.
type ImportResult struct {
	Courses      int `json:"courses"`
	ReviewsAdded int `json:"reviews_added"`
}

// Ident is an identifier that scrapers emit as either a JSON string or number.
type Ident string

func (i *Ident) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*i = Ident(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*i = Ident(n.String())
		return nil
	}

	*i = ""
	return nil
}

func (i Ident) String() string {
	return string(i)
}
