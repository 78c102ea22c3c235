package courses

import (
	"net/url"

	"github.com/JaimeStill/courselens/pkg/query"
	"github.com/JaimeStill/courselens/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "courses", "c").
	Project("id", "ID").
	Project("title", "Title").
	Project("description", "Description").
	Project("provider", "Provider").
	Project("url", "URL").
	ProjectExpr("to_json(c.categories)", "Categories").
	Project("num_reviews", "NumReviews").
	Project("avg_sentiment", "AvgSentiment").
	Project("smoothed_sentiment", "SmoothedSentiment").
	Project("last_updated", "LastUpdated")

var defaultSort = query.SortField{
	Field: "Title",
}

// Filters contains optional filtering criteria for course listings.
// Provider uses exact matching; Category matches courses tagged with it.
type Filters struct {
	Provider *string `json:"provider,omitempty"`
	Category *string `json:"category,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Provider", f.Provider).
		WhereAny("c.categories", f.Category)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if p := values.Get("provider"); p != "" {
		f.Provider = &p
	}
	if c := values.Get("category"); c != "" {
		f.Category = &c
	}

	return f
}

func scanCourse(s repository.Scanner) (Course, error) {
	var c Course
	err := s.Scan(
		&c.ID,
		&c.Title,
		&c.Description,
		&c.Provider,
		&c.URL,
		repository.JSON(&c.Categories),
		&c.NumReviews,
		&c.AvgSentiment,
		&c.SmoothedSentiment,
		&c.LastUpdated,
	)
	if c.Categories == nil {
		c.Categories = []string{}
	}
	return c, err
}

func scanReview(s repository.Scanner) (Review, error) {
	var r Review
	err := s.Scan(
		&r.ID,
		&r.Text,
		&r.Rating,
		&r.SentimentScore,
		&r.ScrapedAt,
	)
	return r, err
}
