package courses

import (
	"strconv"
	"strings"
	"time"
)

// CourseID returns the provider-qualified course identifier.
func CourseID(provider, slug string) string {
	return provider + "-" + slug
}

// ReviewID returns the identifier of the idx-th review of a course.
func ReviewID(provider, slug string, idx int) string {
	return provider + "-" + slug + "-" + strconv.Itoa(idx)
}

// NativeID picks the provider-native identifier of a raw course: its id,
// then its slug, then the lower-cased title with spaces replaced by dashes.
func (r RawCourse) NativeID() string {
	if id := strings.TrimSpace(r.ID.String()); id != "" {
		return id
	}
	if slug := strings.TrimSpace(r.Slug); slug != "" {
		return slug
	}
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(r.Title)), " ", "-")
}

// Unify converts a raw provider listing into a Course with its reviews.
// Categories are left empty; tags are owned by the category tagger.
func Unify(provider string, raw RawCourse, now time.Time) Course {
	slug := raw.NativeID()

	url := raw.URL
	if url == "" {
		url = raw.Link
	}
	if url == "" {
		url = raw.InfoURL
	}

	c := Course{
		ID:          CourseID(provider, slug),
		Title:       strings.TrimSpace(raw.Title),
		Description: strings.TrimSpace(raw.Description),
		Provider:    provider,
		URL:         url,
		Categories:  []string{},
		LastUpdated: now,
		Reviews:     make([]Review, 0, len(raw.Reviews)),
	}

	for idx, rr := range raw.Reviews {
		text := rr.Text
		if text == "" {
			text = rr.ReviewText
		}
		rating := rr.Rating
		if !rating.Valid {
			rating = rr.Stars
		}
		c.Reviews = append(c.Reviews, Review{
			ID:        ReviewID(provider, slug, idx),
			Text:      text,
			Rating:    rating,
			ScrapedAt: now,
		})
	}

	return c
}
