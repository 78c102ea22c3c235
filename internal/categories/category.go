// Package categories implements category administration and relevance
// threshold tagging of courses with category names.
package categories

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category is a named group of courses defined by an ordered keyword list.
type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Keywords    []string  `json:"keywords"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateCommand carries the data needed to create a category.
type CreateCommand struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description" validate:"max=2000"`
	Keywords    []string `json:"keywords" validate:"max=100,dive,max=200"`
}

// UpdateCommand carries the data needed to update a category.
type UpdateCommand struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description" validate:"max=2000"`
	Keywords    []string `json:"keywords" validate:"max=100,dive,max=200"`
}

// CleanKeywords trims every keyword and drops blanks, preserving order.
func CleanKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}
