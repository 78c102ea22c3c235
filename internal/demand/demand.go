// Package demand tracks searches that found nothing, queues their keywords
// for scraping, and notifies each waiting user once courses appear.
package demand

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// QueueEntry is a keyword awaiting or finished scraping.
type QueueEntry struct {
	Keyword   string     `json:"keyword"`
	Scraped   bool       `json:"scraped"`
	CreatedAt time.Time  `json:"created_at"`
	ScrapedAt *time.Time `json:"scraped_at"`
}

// SearchRequest records that a user searched for a keyword with no results.
type SearchRequest struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Keyword     string    `json:"keyword"`
	RequestedAt time.Time `json:"requested_at"`
	Notified    bool      `json:"notified"`
}

// Notification is a message to a user.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	Read      bool      `json:"read"`
	Sent      bool      `json:"sent"`
}

// NormalizeKeyword trims, collapses inner whitespace, and lower-cases.
func NormalizeKeyword(keyword string) string {
	return strings.ToLower(strings.Join(strings.Fields(keyword), " "))
}

// MessageFor is the notification text for a satisfied keyword.
func MessageFor(keyword string) string {
	return fmt.Sprintf("New courses are now available for '%s'.", keyword)
}
