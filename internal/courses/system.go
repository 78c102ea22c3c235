package courses

import (
	"context"

	"github.com/JaimeStill/courselens/pkg/pagination"
)

// System defines the public contract for course domain operations.
type System interface {
	Handler(maxBodySize int64) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Course], error)

	// Find returns a course with its reviews.
	Find(ctx context.Context, id string) (*Course, error)

	// Import upserts one provider's listings. Each course and its new
	// reviews are written atomically; existing reviews are never modified.
	Import(ctx context.Context, cmd ImportCommand) (*ImportResult, error)
}
