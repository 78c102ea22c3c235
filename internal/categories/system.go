package categories

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/courselens/pkg/pagination"
)

// System defines the category administration contract.
type System interface {
	Handler(maxBodySize int64) *Handler

	List(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[Category], error)

	// All returns every category ordered by name.
	All(ctx context.Context) ([]Category, error)

	Find(ctx context.Context, id uuid.UUID) (*Category, error)
	FindByName(ctx context.Context, name string) (*Category, error)
	Create(ctx context.Context, cmd CreateCommand) (*Category, error)

	// Update replaces a category. A rename removes the old name from every
	// course in the same transaction.
	Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Category, error)

	// Delete removes a category and its name from every course atomically.
	Delete(ctx context.Context, id uuid.UUID) error
}
