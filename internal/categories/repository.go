package categories

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/JaimeStill/courselens/pkg/pagination"
	"github.com/JaimeStill/courselens/pkg/query"
	"github.com/JaimeStill/courselens/pkg/repository"
)

var validate = validator.New()

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a category repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "categories"),
		pagination: pagination,
	}
}

func (r *repo) Handler(maxBodySize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxBodySize)
}

func (r *repo) List(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[Category], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Name", "Description")

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count categories: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanCategory)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) All(ctx context.Context) ([]Category, error) {
	q := fmt.Sprintf("SELECT %s FROM %s ORDER BY cat.name", projection.Columns(), projection.From())
	items, err := repository.QueryMany(ctx, r.db, q, nil, scanCategory)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	return items, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Category, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	c, err := repository.QueryOne(ctx, r.db, q, args, scanCategory)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &c, nil
}

func (r *repo) FindByName(ctx context.Context, name string) (*Category, error) {
	q, args := query.NewBuilder(projection).BuildSingle("Name", name)

	c, err := repository.QueryOne(ctx, r.db, q, args, scanCategory)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &c, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Category, error) {
	if err := validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is blank", ErrInvalid)
	}

	q := `
		INSERT INTO categories(name, description, keywords)
		VALUES ($1, $2, $3)
		` + returning

	args := []any{name, cmd.Description, CleanKeywords(cmd.Keywords)}

	c, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Category, error) {
		return repository.QueryOne(ctx, tx, q, args, scanCategory)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("category created", "id", c.ID, "name", c.Name)
	return &c, nil
}

func (r *repo) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Category, error) {
	if err := validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is blank", ErrInvalid)
	}

	q := `
		UPDATE categories
		SET name = $1, description = $2, keywords = $3, updated_at = NOW()
		WHERE id = $4
		` + returning

	args := []any{name, cmd.Description, CleanKeywords(cmd.Keywords), id}

	var oldName string
	c, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Category, error) {
		if err := tx.QueryRowContext(
			ctx,
			"SELECT name FROM categories WHERE id = $1 FOR UPDATE",
			id,
		).Scan(&oldName); err != nil {
			return Category{}, err
		}

		c, err := repository.QueryOne(ctx, tx, q, args, scanCategory)
		if err != nil {
			return Category{}, err
		}

		if oldName != c.Name {
			if err := removeTag(ctx, tx, oldName); err != nil {
				return Category{}, err
			}
		}
		return c, nil
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if oldName != c.Name {
		r.logger.Info("category renamed", "id", c.ID, "from", oldName, "to", c.Name)
	} else {
		r.logger.Info("category updated", "id", c.ID, "name", c.Name)
	}
	return &c, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	name, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (string, error) {
		var name string
		if err := tx.QueryRowContext(
			ctx,
			"DELETE FROM categories WHERE id = $1 RETURNING name",
			id,
		).Scan(&name); err != nil {
			return "", err
		}
		return name, removeTag(ctx, tx, name)
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("category deleted", "id", id, "name", name)
	return nil
}

func removeTag(ctx context.Context, e repository.Executor, name string) error {
	_, err := e.ExecContext(
		ctx,
		"UPDATE courses SET categories = array_remove(categories, $1) WHERE $1 = ANY(categories)",
		name,
	)
	if err != nil {
		return fmt.Errorf("remove tag %q: %w", name, err)
	}
	return nil
}
