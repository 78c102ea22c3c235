package courses

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/JaimeStill/courselens/pkg/pagination"
	"github.com/JaimeStill/courselens/pkg/query"
	"github.com/JaimeStill/courselens/pkg/repository"
)

var validate = validator.New()

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
	now        func() time.Time
}

// New creates a course repository implementing the System interface.
func New(
	db *sql.DB,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "courses"),
		pagination: pagination,
		now:        time.Now,
	}
}

func (r *repo) Handler(maxBodySize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxBodySize)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Course], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Title", "Description")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count courses: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanCourse)
	if err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id string) (*Course, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	c, err := repository.QueryOne(ctx, r.db, q, args, scanCourse)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	reviews, err := repository.QueryMany(
		ctx, r.db,
		`SELECT id, text, rating, sentiment_score, scraped_at
		FROM reviews
		WHERE course_id = $1
		ORDER BY scraped_at, id`,
		[]any{id},
		scanReview,
	)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}

	c.Reviews = reviews
	return &c, nil
}

func (r *repo) Import(ctx context.Context, cmd ImportCommand) (*ImportResult, error) {
	if err := validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}

	now := r.now().UTC()
	result := &ImportResult{}

	for _, raw := range cmd.Courses {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if raw.NativeID() == "" {
			r.logger.Warn("skipping course without identifier", "provider", cmd.Provider)
			continue
		}
		course := Unify(cmd.Provider, raw, now)

		added, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (int, error) {
			return upsertCourse(ctx, tx, course)
		})
		if err != nil {
			return result, fmt.Errorf("import %s: %w", course.ID, err)
		}

		result.Courses++
		result.ReviewsAdded += added
	}

	r.logger.Info(
		"courses imported",
		"provider", cmd.Provider,
		"courses", result.Courses,
		"reviews_added", result.ReviewsAdded,
	)
	return result, nil
}

func upsertCourse(ctx context.Context, tx *sql.Tx, c Course) (int, error) {
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO courses (id, title, description, provider, url, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			provider = EXCLUDED.provider,
			url = EXCLUDED.url,
			last_updated = EXCLUDED.last_updated`,
		c.ID, c.Title, c.Description, c.Provider, c.URL, c.LastUpdated,
	)
	if err != nil {
		return 0, fmt.Errorf("upsert course: %w", err)
	}

	added := 0
	for _, rv := range c.Reviews {
		n, err := repository.ExecCount(
			ctx, tx,
			`INSERT INTO reviews (course_id, id, text, rating, scraped_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (course_id, id) DO NOTHING`,
			c.ID, rv.ID, rv.Text, rv.Rating, rv.ScrapedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("insert review %s: %w", rv.ID, err)
		}
		added += int(n)
	}
	return added, nil
}
