package categories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/JaimeStill/courselens/pkg/repository"
)

// TagStore writes category tags onto courses.
type TagStore interface {
	// ReplaceTag makes name appear on exactly the given courses. The clear
	// and add steps commit together. When no category is named name at
	// write time, the tag is only removed and ErrNotFound is returned with
	// the number of courses changed.
	ReplaceTag(ctx context.Context, name string, courseIDs []string) (int, error)
}

type pgTagStore struct {
	db *sql.DB
}

// NewTagStore returns the PostgreSQL TagStore.
func NewTagStore(db *sql.DB) TagStore {
	return &pgTagStore{db: db}
}

type replaceResult struct {
	changed int
	missing bool
}

func (s *pgTagStore) ReplaceTag(ctx context.Context, name string, courseIDs []string) (int, error) {
	if courseIDs == nil {
		courseIDs = []string{}
	}

	res, err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) (replaceResult, error) {
		// FOR SHARE blocks a concurrent delete or rename until commit, and
		// sees it if it committed first.
		var one int
		err := tx.QueryRowContext(
			ctx,
			"SELECT 1 FROM categories WHERE name = $1 FOR SHARE",
			name,
		).Scan(&one)

		missing := errors.Is(err, sql.ErrNoRows)
		if err != nil && !missing {
			return replaceResult{}, fmt.Errorf("lock category: %w", err)
		}

		ids := courseIDs
		if missing {
			ids = []string{}
		}

		removed, err := repository.ExecCount(
			ctx, tx,
			`UPDATE courses SET categories = array_remove(categories, $1)
			WHERE $1 = ANY(categories) AND NOT (id = ANY($2))`,
			name, ids,
		)
		if err != nil {
			return replaceResult{}, fmt.Errorf("clear tag: %w", err)
		}

		if missing {
			return replaceResult{changed: int(removed), missing: true}, nil
		}

		added, err := repository.ExecCount(
			ctx, tx,
			`UPDATE courses SET categories = array_append(categories, $1)
			WHERE id = ANY($2) AND NOT ($1 = ANY(categories))`,
			name, ids,
		)
		if err != nil {
			return replaceResult{}, fmt.Errorf("add tag: %w", err)
		}

		return replaceResult{changed: int(removed + added)}, nil
	})
	if err != nil {
		return 0, err
	}
	if res.missing {
		return res.changed, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return res.changed, nil
}
