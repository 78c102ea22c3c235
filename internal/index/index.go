// Package index maintains the full-text relevance index over courses and
// answers scored lookups against it.
//
// The index is a GIN index over courses.search_vector, which database
// triggers keep equal to the English text vector of a course's title,
// description, and review text.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Name is the reserved name of the canonical course text index.
const Name = "course_text_index"

// Hit is a course matched by a query with its relevance score.
type Hit struct {
	CourseID string  `json:"course_id"`
	Score    float64 `json:"score"`
}

// Filter narrows a query. Nil fields do not filter.
type Filter struct {
	Category *string
	Provider *string
}

// Index is the contract consumed by the tagger, ranking engine and demand
// tracker.
type Index interface {
	// EnsureIndex makes the canonical text index exist exactly once.
	EnsureIndex(ctx context.Context) error

	// Query returns courses matching any of the whitespace-separated terms,
	// ordered by score descending then course id. A limit <= 0 is unbounded.
	Query(ctx context.Context, terms string, filter Filter, limit int) ([]Hit, error)
}

// Postgres is the PostgreSQL implementation of Index.
type Postgres struct {
	db     *sql.DB
	logger *slog.Logger
}

func New(db *sql.DB, logger *slog.Logger) *Postgres {
	return &Postgres{
		db:     db,
		logger: logger.With("system", "index"),
	}
}

func (p *Postgres) Query(ctx context.Context, terms string, filter Filter, limit int) ([]Hit, error) {
	tsq := Terms(terms)
	if tsq == "" {
		return []Hit{}, nil
	}

	q, args := buildQuery(tsq, filter, limit)

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	defer rows.Close()

	hits := []Hit{}
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.CourseID, &h.Score); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

func (p *Postgres) EnsureIndex(ctx context.Context) error {
	existing, err := p.textIndexes(ctx)
	if err != nil {
		return err
	}

	drop, create := reconcile(existing)

	for _, name := range drop {
		stmt := "DROP INDEX CONCURRENTLY IF EXISTS " + pgx.Identifier{name}.Sanitize()
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("drop index %s: %w", name, err)
		}
		p.logger.Info("dropped text index", "index", name)
	}

	if !create {
		return nil
	}

	stmt := fmt.Sprintf(
		"CREATE INDEX CONCURRENTLY IF NOT EXISTS %s ON courses USING GIN (search_vector)",
		pgx.Identifier{Name}.Sanitize(),
	)
	if _, err := p.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create index %s: %w", Name, err)
	}
	p.logger.Info("text index ready", "index", Name)
	return nil
}

type existingIndex struct {
	name       string
	valid      bool
	definition string
}

func (p *Postgres) textIndexes(ctx context.Context) ([]existingIndex, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT i.relname, ix.indisvalid, pg_get_indexdef(ix.indexrelid)
		FROM pg_index ix
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_am am ON am.oid = i.relam
		WHERE t.relname = 'courses'
			AND n.nspname = current_schema()
			AND am.amname IN ('gin', 'gist')`)
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}
	defer rows.Close()

	var out []existingIndex
	for rows.Next() {
		var ix existingIndex
		if err := rows.Scan(&ix.name, &ix.valid, &ix.definition); err != nil {
			return nil, fmt.Errorf("scan index: %w", err)
		}
		if isTextIndex(ix.definition) {
			out = append(out, ix)
		}
	}
	return out, rows.Err()
}

func isTextIndex(definition string) bool {
	d := strings.ToLower(definition)
	return strings.Contains(d, "search_vector") || strings.Contains(d, "to_tsvector")
}

// reconcile decides which text indexes to drop and whether the canonical
// index must be (re)built. Conflicting names are dropped; an invalid
// canonical index left by a failed concurrent build is dropped and rebuilt.
func reconcile(existing []existingIndex) (drop []string, create bool) {
	create = true
	for _, ix := range existing {
		switch {
		case ix.name != Name:
			drop = append(drop, ix.name)
		case !ix.valid:
			drop = append(drop, ix.name)
		default:
			create = false
		}
	}
	return drop, create
}

// Terms converts free text into an any-term websearch query string.
// Characters with operator meaning are stripped so user input always
// parses. Returns "" when no usable term remains.
func Terms(text string) string {
	var terms []string
	for _, f := range strings.Fields(text) {
		f = strings.Trim(f, `"-`)
		f = strings.ReplaceAll(f, `"`, "")
		if f == "" || strings.EqualFold(f, "or") {
			continue
		}
		terms = append(terms, f)
	}
	return strings.Join(terms, " or ")
}

func buildQuery(tsq string, filter Filter, limit int) (string, []any) {
	var sb strings.Builder
	args := []any{tsq}

	sb.WriteString(`SELECT c.id, ts_rank(c.search_vector, q) AS score
		FROM courses c, websearch_to_tsquery('english', $1) q
		WHERE c.search_vector @@ q`)

	if filter.Provider != nil && *filter.Provider != "" {
		args = append(args, *filter.Provider)
		fmt.Fprintf(&sb, " AND c.provider = $%d", len(args))
	}
	if filter.Category != nil && *filter.Category != "" {
		args = append(args, *filter.Category)
		fmt.Fprintf(&sb, " AND $%d = ANY(c.categories)", len(args))
	}

	sb.WriteString(" ORDER BY score DESC, c.id")

	if limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", limit)
	}

	return sb.String(), args
}
