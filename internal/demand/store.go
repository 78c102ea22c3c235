package demand

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/courselens/internal/delivery"
	"github.com/JaimeStill/courselens/pkg/repository"
)

// Cursor positions a scan of unsent notifications.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// Store is the persistence contract for demand tracking.
type Store interface {
	// Enqueue adds a keyword to the scrape queue. Reports whether it was new.
	Enqueue(ctx context.Context, keyword string) (bool, error)
	Keywords(ctx context.Context, pendingOnly bool) ([]QueueEntry, error)
	MarkScraped(ctx context.Context, keyword string) error

	// AddRequest records a pending request unless one already exists for
	// the pair. Reports whether a record was created.
	AddRequest(ctx context.Context, userID uuid.UUID, keyword string) (bool, error)
	PendingRequests(ctx context.Context) ([]SearchRequest, error)

	// Notify flips a pending request to notified and creates its
	// notification in one transaction. Reports false when the request was
	// already notified.
	Notify(ctx context.Context, requestID uuid.UUID, message string) (bool, error)

	// UnsentNotifications returns up to limit unsent notifications with
	// recipient data, ordered after the cursor.
	UnsentNotifications(ctx context.Context, after Cursor, limit int) ([]delivery.Message, error)

	// MarkSent marks a notification sent. Reports false when it already was.
	MarkSent(ctx context.Context, id uuid.UUID) (bool, error)

	Notifications(ctx context.Context, userID uuid.UUID) ([]Notification, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
}

type pgStore struct {
	db *sql.DB
}

// NewStore returns the PostgreSQL demand store.
func NewStore(db *sql.DB) Store {
	return &pgStore{db: db}
}

func (s *pgStore) Enqueue(ctx context.Context, keyword string) (bool, error) {
	n, err := repository.ExecCount(
		ctx, s.db,
		"INSERT INTO keyword_queue (keyword) VALUES ($1) ON CONFLICT (keyword) DO NOTHING",
		keyword,
	)
	if err != nil {
		return false, fmt.Errorf("enqueue keyword: %w", err)
	}
	return n == 1, nil
}

func (s *pgStore) Keywords(ctx context.Context, pendingOnly bool) ([]QueueEntry, error) {
	q := "SELECT keyword, scraped, created_at, scraped_at FROM keyword_queue"
	if pendingOnly {
		q += " WHERE NOT scraped"
	}
	q += " ORDER BY created_at, keyword"

	return repository.QueryMany(ctx, s.db, q, nil, func(sc repository.Scanner) (QueueEntry, error) {
		var e QueueEntry
		var scrapedAt sql.NullTime
		err := sc.Scan(&e.Keyword, &e.Scraped, &e.CreatedAt, &scrapedAt)
		if scrapedAt.Valid {
			e.ScrapedAt = &scrapedAt.Time
		}
		return e, err
	})
}

func (s *pgStore) MarkScraped(ctx context.Context, keyword string) error {
	err := repository.ExecExpectOne(
		ctx, s.db,
		"UPDATE keyword_queue SET scraped = true, scraped_at = NOW() WHERE keyword = $1",
		keyword,
	)
	return repository.MapError(err, ErrNotFound, ErrNotFound)
}

func (s *pgStore) AddRequest(ctx context.Context, userID uuid.UUID, keyword string) (bool, error) {
	n, err := repository.ExecCount(
		ctx, s.db,
		`INSERT INTO search_requests (user_id, keyword)
		VALUES ($1, $2)
		ON CONFLICT (user_id, keyword) WHERE NOT notified DO NOTHING`,
		userID, keyword,
	)
	if repository.IsForeignKeyViolation(err) {
		return false, ErrUnknownUser
	}
	if err != nil {
		return false, fmt.Errorf("add search request: %w", err)
	}
	return n == 1, nil
}

func (s *pgStore) PendingRequests(ctx context.Context) ([]SearchRequest, error) {
	return repository.QueryMany(
		ctx, s.db,
		`SELECT id, user_id, keyword, requested_at, notified
		FROM search_requests
		WHERE NOT notified
		ORDER BY requested_at, id`,
		nil,
		func(sc repository.Scanner) (SearchRequest, error) {
			var r SearchRequest
			err := sc.Scan(&r.ID, &r.UserID, &r.Keyword, &r.RequestedAt, &r.Notified)
			return r, err
		},
	)
}

func (s *pgStore) Notify(ctx context.Context, requestID uuid.UUID, message string) (bool, error) {
	return repository.WithTx(ctx, s.db, func(tx *sql.Tx) (bool, error) {
		var userID uuid.UUID
		err := tx.QueryRowContext(
			ctx,
			`UPDATE search_requests
			SET notified = true, notified_at = NOW()
			WHERE id = $1 AND NOT notified
			RETURNING user_id`,
			requestID,
		).Scan(&userID)
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("flip request: %w", err)
		}

		if _, err := tx.ExecContext(
			ctx,
			"INSERT INTO notifications (user_id, message) VALUES ($1, $2)",
			userID, message,
		); err != nil {
			return false, fmt.Errorf("insert notification: %w", err)
		}
		return true, nil
	})
}

func (s *pgStore) UnsentNotifications(ctx context.Context, after Cursor, limit int) ([]delivery.Message, error) {
	return repository.QueryMany(
		ctx, s.db,
		`SELECT n.id, n.user_id, u.username, u.email, n.message, n.created_at
		FROM notifications n
		JOIN users u ON u.id = n.user_id
		WHERE NOT n.sent AND (n.created_at, n.id) > ($1, $2)
		ORDER BY n.created_at, n.id
		LIMIT $3`,
		[]any{after.CreatedAt, after.ID, limit},
		func(sc repository.Scanner) (delivery.Message, error) {
			var m delivery.Message
			err := sc.Scan(&m.NotificationID, &m.UserID, &m.Username, &m.Email, &m.Text, &m.CreatedAt)
			return m, err
		},
	)
}

func (s *pgStore) MarkSent(ctx context.Context, id uuid.UUID) (bool, error) {
	n, err := repository.ExecCount(
		ctx, s.db,
		"UPDATE notifications SET sent = true, sent_at = NOW() WHERE id = $1 AND NOT sent",
		id,
	)
	if err != nil {
		return false, fmt.Errorf("mark sent: %w", err)
	}
	return n == 1, nil
}

func (s *pgStore) Notifications(ctx context.Context, userID uuid.UUID) ([]Notification, error) {
	return repository.QueryMany(
		ctx, s.db,
		`SELECT id, user_id, message, created_at, read, sent
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id`,
		[]any{userID},
		func(sc repository.Scanner) (Notification, error) {
			var n Notification
			err := sc.Scan(&n.ID, &n.UserID, &n.Message, &n.CreatedAt, &n.Read, &n.Sent)
			return n, err
		},
	)
}

func (s *pgStore) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	err := repository.ExecExpectOne(
		ctx, s.db,
		"UPDATE notifications SET read = true WHERE id = $1 AND user_id = $2",
		id, userID,
	)
	return repository.MapError(err, ErrNotFound, ErrNotFound)
}
