package categories

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Channel is the notification channel fired when a category is inserted or
// updated. The payload is the category id.
const Channel = "category_changed"

const (
	minBackoff = time.Second
	maxBackoff = 30 * time.Second
)

// ChangeHandler reacts to a changed category.
type ChangeHandler interface {
	OnCategoryChanged(ctx context.Context, id uuid.UUID) error
}

// Listener subscribes to category change notifications on a dedicated
// connection and dispatches each to a ChangeHandler.
type Listener struct {
	dsn     string
	handler ChangeHandler
	logger  *slog.Logger
}

func NewListener(dsn string, handler ChangeHandler, logger *slog.Logger) *Listener {
	return &Listener{
		dsn:     dsn,
		handler: handler,
		logger:  logger.With("system", "category-listener"),
	}
}

// Run listens until ctx is cancelled, reconnecting with exponential backoff
// when the connection drops.
func (l *Listener) Run(ctx context.Context) {
	backoff := minBackoff

	for {
		err := l.listen(ctx, func() { backoff = minBackoff })
		if ctx.Err() != nil {
			l.logger.Info("category listener stopped")
			return
		}

		l.logger.Warn("category listener disconnected", "error", err, "retry_in", backoff)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

func (l *Listener) listen(ctx context.Context, connected func()) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{Channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	connected()
	l.logger.Info("listening for category changes", "channel", Channel)

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		l.dispatch(ctx, n.Payload)
	}
}

func (l *Listener) dispatch(ctx context.Context, payload string) {
	id, err := uuid.Parse(payload)
	if err != nil {
		l.logger.Warn("ignoring malformed category notification", "payload", payload)
		return
	}

	if err := l.handler.OnCategoryChanged(ctx, id); err != nil {
		l.logger.Error("category change handling failed", "id", id, "error", err)
	}
}

// Locker provides cross-process mutual exclusion by name.
type Locker interface {
	TryLock(ctx context.Context, name string) (unlock func(), ok bool, err error)
}

// LockedHandler runs a ChangeHandler while holding a named lock so change
// retags never overlap a full retag on any replica. It waits for the lock
// instead of dropping the change.
type LockedHandler struct {
	handler ChangeHandler
	locker  Locker
	name    string
	retry   time.Duration
	logger  *slog.Logger
}

func NewLockedHandler(handler ChangeHandler, locker Locker, name string, logger *slog.Logger) *LockedHandler {
	return &LockedHandler{
		handler: handler,
		locker:  locker,
		name:    name,
		retry:   500 * time.Millisecond,
		logger:  logger.With("system", "category-listener"),
	}
}

func (h *LockedHandler) OnCategoryChanged(ctx context.Context, id uuid.UUID) error {
	for {
		unlock, ok, err := h.locker.TryLock(ctx, h.name)
		if err != nil {
			return fmt.Errorf("acquire %s lock: %w", h.name, err)
		}
		if ok {
			defer unlock()
			return h.handler.OnCategoryChanged(ctx, id)
		}

		h.logger.Debug("lock held, waiting", "lock", h.name, "id", id)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(h.retry):
		}
	}
}
