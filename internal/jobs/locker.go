package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
)

// Locker provides cross-process mutual exclusion per job name.
type Locker interface {
	// TryLock acquires the named lock without blocking. When ok is true
	// the caller must call unlock.
	TryLock(ctx context.Context, name string) (unlock func(), ok bool, err error)
}

// AdvisoryLocker uses PostgreSQL session advisory locks held on a
// dedicated pooled connection for the duration of a run.
type AdvisoryLocker struct {
	db     *sql.DB
	prefix string
	logger *slog.Logger
}

func NewAdvisoryLocker(db *sql.DB, prefix string, logger *slog.Logger) *AdvisoryLocker {
	return &AdvisoryLocker{
		db:     db,
		prefix: prefix,
		logger: logger.With("system", "job-lock"),
	}
}

// Key returns the lock key hashed for a job name.
func (l *AdvisoryLocker) Key(name string) string {
	return l.prefix + ":" + name
}

func (l *AdvisoryLocker) TryLock(ctx context.Context, name string) (func(), bool, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("reserve connection: %w", err)
	}

	key := l.Key(name)
	var ok bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock(hashtext($1))", key).Scan(&ok); err != nil {
		conn.Close()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !ok {
		conn.Close()
		return nil, false, nil
	}

	unlock := func() {
		if _, err := conn.ExecContext(context.Background(), "SELECT pg_advisory_unlock(hashtext($1))", key); err != nil {
			l.logger.Warn("advisory unlock failed", "key", key, "error", err)
		}
		conn.Close()
	}
	return unlock, true, nil
}

// LocalLocker is an in-process Locker for single-replica deployments and
// tests.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: map[string]bool{}}
}

func (l *LocalLocker) TryLock(_ context.Context, name string) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[name] {
		return nil, false, nil
	}
	l.held[name] = true

	return func() {
		l.mu.Lock()
		delete(l.held, name)
		l.mu.Unlock()
	}, true, nil
}
