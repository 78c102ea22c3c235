package categories

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

type recordingHandler struct {
	ids []uuid.UUID
	err error
}

func (h *recordingHandler) OnCategoryChanged(_ context.Context, id uuid.UUID) error {
	h.ids = append(h.ids, id)
	return h.err
}

func TestListenerDispatch(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	id := uuid.New()

	t.Run("valid payload", func(t *testing.T) {
		h := &recordingHandler{}
		l := NewListener("", h, logger)
		l.dispatch(context.Background(), id.String())

		if len(h.ids) != 1 || h.ids[0] != id {
			t.Errorf("ids = %v, want [%s]", h.ids, id)
		}
	})

	t.Run("malformed payload", func(t *testing.T) {
		h := &recordingHandler{}
		l := NewListener("", h, logger)
		l.dispatch(context.Background(), "not-a-uuid")

		if len(h.ids) != 0 {
			t.Errorf("handler called with %v", h.ids)
		}
	})

	t.Run("handler error is contained", func(t *testing.T) {
		h := &recordingHandler{err: errors.New("boom")}
		l := NewListener("", h, logger)
		l.dispatch(context.Background(), id.String())

		if len(h.ids) != 1 {
			t.Errorf("ids = %v", h.ids)
		}
	})
}

func TestListenerRunStopsOnCancel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		NewListener("postgres://invalid:1/none", &recordingHandler{}, logger).Run(ctx)
		close(done)
	}()
	<-done
}

type fakeLocker struct {
	mu    sync.Mutex
	held  bool
	tries int
	err   error
}

func (l *fakeLocker) TryLock(context.Context, string) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.tries++
	if l.err != nil {
		return nil, false, l.err
	}
	if l.held {
		return nil, false, nil
	}
	l.held = true
	return l.release, true, nil
}

func (l *fakeLocker) release() {
	l.mu.Lock()
	l.held = false
	l.mu.Unlock()
}

func (l *fakeLocker) isHeld() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

func TestLockedHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	id := uuid.New()

	t.Run("waits for the lock", func(t *testing.T) {
		locker := &fakeLocker{held: true}
		h := &recordingHandler{}
		lh := NewLockedHandler(h, locker, "retag", logger)
		lh.retry = time.Millisecond

		time.AfterFunc(20*time.Millisecond, locker.release)

		if err := lh.OnCategoryChanged(context.Background(), id); err != nil {
			t.Fatalf("OnCategoryChanged error: %v", err)
		}
		if len(h.ids) != 1 {
			t.Errorf("handler calls = %d, want 1", len(h.ids))
		}
		if locker.tries < 2 {
			t.Errorf("tries = %d, want retries while held", locker.tries)
		}
		if locker.isHeld() {
			t.Error("lock not released")
		}
	})

	t.Run("cancelled while waiting", func(t *testing.T) {
		locker := &fakeLocker{held: true}
		h := &recordingHandler{}
		lh := NewLockedHandler(h, locker, "retag", logger)
		lh.retry = time.Millisecond

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		if err := lh.OnCategoryChanged(ctx, id); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("err = %v, want deadline exceeded", err)
		}
		if len(h.ids) != 0 {
			t.Errorf("handler ran without the lock")
		}
	})

	t.Run("lock error", func(t *testing.T) {
		locker := &fakeLocker{err: errors.New("db down")}
		h := &recordingHandler{}
		lh := NewLockedHandler(h, locker, "retag", logger)

		if err := lh.OnCategoryChanged(context.Background(), id); err == nil {
			t.Error("expected error")
		}
		if len(h.ids) != 0 {
			t.Errorf("handler ran without the lock")
		}
	})
}
