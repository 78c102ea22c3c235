package jobs_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JaimeStill/courselens/internal/jobs"
	"github.com/JaimeStill/courselens/pkg/database"
	"github.com/JaimeStill/courselens/pkg/lifecycle"
)

type readiness bool

func (r readiness) Ready() bool { return bool(r) }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newScheduler(t *testing.T, ready lifecycle.ReadinessChecker) (*jobs.Scheduler, *lifecycle.Coordinator) {
	t.Helper()
	lc := lifecycle.New()
	t.Cleanup(func() { lc.Shutdown(5 * time.Second) })
	return jobs.NewScheduler(lc, jobs.NewLocalLocker(), ready, discard()), lc
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestRunNow(t *testing.T) {
	s, _ := newScheduler(t, nil)
	s.Register(jobs.Job{
		Name: "enrich",
		Run: func(context.Context) (any, error) {
			return map[string]int{"scored": 3}, nil
		},
	})
	s.Register(jobs.Job{
		Name: "broken",
		Run: func(context.Context) (any, error) {
			return nil, errors.New("store unavailable")
		},
	})

	report, err := s.RunNow(context.Background(), "enrich")
	if err != nil {
		t.Fatalf("RunNow error: %v", err)
	}
	if report.(map[string]int)["scored"] != 3 {
		t.Errorf("report = %v", report)
	}

	if _, err := s.RunNow(context.Background(), "broken"); err == nil {
		t.Error("expected job error")
	}
	if _, err := s.RunNow(context.Background(), "missing"); !errors.Is(err, jobs.ErrUnknownJob) {
		t.Errorf("err = %v, want ErrUnknownJob", err)
	}

	states := s.States()
	if len(states) != 2 || states[0].Name != "enrich" || states[0].Runs != 1 {
		t.Errorf("states = %+v", states)
	}
	if states[1].LastError != "store unavailable" {
		t.Errorf("LastError = %q", states[1].LastError)
	}
}

func TestSingleInstance(t *testing.T) {
	s, _ := newScheduler(t, nil)
	release := make(chan struct{})
	started := make(chan struct{})

	s.Register(jobs.Job{
		Name: "retag",
		Run: func(context.Context) (any, error) {
			close(started)
			<-release
			return nil, nil
		},
	})

	done := make(chan error)
	go func() {
		_, err := s.RunNow(context.Background(), "retag")
		done <- err
	}()
	<-started

	if _, err := s.RunNow(context.Background(), "retag"); !errors.Is(err, jobs.ErrAlreadyRunning) {
		t.Errorf("concurrent RunNow err = %v, want ErrAlreadyRunning", err)
	}
	if err := s.Trigger("retag"); !errors.Is(err, jobs.ErrAlreadyRunning) {
		t.Errorf("Trigger err = %v, want ErrAlreadyRunning", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Errorf("first run err = %v", err)
	}
}

func TestLockHeldElsewhere(t *testing.T) {
	lc := lifecycle.New()
	defer lc.Shutdown(time.Second)

	locker := jobs.NewLocalLocker()
	unlock, ok, _ := locker.TryLock(context.Background(), "demand")
	if !ok {
		t.Fatal("could not take lock")
	}
	defer unlock()

	var runs atomic.Int32
	s := jobs.NewScheduler(lc, locker, nil, discard())
	s.Register(jobs.Job{Name: "demand", Run: func(context.Context) (any, error) {
		runs.Add(1)
		return nil, nil
	}})

	if _, err := s.RunNow(context.Background(), "demand"); !errors.Is(err, jobs.ErrAlreadyRunning) {
		t.Errorf("err = %v, want ErrAlreadyRunning", err)
	}
	if runs.Load() != 0 {
		t.Error("job ran while another instance held the lock")
	}
}

func TestNotReady(t *testing.T) {
	s, _ := newScheduler(t, readiness(false))
	s.Register(jobs.Job{Name: "dispatch", Run: func(context.Context) (any, error) { return nil, nil }})

	if _, err := s.RunNow(context.Background(), "dispatch"); !errors.Is(err, database.ErrNotReady) {
		t.Errorf("err = %v, want ErrNotReady", err)
	}
}

func TestStartRunsOnInterval(t *testing.T) {
	lc := lifecycle.New()
	s := jobs.NewScheduler(lc, jobs.NewLocalLocker(), readiness(true), discard())

	var runs atomic.Int32
	s.Register(jobs.Job{
		Name:     "dispatch",
		Interval: 10 * time.Millisecond,
		Run: func(context.Context) (any, error) {
			runs.Add(1)
			return nil, nil
		},
	})
	s.Register(jobs.Job{
		Name: "manual-only",
		Run: func(context.Context) (any, error) {
			t.Error("unscheduled job ran")
			return nil, nil
		},
	})

	s.Start(true)
	waitFor(t, func() bool { return runs.Load() >= 3 })

	if err := lc.Shutdown(time.Second); err != nil {
		t.Fatalf("Shutdown error: %v", err)
	}

	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	if runs.Load() != after {
		t.Error("job kept running after shutdown")
	}
}

func TestHandler(t *testing.T) {
	s, _ := newScheduler(t, nil)
	release := make(chan struct{})
	var runs atomic.Int32

	s.Register(jobs.Job{Name: "enrich", Run: func(context.Context) (any, error) {
		runs.Add(1)
		<-release
		return nil, nil
	}})

	mux := http.NewServeMux()
	group := jobs.NewHandler(s, discard()).Routes()
	for _, route := range group.Routes {
		mux.HandleFunc(route.Method+" "+group.Prefix+route.Pattern, route.Handler)
	}

	do := func(method, path string) int {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
		return rec.Code
	}

	if code := do("POST", "/admin/tasks/enrich"); code != http.StatusAccepted {
		t.Errorf("trigger status = %d, want 202", code)
	}
	waitFor(t, func() bool { return runs.Load() == 1 })

	if code := do("POST", "/admin/tasks/enrich"); code != http.StatusConflict {
		t.Errorf("second trigger status = %d, want 409", code)
	}
	if code := do("POST", "/admin/tasks/nope"); code != http.StatusNotFound {
		t.Errorf("unknown trigger status = %d, want 404", code)
	}
	if code := do("GET", "/admin/tasks"); code != http.StatusOK {
		t.Errorf("states status = %d, want 200", code)
	}

	close(release)
}
