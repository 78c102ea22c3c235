package courses_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/courselens/internal/courses"
	"github.com/JaimeStill/courselens/pkg/pagination"
)

type mockSystem struct {
	listFn   func(ctx context.Context, page pagination.PageRequest, filters courses.Filters) (*pagination.PageResult[courses.Course], error)
	findFn   func(ctx context.Context, id string) (*courses.Course, error)
	importFn func(ctx context.Context, cmd courses.ImportCommand) (*courses.ImportResult, error)
}

func (m *mockSystem) Handler(maxBodySize int64) *courses.Handler {
	return newTestHandler(m, maxBodySize)
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters courses.Filters) (*pagination.PageResult[courses.Course], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id string) (*courses.Course, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) Import(ctx context.Context, cmd courses.ImportCommand) (*courses.ImportResult, error) {
	return m.importFn(ctx, cmd)
}

func newTestHandler(sys courses.System, maxBodySize int64) *courses.Handler {
	return courses.NewHandler(
		sys,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
		maxBodySize,
	)
}

func setupMux(h *courses.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		pattern := route.Method + " " + group.Prefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}
	return mux
}

func TestHandlerList(t *testing.T) {
	var gotFilters courses.Filters
	sys := &mockSystem{
		listFn: func(_ context.Context, _ pagination.PageRequest, f courses.Filters) (*pagination.PageResult[courses.Course], error) {
			gotFilters = f
			result := pagination.NewPageResult([]courses.Course{{ID: "udemy-py"}}, 1, 1, 20)
			return &result, nil
		},
	}

	mux := setupMux(sys.Handler(0))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/courses?provider=udemy&category=python", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotFilters.Provider == nil || *gotFilters.Provider != "udemy" {
		t.Errorf("Provider filter = %v", gotFilters.Provider)
	}
	if gotFilters.Category == nil || *gotFilters.Category != "python" {
		t.Errorf("Category filter = %v", gotFilters.Category)
	}

	var result pagination.PageResult[courses.Course]
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if len(result.Data) != 1 || result.Data[0].ID != "udemy-py" {
		t.Errorf("Data = %+v", result.Data)
	}
}

func TestHandlerFind(t *testing.T) {
	sys := &mockSystem{
		findFn: func(_ context.Context, id string) (*courses.Course, error) {
			if id == "udemy-py" {
				return &courses.Course{ID: id}, nil
			}
			return nil, courses.ErrNotFound
		},
	}
	mux := setupMux(sys.Handler(0))

	tests := []struct {
		name string
		path string
		want int
	}{
		{"found", "/courses/udemy-py", http.StatusOK},
		{"missing", "/courses/edx-none", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandlerImport(t *testing.T) {
	sys := &mockSystem{
		importFn: func(_ context.Context, cmd courses.ImportCommand) (*courses.ImportResult, error) {
			if cmd.Provider == "" {
				return nil, courses.ErrInvalidImport
			}
			if cmd.Provider == "broken" {
				return nil, errors.New("db down")
			}
			return &courses.ImportResult{Courses: len(cmd.Courses), ReviewsAdded: 2}, nil
		},
	}

	tests := []struct {
		name    string
		body    string
		maxBody int64
		want    int
	}{
		{"valid", `{"provider":"udemy","courses":[{"id":"a"}]}`, 0, http.StatusOK},
		{"malformed json", `{"provider":`, 0, http.StatusBadRequest},
		{"missing provider", `{"courses":[{"id":"a"}]}`, 0, http.StatusBadRequest},
		{"store failure", `{"provider":"broken","courses":[{"id":"a"}]}`, 0, http.StatusInternalServerError},
		{"body too large", `{"provider":"udemy","courses":[{"id":"a"}]}`, 8, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := setupMux(sys.Handler(tt.maxBody))
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/courses/import", bytes.NewBufferString(tt.body))
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
