package categories_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/courselens/internal/categories"
	"github.com/JaimeStill/courselens/pkg/pagination"
	"github.com/JaimeStill/courselens/pkg/routes"
)

type mockSystem struct {
	cats     map[uuid.UUID]categories.Category
	deleted  []uuid.UUID
	lastCmd  categories.CreateCommand
	createFn func(cmd categories.CreateCommand) (*categories.Category, error)
}

func (m *mockSystem) Handler(maxBodySize int64) *categories.Handler {
	return categories.NewHandler(m, discard(), pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}, maxBodySize)
}

func (m *mockSystem) List(context.Context, pagination.PageRequest) (*pagination.PageResult[categories.Category], error) {
	all, _ := m.All(context.Background())
	result := pagination.NewPageResult(all, len(all), 1, 20)
	return &result, nil
}

func (m *mockSystem) All(context.Context) ([]categories.Category, error) {
	out := []categories.Category{}
	for _, c := range m.cats {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockSystem) Find(_ context.Context, id uuid.UUID) (*categories.Category, error) {
	c, ok := m.cats[id]
	if !ok {
		return nil, categories.ErrNotFound
	}
	return &c, nil
}

func (m *mockSystem) FindByName(_ context.Context, name string) (*categories.Category, error) {
	for _, c := range m.cats {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, categories.ErrNotFound
}

func (m *mockSystem) Create(_ context.Context, cmd categories.CreateCommand) (*categories.Category, error) {
	m.lastCmd = cmd
	return m.createFn(cmd)
}

func (m *mockSystem) Update(_ context.Context, id uuid.UUID, cmd categories.UpdateCommand) (*categories.Category, error) {
	c, ok := m.cats[id]
	if !ok {
		return nil, categories.ErrNotFound
	}
	c.Name = cmd.Name
	c.Keywords = cmd.Keywords
	m.cats[id] = c
	return &c, nil
}

func (m *mockSystem) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.cats[id]; !ok {
		return categories.ErrNotFound
	}
	delete(m.cats, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func setupMux(groups ...routes.Group) *http.ServeMux {
	mux := http.NewServeMux()
	for _, group := range groups {
		for _, route := range group.Routes {
			mux.HandleFunc(route.Method+" "+group.Prefix+route.Pattern, route.Handler)
		}
	}
	return mux
}

func TestHandlerAdmin(t *testing.T) {
	id := uuid.New()
	sys := &mockSystem{
		cats: map[uuid.UUID]categories.Category{
			id: {ID: id, Name: "Data Science", Keywords: []string{"data", "science"}},
		},
		createFn: func(cmd categories.CreateCommand) (*categories.Category, error) {
			if cmd.Name == "Data Science" {
				return nil, categories.ErrDuplicate
			}
			return &categories.Category{ID: uuid.New(), Name: cmd.Name, Keywords: cmd.Keywords}, nil
		},
	}
	h := sys.Handler(1 << 20)
	mux := setupMux(h.Routes(), h.AdminRoutes())

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"public list", "GET", "/categories", "", http.StatusOK},
		{"admin list", "GET", "/admin/categories", "", http.StatusOK},
		{"find", "GET", "/admin/categories/" + id.String(), "", http.StatusOK},
		{"find bad id", "GET", "/admin/categories/nope", "", http.StatusBadRequest},
		{"find missing", "GET", "/admin/categories/" + uuid.NewString(), "", http.StatusNotFound},
		{"create", "POST", "/admin/categories", `{"name":"Go","keywords":["go","golang"]}`, http.StatusCreated},
		{"create duplicate", "POST", "/admin/categories", `{"name":"Data Science"}`, http.StatusConflict},
		{"create malformed", "POST", "/admin/categories", `{"name":`, http.StatusBadRequest},
		{"update", "PUT", "/admin/categories/" + id.String(), `{"name":"Data","keywords":["data"]}`, http.StatusOK},
		{"delete", "DELETE", "/admin/categories/" + id.String(), "", http.StatusNoContent},
		{"delete again", "DELETE", "/admin/categories/" + id.String(), "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	if len(sys.deleted) != 1 || sys.deleted[0] != id {
		t.Errorf("deleted = %v", sys.deleted)
	}
}
