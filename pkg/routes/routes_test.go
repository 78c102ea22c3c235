package routes_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/courselens/pkg/routes"
)

func named(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(name))
	}
}

func TestRegister(t *testing.T) {
	mux := http.NewServeMux()

	routes.Register(mux, routes.Group{
		Prefix: "/admin",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/tasks", Handler: named("tasks")},
		},
		Children: []routes.Group{
			{
				Prefix: "/categories",
				Routes: []routes.Route{
					{Method: "GET", Pattern: "", Handler: named("list")},
					{Method: "DELETE", Pattern: "/{id}", Handler: named("delete")},
				},
			},
		},
	})

	tests := []struct {
		method string
		path   string
		want   string
	}{
		{"GET", "/admin/tasks", "tasks"},
		{"GET", "/admin/categories", "list"},
		{"DELETE", "/admin/categories/42", "delete"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Body.String() != tt.want {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.want)
			}
		})
	}
}
