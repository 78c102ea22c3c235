package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/courselens/internal/api"
	"github.com/JaimeStill/courselens/internal/config"
	"github.com/JaimeStill/courselens/internal/infrastructure"
	"github.com/JaimeStill/courselens/pkg/database"
	"github.com/JaimeStill/courselens/pkg/middleware"
	"github.com/JaimeStill/courselens/pkg/pagination"
)

func validConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Database: database.Config{
			Host:            "localhost",
			Port:            5432,
			Name:            "courselens",
			User:            "courselens",
			Password:        "courselens",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: "15m",
			ConnTimeout:     "5s",
		},
		API: config.APIConfig{
			BasePath:    "/api",
			MaxBodySize: "1MB",
			CORS:        middleware.CORSConfig{Enabled: false},
			Pagination: pagination.Config{
				DefaultPageSize: 20,
				MaxPageSize:     100,
			},
		},
		Log:             config.LogConfig{Level: "info", Format: "text"},
		ShutdownTimeout: "30s",
		Version:         "0.1.0",
	}
	if err := cfg.Pipeline.Finalize(); err != nil {
		t.Fatalf("pipeline finalize: %v", err)
	}
	if err := cfg.Jobs.Finalize(); err != nil {
		t.Fatalf("jobs finalize: %v", err)
	}
	if err := cfg.Delivery.Finalize(); err != nil {
		t.Fatalf("delivery finalize: %v", err)
	}
	return cfg
}

func setupInfra(t *testing.T, cfg *config.Config) *infrastructure.Infrastructure {
	t.Helper()
	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("infrastructure.New() error = %v", err)
	}
	t.Cleanup(func() { infra.Database.Connection().Close() })
	return infra
}

func TestNewModule(t *testing.T) {
	cfg := validConfig(t)
	infra := setupInfra(t, cfg)

	m, err := api.NewModule(cfg, infra)
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}

	if m.Prefix() != "/api" {
		t.Errorf("prefix: got %s, want /api", m.Prefix())
	}
}

func TestNewRuntime(t *testing.T) {
	cfg := validConfig(t)
	infra := setupInfra(t, cfg)

	runtime := api.NewRuntime(cfg, infra)

	if runtime.Pagination.DefaultPageSize != 20 {
		t.Errorf("pagination default page size: got %d, want 20", runtime.Pagination.DefaultPageSize)
	}
	if runtime.Config != cfg {
		t.Error("runtime config not retained")
	}
	if runtime.Logger == nil {
		t.Error("runtime logger is nil")
	}
	if runtime.Database == nil {
		t.Error("runtime database is nil")
	}
	if runtime.Lifecycle == nil {
		t.Error("runtime lifecycle is nil")
	}
}

func TestNewDomain(t *testing.T) {
	cfg := validConfig(t)
	infra := setupInfra(t, cfg)

	domain := api.NewDomain(api.NewRuntime(cfg, infra))

	if domain.Courses == nil || domain.Categories == nil {
		t.Fatal("domain systems not constructed")
	}
	if domain.Ranking == nil || domain.Demand == nil || domain.Tagger == nil {
		t.Fatal("pipeline components not constructed")
	}

	states := domain.Scheduler.States()
	want := []string{"enrich", "retag", "demand", "dispatch"}
	if len(states) != len(want) {
		t.Fatalf("jobs: got %d, want %d", len(states), len(want))
	}
	for i, name := range want {
		if states[i].Name != name {
			t.Errorf("job %d: got %s, want %s", i, states[i].Name, name)
		}
	}
}

func TestModuleRoutes(t *testing.T) {
	cfg := validConfig(t)
	infra := setupInfra(t, cfg)

	m, err := api.NewModule(cfg, infra)
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"unknown job", http.MethodPost, "/api/admin/tasks/nope", http.StatusNotFound},
		{"blank search", http.MethodGet, "/api/search?query=%20", http.StatusBadRequest},
		{"unregistered path", http.MethodGet, "/api/nothing", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()

			m.Serve(w, req)

			if w.Code != tt.want {
				t.Errorf("status: got %d, want %d", w.Code, tt.want)
			}
		})
	}
}
