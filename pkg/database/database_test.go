package database_test

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/JaimeStill/courselens/pkg/database"
)

func TestNewSetsPoolParams(t *testing.T) {
	cfg := database.Config{
		Host:            "localhost",
		Port:            5432,
		Name:            "courselens",
		User:            "courselens",
		SSLMode:         "disable",
		MaxOpenConns:    42,
		MaxIdleConns:    7,
		ConnMaxLifetime: "10m",
		ConnTimeout:     "3s",
	}

	sys, err := database.New(&cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	conn := sys.Connection()
	defer conn.Close()

	if stats := conn.Stats(); stats.MaxOpenConnections != 42 {
		t.Errorf("MaxOpenConnections = %d, want 42", stats.MaxOpenConnections)
	}
	if sys.Ready() {
		t.Error("system should not be ready before Start")
	}
	if !strings.Contains(sys.Dsn(), "dbname=courselens") {
		t.Errorf("Dsn() = %q, missing dbname", sys.Dsn())
	}
}

func TestFinalize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := database.Config{Name: "courselens", User: "courselens"}
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("finalize failed: %v", err)
		}

		tests := []struct {
			name     string
			got      any
			expected any
		}{
			{"host", cfg.Host, "localhost"},
			{"port", cfg.Port, 5432},
			{"ssl_mode", cfg.SSLMode, "disable"},
			{"max_open_conns", cfg.MaxOpenConns, 25},
			{"conn_timeout", cfg.ConnTimeout, "5s"},
		}

		for _, tt := range tests {
			if tt.got != tt.expected {
				t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.expected)
			}
		}
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("TEST_DB_HOST", "remotehost")
		t.Setenv("TEST_DB_PORT", "5433")
		t.Setenv("TEST_DB_NAME", "envdb")
		t.Setenv("TEST_DB_USER", "envuser")

		cfg := database.Config{}
		err := cfg.Finalize(&database.Env{
			Host: "TEST_DB_HOST",
			Port: "TEST_DB_PORT",
			Name: "TEST_DB_NAME",
			User: "TEST_DB_USER",
		})
		if err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if cfg.Host != "remotehost" || cfg.Port != 5433 || cfg.Name != "envdb" || cfg.User != "envuser" {
			t.Errorf("env not applied: %+v", cfg)
		}
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name string
			cfg  database.Config
			want string
		}{
			{"missing name", database.Config{User: "u"}, "name required"},
			{"missing user", database.Config{Name: "n"}, "user required"},
			{"bad lifetime", database.Config{Name: "n", User: "u", ConnMaxLifetime: "forever"}, "conn_max_lifetime"},
		}

		for _, tt := range tests {
			err := tt.cfg.Finalize(nil)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("%s: err = %v, want containing %q", tt.name, err, tt.want)
			}
		}
	})
}

func TestMerge(t *testing.T) {
	base := database.Config{Host: "localhost", Port: 5432, Name: "base"}
	base.Merge(&database.Config{Host: "prodhost"})

	if base.Host != "prodhost" {
		t.Errorf("host = %s, want prodhost", base.Host)
	}
	if base.Port != 5432 || base.Name != "base" {
		t.Errorf("zero overlay fields should not apply: %+v", base)
	}
}
