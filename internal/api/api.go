// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/JaimeStill/courselens/internal/config"
	"github.com/JaimeStill/courselens/internal/infrastructure"
	"github.com/JaimeStill/courselens/pkg/formatting"
	"github.com/JaimeStill/courselens/pkg/middleware"
	"github.com/JaimeStill/courselens/pkg/module"
)

// Module is the mounted API together with the domain it serves.
type Module struct {
	*module.Module
	domain  *Domain
	runtime *Runtime
}

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, runtime)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(middleware.Recover(runtime.Logger))

	runtime.Logger.Info(
		"api module initialized",
		"base_path", cfg.API.BasePath,
		"max_body_size", formatting.FormatBytes(cfg.API.MaxBodySizeBytes(), 0),
	)

	return &Module{
		Module:  m,
		domain:  domain,
		runtime: runtime,
	}, nil
}

// Start schedules the domain's background work. Call after the
// infrastructure has registered its startup hooks.
func (m *Module) Start() {
	m.domain.Start(m.runtime)
}
