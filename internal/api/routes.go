package api

import (
	"net/http"

	"github.com/JaimeStill/courselens/internal/demand"
	"github.com/JaimeStill/courselens/internal/jobs"
	"github.com/JaimeStill/courselens/internal/ranking"
	"github.com/JaimeStill/courselens/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	runtime *Runtime,
) {
	maxBody := runtime.Config.API.MaxBodySizeBytes()
	categories := domain.Categories.Handler(maxBody)

	groups := []routes.Group{
		domain.Courses.Handler(maxBody).Routes(),
		categories.Routes(),
		categories.AdminRoutes(),
		jobs.NewHandler(domain.Scheduler, runtime.Logger).Routes(),
	}
	groups = append(groups, ranking.NewHandler(domain.Ranking, runtime.Logger).Routes()...)
	groups = append(groups, demand.NewHandler(domain.Demand, runtime.Logger, maxBody).Routes()...)

	routes.Register(mux, groups...)
}
