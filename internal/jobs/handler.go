package jobs

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/courselens/pkg/handlers"
	"github.com/JaimeStill/courselens/pkg/routes"
)

// TriggerResult acknowledges a triggered job.
type TriggerResult struct {
	Job    string `json:"job"`
	Status string `json:"status"`
}

// Handler exposes job state and manual triggers to operators.
type Handler struct {
	scheduler *Scheduler
	logger    *slog.Logger
}

func NewHandler(scheduler *Scheduler, logger *slog.Logger) *Handler {
	return &Handler{
		scheduler: scheduler,
		logger:    logger.With("handler", "jobs"),
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/admin/tasks",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.States},
			{Method: "POST", Pattern: "/{job}", Handler: h.Trigger},
		},
	}
}

func (h *Handler) States(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.scheduler.States())
}

func (h *Handler) Trigger(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("job")

	err := h.scheduler.Trigger(name)
	switch {
	case errors.Is(err, ErrUnknownJob):
		handlers.RespondError(w, h.logger, http.StatusNotFound, err)
	case errors.Is(err, ErrAlreadyRunning):
		handlers.RespondError(w, h.logger, http.StatusConflict, err)
	case err != nil:
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
	default:
		h.logger.Info("job triggered", "job", name)
		handlers.RespondJSON(w, http.StatusAccepted, TriggerResult{Job: name, Status: "started"})
	}
}
