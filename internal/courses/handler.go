package courses

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/courselens/pkg/handlers"
	"github.com/JaimeStill/courselens/pkg/pagination"
	"github.com/JaimeStill/courselens/pkg/routes"
)

// Handler provides HTTP endpoints for course operations.
type Handler struct {
	sys         System
	logger      *slog.Logger
	pagination  pagination.Config
	maxBodySize int64
}

func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxBodySize int64,
) *Handler {
	return &Handler{
		sys:         sys,
		logger:      logger.With("handler", "courses"),
		pagination:  pagination,
		maxBodySize: maxBodySize,
	}
}

// Routes returns the route group definition for course endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/courses",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "/import", Handler: h.Import},
		},
	}
}

// List returns a paginated list of courses filtered by provider or category.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a course and its reviews.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	course, err := h.sys.Find(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, course)
}

// Import upserts a provider's scraped listings.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	cmd, err := handlers.DecodeJSON[ImportCommand](w, r, h.maxBodySize)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %v", ErrInvalidImport, err))
		return
	}

	result, err := h.sys.Import(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
