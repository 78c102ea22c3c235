package ranking

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/JaimeStill/courselens/pkg/handlers"
	"github.com/JaimeStill/courselens/pkg/routes"
)

// SearchResponse is the body of a search result.
type SearchResponse struct {
	Query   string         `json:"query"`
	Count   int            `json:"count"`
	Results []RankedCourse `json:"results"`
}

// CategoryResponse is the body of a category browse result.
type CategoryResponse struct {
	Category string         `json:"category"`
	Count    int            `json:"count"`
	Results  []RankedCourse `json:"results"`
}

// Handler provides the search and category browse endpoints.
type Handler struct {
	engine *Engine
	logger *slog.Logger
}

func NewHandler(engine *Engine, logger *slog.Logger) *Handler {
	return &Handler{
		engine: engine,
		logger: logger.With("handler", "ranking"),
	}
}

func (h *Handler) Routes() []routes.Group {
	return []routes.Group{
		{
			Prefix: "/search",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "", Handler: h.Search},
			},
		},
		{
			Prefix: "/categories",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "/{name}/courses", Handler: h.Category},
			},
		},
	}
}

// Search handles GET /search?query=&category=&provider=&top_k=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	userID, err := handlers.UserID(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	req := Request{
		Query:    q.Get("query"),
		Category: optional(q.Get("category")),
		Provider: optional(q.Get("provider")),
		UserID:   userID,
	}

	if v := q.Get("top_k"); v != "" {
		k, err := strconv.Atoi(v)
		if err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidTopK)
			return
		}
		req.TopK = k
	}

	results, err := h.engine.Search(r.Context(), req)
	if err != nil {
		handlers.RespondError(w, h.logger, mapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, SearchResponse{
		Query:   req.Query,
		Count:   len(results),
		Results: rounded(results),
	})
}

// Category handles GET /categories/{name}/courses.
func (h *Handler) Category(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	results, err := h.engine.CoursesByCategory(r.Context(), name)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, CategoryResponse{
		Category: name,
		Count:    len(results),
		Results:  rounded(results),
	})
}

func rounded(results []RankedCourse) []RankedCourse {
	out := make([]RankedCourse, len(results))
	for i, r := range results {
		out[i] = r.Rounded()
	}
	return out
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func mapHTTPStatus(err error) int {
	if errors.Is(err, ErrInvalidQuery) || errors.Is(err, ErrInvalidTopK) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
