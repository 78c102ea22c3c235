package demand

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/courselens/pkg/handlers"
	"github.com/JaimeStill/courselens/pkg/routes"
)

// KeywordCommand names a keyword in a request body.
type KeywordCommand struct {
	Keyword string `json:"keyword"`
}

// EnqueueResult reports whether a keyword was newly queued.
type EnqueueResult struct {
	Keyword string `json:"keyword"`
	Queued  bool   `json:"queued"`
}

// Handler provides keyword queue and notification endpoints.
type Handler struct {
	tracker     *Tracker
	logger      *slog.Logger
	maxBodySize int64
}

func NewHandler(tracker *Tracker, logger *slog.Logger, maxBodySize int64) *Handler {
	return &Handler{
		tracker:     tracker,
		logger:      logger.With("handler", "demand"),
		maxBodySize: maxBodySize,
	}
}

func (h *Handler) Routes() []routes.Group {
	return []routes.Group{
		{
			Prefix: "/keywords",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "", Handler: h.Keywords},
				{Method: "POST", Pattern: "", Handler: h.Enqueue},
				{Method: "POST", Pattern: "/scraped", Handler: h.MarkScraped},
			},
		},
		{
			Prefix: "/notifications",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "", Handler: h.Notifications},
				{Method: "POST", Pattern: "/{id}/read", Handler: h.MarkRead},
			},
		},
	}
}

// Keywords lists the scrape queue; ?pending=true limits it to unscraped.
func (h *Handler) Keywords(w http.ResponseWriter, r *http.Request) {
	var (
		entries []QueueEntry
		err     error
	)
	if r.URL.Query().Get("pending") == "true" {
		entries, err = h.tracker.PendingKeywords(r.Context())
	} else {
		entries, err = h.tracker.Keywords(r.Context())
	}
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, entries)
}

func (h *Handler) Enqueue(w http.ResponseWriter, r *http.Request) {
	cmd, err := handlers.DecodeJSON[KeywordCommand](w, r, h.maxBodySize)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	queued, err := h.tracker.Enqueue(r.Context(), cmd.Keyword)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	status := http.StatusOK
	if queued {
		status = http.StatusCreated
	}
	handlers.RespondJSON(w, status, EnqueueResult{Keyword: NormalizeKeyword(cmd.Keyword), Queued: queued})
}

func (h *Handler) MarkScraped(w http.ResponseWriter, r *http.Request) {
	cmd, err := handlers.DecodeJSON[KeywordCommand](w, r, h.maxBodySize)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	if err := h.tracker.MarkScraped(r.Context(), cmd.Keyword); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Notifications lists the requesting user's notifications, newest first.
func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	items, err := h.tracker.Notifications(r.Context(), userID)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, items)
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(ErrInvalidID), ErrInvalidID)
		return
	}

	if err := h.tracker.MarkRead(r.Context(), userID, id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := handlers.UserID(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return uuid.Nil, false
	}
	if userID == nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrUserRequired)
		return uuid.Nil, false
	}
	return *userID, true
}
