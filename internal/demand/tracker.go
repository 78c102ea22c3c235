package demand

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/courselens/internal/delivery"
	"github.com/JaimeStill/courselens/internal/index"
	"github.com/JaimeStill/courselens/internal/metrics"
)

// ProcessReport summarizes a ProcessSearchRequests pass.
type ProcessReport struct {
	Pending   int `json:"pending"`
	Keywords  int `json:"keywords"`
	Satisfied int `json:"satisfied"`
	Notified  int `json:"notified"`
	Failed    int `json:"failed"`
}

// DispatchReport summarizes a DispatchNotifications pass.
type DispatchReport struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Tracker records unmet demand and turns it into notifications once the
// relevance index can satisfy it.
type Tracker struct {
	store     Store
	index     index.Index
	deliverer delivery.Deliverer
	batchSize int
	logger    *slog.Logger
}

func NewTracker(
	store Store,
	idx index.Index,
	deliverer delivery.Deliverer,
	batchSize int,
	logger *slog.Logger,
) *Tracker {
	if batchSize < 1 {
		batchSize = 100
	}
	return &Tracker{
		store:     store,
		index:     idx,
		deliverer: deliverer,
		batchSize: batchSize,
		logger:    logger.With("system", "demand"),
	}
}

// RecordMiss queues the keyword for scraping and, for a known user,
// records a pending request. Repeat misses while a request is pending do
// not create another.
func (t *Tracker) RecordMiss(ctx context.Context, userID *uuid.UUID, keyword string) error {
	kw := NormalizeKeyword(keyword)
	if kw == "" {
		return ErrInvalidKeyword
	}

	queued, err := t.store.Enqueue(ctx, kw)
	if err != nil {
		return err
	}

	created := false
	if userID != nil {
		if created, err = t.store.AddRequest(ctx, *userID, kw); err != nil {
			return err
		}
	}

	if queued || created {
		metrics.DemandRecorded.Inc()
	}
	t.logger.Debug("search demand recorded", "keyword", kw, "queued", queued, "request_created", created)
	return nil
}

// ProcessSearchRequests notifies every pending request whose keyword now
// has at least one match. Each request is notified at most once.
func (t *Tracker) ProcessSearchRequests(ctx context.Context) (ProcessReport, error) {
	pending, err := t.store.PendingRequests(ctx)
	if err != nil {
		return ProcessReport{}, fmt.Errorf("load pending requests: %w", err)
	}

	report := ProcessReport{Pending: len(pending)}

	byKeyword := map[string][]SearchRequest{}
	var order []string
	for _, r := range pending {
		if _, ok := byKeyword[r.Keyword]; !ok {
			order = append(order, r.Keyword)
		}
		byKeyword[r.Keyword] = append(byKeyword[r.Keyword], r)
	}
	report.Keywords = len(order)

	for _, kw := range order {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		hits, err := t.index.Query(ctx, kw, index.Filter{}, 1)
		if err != nil {
			t.logger.Warn("index query failed, skipping keyword", "keyword", kw, "error", err)
			report.Failed++
			continue
		}
		if len(hits) == 0 {
			continue
		}
		report.Satisfied++

		msg := MessageFor(kw)
		for _, r := range byKeyword[kw] {
			ok, err := t.store.Notify(ctx, r.ID, msg)
			if err != nil {
				t.logger.Error("notify request failed", "request_id", r.ID, "error", err)
				report.Failed++
				continue
			}
			if ok {
				report.Notified++
			}
		}
	}

	metrics.NotificationsCreated.Add(float64(report.Notified))
	t.logger.Info(
		"search requests processed",
		"pending", report.Pending,
		"keywords", report.Keywords,
		"satisfied", report.Satisfied,
		"notified", report.Notified,
		"failed", report.Failed,
	)
	return report, nil
}

// DispatchNotifications delivers unsent notifications. Delivered
// notifications are marked sent; failures stay unsent for the next pass.
func (t *Tracker) DispatchNotifications(ctx context.Context) (DispatchReport, error) {
	var report DispatchReport
	var after Cursor

	for {
		batch, err := t.store.UnsentNotifications(ctx, after, t.batchSize)
		if err != nil {
			return report, fmt.Errorf("load unsent notifications: %w", err)
		}

		for _, msg := range batch {
			if err := ctx.Err(); err != nil {
				return report, err
			}

			err := t.deliverer.Deliver(ctx, msg)
			metrics.RecordDelivery(err)
			if err != nil {
				t.logger.Warn("delivery failed", "notification_id", msg.NotificationID, "error", err)
				report.Failed++
				continue
			}

			if _, err := t.store.MarkSent(ctx, msg.NotificationID); err != nil {
				t.logger.Error("mark sent failed", "notification_id", msg.NotificationID, "error", err)
				report.Failed++
				continue
			}
			report.Sent++
		}

		if len(batch) < t.batchSize {
			break
		}
		last := batch[len(batch)-1]
		after = Cursor{CreatedAt: last.CreatedAt, ID: last.NotificationID}
	}

	t.logger.Info("notifications dispatched", "sent", report.Sent, "failed", report.Failed)
	return report, nil
}

// Enqueue adds a keyword to the scrape queue.
func (t *Tracker) Enqueue(ctx context.Context, keyword string) (bool, error) {
	kw := NormalizeKeyword(keyword)
	if kw == "" {
		return false, ErrInvalidKeyword
	}
	return t.store.Enqueue(ctx, kw)
}

// SeedKeywords enqueues each keyword, ignoring ones already queued.
func (t *Tracker) SeedKeywords(ctx context.Context, keywords []string) (int, error) {
	added := 0
	for _, k := range keywords {
		ok, err := t.Enqueue(ctx, k)
		if err != nil {
			if errors.Is(err, ErrInvalidKeyword) {
				continue
			}
			return added, err
		}
		if ok {
			added++
		}
	}
	if added > 0 {
		t.logger.Info("keywords seeded", "added", added)
	}
	return added, nil
}

// PendingKeywords returns keywords not yet scraped, oldest first.
func (t *Tracker) PendingKeywords(ctx context.Context) ([]QueueEntry, error) {
	return t.store.Keywords(ctx, true)
}

// Keywords returns the whole queue, oldest first.
func (t *Tracker) Keywords(ctx context.Context) ([]QueueEntry, error) {
	return t.store.Keywords(ctx, false)
}

func (t *Tracker) MarkScraped(ctx context.Context, keyword string) error {
	kw := NormalizeKeyword(keyword)
	if kw == "" {
		return ErrInvalidKeyword
	}
	return t.store.MarkScraped(ctx, kw)
}

func (t *Tracker) Notifications(ctx context.Context, userID uuid.UUID) ([]Notification, error) {
	return t.store.Notifications(ctx, userID)
}

func (t *Tracker) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return t.store.MarkRead(ctx, userID, id)
}
