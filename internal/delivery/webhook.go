package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/JaimeStill/courselens/internal/metrics"
)

// WebhookConfig configures the webhook deliverer.
type WebhookConfig struct {
	URL              string
	Timeout          time.Duration
	RatePerSecond    float64
	Burst            int
	BreakerThreshold uint32
	BreakerTimeout   time.Duration
}

// Webhook POSTs each message as JSON to a configured URL. Requests are rate
// limited, and consecutive failures open a circuit breaker that fails
// deliveries fast until the endpoint recovers.
type Webhook struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[struct{}]
	logger  *slog.Logger
}

const breakerName = "webhook-delivery"

func NewWebhook(cfg WebhookConfig, logger *slog.Logger) *Webhook {
	logger = logger.With("deliverer", "webhook")
	threshold := max(cfg.BreakerThreshold, 1)

	metrics.BreakerState.WithLabelValues(breakerName).Set(0)

	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
		},
	})

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}

	return &Webhook{
		url:     cfg.URL,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, max(cfg.Burst, 1)),
		breaker: breaker,
		logger:  logger,
	}
}

func (w *Webhook) Deliver(ctx context.Context, msg Message) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	_, err := w.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, w.post(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("deliver %s: %w", msg.NotificationID, err)
	}
	return nil
}

func (w *Webhook) post(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", msg.NotificationID.String())

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}
