package delivery_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/JaimeStill/courselens/internal/delivery"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func message() delivery.Message {
	return delivery.Message{
		NotificationID: uuid.New(),
		UserID:         uuid.New(),
		Email:          "ada@example.com",
		Text:           "New courses are now available for 'rust'.",
		CreatedAt:      time.Now(),
	}
}

func TestLogDeliver(t *testing.T) {
	if err := delivery.NewLog(discard()).Deliver(context.Background(), message()); err != nil {
		t.Errorf("Deliver error: %v", err)
	}
}

func TestWebhookDeliver(t *testing.T) {
	var got delivery.Message
	var key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key = r.Header.Get("Idempotency-Key")
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	wh := delivery.NewWebhook(delivery.WebhookConfig{
		URL:              srv.URL,
		Timeout:          time.Second,
		BreakerThreshold: 3,
		BreakerTimeout:   time.Minute,
	}, discard())

	msg := message()
	if err := wh.Deliver(context.Background(), msg); err != nil {
		t.Fatalf("Deliver error: %v", err)
	}
	if got.NotificationID != msg.NotificationID || got.Text != msg.Text {
		t.Errorf("received %+v", got)
	}
	if key != msg.NotificationID.String() {
		t.Errorf("Idempotency-Key = %q", key)
	}
}

func TestWebhookBreakerOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	wh := delivery.NewWebhook(delivery.WebhookConfig{
		URL:              srv.URL,
		Timeout:          time.Second,
		BreakerThreshold: 2,
		BreakerTimeout:   time.Hour,
	}, discard())

	for range 2 {
		if err := wh.Deliver(context.Background(), message()); err == nil {
			t.Fatal("expected failure from 502")
		}
	}

	err := wh.Deliver(context.Background(), message())
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("err = %v, want open breaker", err)
	}
	if calls.Load() != 2 {
		t.Errorf("server calls = %d, want 2", calls.Load())
	}
}

func TestWebhookRateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wh := delivery.NewWebhook(delivery.WebhookConfig{
		URL:              srv.URL,
		Timeout:          time.Second,
		RatePerSecond:    0.001,
		Burst:            1,
		BreakerThreshold: 5,
		BreakerTimeout:   time.Minute,
	}, discard())

	if err := wh.Deliver(context.Background(), message()); err != nil {
		t.Fatalf("first delivery: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := wh.Deliver(ctx, message()); err == nil {
		t.Error("expected rate limit error once burst is spent")
	}
}
