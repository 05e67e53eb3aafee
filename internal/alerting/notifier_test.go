package alerting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"retail-demand-optimizer/internal/forecast"
)

func ptr(v float64) *float64 { return &v }

func sampleDigest() Digest {
	week := time.Date(2010, 12, 24, 0, 0, 0, 0, time.UTC)
	return Digest{
		Series:    "store=4",
		ModelUsed: forecast.ModelSeasonal,
		Anomalies: []forecast.Point{
			{Timestamp: week, PointEstimate: 1500, LowerBound: ptr(1400), UpperBound: ptr(1600), Observed: ptr(2385.5), IsAnomaly: true},
			{Timestamp: week.AddDate(0, 0, 7), PointEstimate: 1500, LowerBound: ptr(1400), UpperBound: ptr(1600), Observed: ptr(900), IsAnomaly: true},
		},
	}
}

func TestTelegramNotifierSuccess(t *testing.T) {
	received := make(map[string]string)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/bottoken/sendMessage") {
			t.Fatalf("path should contain sendMessage, got %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())
	if err := notifier.Notify(context.Background(), sampleDigest()); err != nil {
		t.Fatalf("Notify should succeed: %v", err)
	}

	if received["chat_id"] != "chat" {
		t.Fatalf("unexpected chat_id: %#v", received)
	}
	if !strings.Contains(received["text"], "store=4") {
		t.Fatalf("text should name the series, got %q", received["text"])
	}
}

func TestTelegramNotifierError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())
	if err := notifier.Notify(context.Background(), sampleDigest()); err == nil {
		t.Fatal("ok=false should be an error")
	}
}

func TestTelegramNotifierStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())
	if err := notifier.Notify(context.Background(), sampleDigest()); err == nil {
		t.Fatal("non-2xx status should be an error")
	}
}

func TestRenderDigest(t *testing.T) {
	digest := sampleDigest()
	digest.Fallback = forecast.FallbackFitFailed
	digest.ModelUsed = forecast.ModelRollingAverage
	digest.MaxItems = 1
	digest.Channels = []string{"telegram"}

	text := RenderDigest(digest)

	for _, want := range []string{
		"Series: store=4",
		"Model: rolling_average (fallback: fit_failed)",
		"Anomalous weeks: 2",
		"- 2010-12-24 observed 2385.50, expected 1500.00 [1400.00, 1600.00]",
		"... and 1 more",
		"Channels: telegram",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("digest missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "2010-12-31") {
		t.Fatalf("digest should be truncated to one week:\n%s", text)
	}
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
