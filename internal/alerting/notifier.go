package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"retail-demand-optimizer/internal/forecast"
)

// Digest is the anomaly summary pushed after a forecast run.
type Digest struct {
	Series        string
	ModelUsed     forecast.ModelUsed
	Fallback      forecast.FallbackReason
	GeneratedAt   time.Time
	Anomalies     []forecast.Point
	MaxItems      int
	Channels      []string
	AdditionalMsg string
}

// Notifier delivers anomaly digests.
type Notifier interface {
	Notify(ctx context.Context, digest Digest) error
}

// TelegramNotifier pushes digests through the Telegram Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier constructs a Telegram notifier.
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// Notify calls sendMessage with the rendered digest.
func (n *TelegramNotifier) Notify(ctx context.Context, digest Digest) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    RenderDigest(digest),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram returned ok=false")
		}
	}

	n.logger.Info().
		Str("series", digest.Series).
		Int("anomalies", len(digest.Anomalies)).
		Str("channels", strings.Join(digest.Channels, ",")).
		Msg("anomaly digest sent (telegram)")
	return nil
}

// RenderDigest formats the plain-text message body. At most MaxItems weeks
// are listed when MaxItems is positive.
func RenderDigest(d Digest) string {
	builder := strings.Builder{}
	builder.WriteString("[Retail Demand Alert]\n")
	builder.WriteString(fmt.Sprintf("Series: %s\n", d.Series))
	builder.WriteString(fmt.Sprintf("Model: %s", d.ModelUsed))
	if d.Fallback != forecast.FallbackNone {
		builder.WriteString(fmt.Sprintf(" (fallback: %s)", d.Fallback))
	}
	builder.WriteString("\n")
	if !d.GeneratedAt.IsZero() {
		builder.WriteString(fmt.Sprintf("Generated: %s UTC\n", d.GeneratedAt.UTC().Format(time.RFC3339)))
	}
	builder.WriteString(fmt.Sprintf("Anomalous weeks: %d\n", len(d.Anomalies)))

	shown := d.Anomalies
	if d.MaxItems > 0 && len(shown) > d.MaxItems {
		shown = shown[:d.MaxItems]
	}
	for _, p := range shown {
		builder.WriteString(fmt.Sprintf("- %s observed %s, expected %s",
			p.Timestamp.Format(time.DateOnly), money(p.Observed), money(&p.PointEstimate)))
		if p.HasBounds() {
			builder.WriteString(fmt.Sprintf(" [%s, %s]", money(p.LowerBound), money(p.UpperBound)))
		}
		builder.WriteString("\n")
	}
	if rest := len(d.Anomalies) - len(shown); rest > 0 {
		builder.WriteString(fmt.Sprintf("... and %d more\n", rest))
	}

	if len(d.Channels) > 0 {
		builder.WriteString(fmt.Sprintf("Channels: %s\n", strings.Join(d.Channels, ",")))
	}
	if d.AdditionalMsg != "" {
		builder.WriteString(d.AdditionalMsg)
	}
	return builder.String()
}

func money(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return decimal.NewFromFloat(*v).StringFixed(2)
}

var _ Notifier = (*TelegramNotifier)(nil)
