package alertsink

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

// TelegramSink posts Payload alerts to a Telegram chat via the raw Bot API:
// a formatted catalyst alert with a color-hint badge line.
type TelegramSink struct {
	Token  string
	ChatID string
	Client *http.Client
}

func NewTelegramSink(token, chatID string) *TelegramSink {
	return &TelegramSink{
		Token:  token,
		ChatID: chatID,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

// PostAlert implements Sink. channel is accepted for interface symmetry
// with other transports; a single bot/chat pair serves every channel here.
func (s *TelegramSink) PostAlert(channel string, p Payload) error {
	if s.Token == "" || s.ChatID == "" {
		log.Println("alertsink: telegram credentials missing, skipping")
		return nil
	}

	text := formatMessage(p)
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", s.Token)
	payload := map[string]string{
		"chat_id":    s.ChatID,
		"text":       text,
		"parse_mode": "Markdown",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("alertsink: marshal: %w", err)
	}

	if os.Getenv("LOG_LEVEL") == "DEBUG" {
		log.Printf("[DEBUG] alertsink telegram: %s", text)
	}

	resp, err := s.Client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("alertsink: telegram post: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("alertsink: telegram status %s", resp.Status)
	}
	return nil
}

// colorEmoji mirrors the downstream renderer's border choice in plain
// text; Telegram messages have no colored border to set.
var colorEmoji = map[ColorHint]string{
	ColorRed:   "🔴",
	ColorGreen: "🟢",
	ColorBlue:  "🔵",
}

func formatMessage(p Payload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s* — %s\n", colorEmoji[p.ColorHint], p.Ticker, p.Title)
	fmt.Fprintf(&b, "sentiment: %.2f | change: %.2f%%\n", p.Sentiment, p.ChangePct)
	if p.Action != "" {
		fmt.Fprintf(&b, "action: %s (confidence %.2f)\n", p.Action, p.Confidence)
	}
	if len(p.CatalystTags) > 0 {
		fmt.Fprintf(&b, "tags: %s\n", strings.Join(p.CatalystTags, ", "))
	}
	if len(p.Badges) > 0 {
		fmt.Fprintf(&b, "badges: %s\n", strings.Join(p.Badges, ", "))
	}
	return b.String()
}
