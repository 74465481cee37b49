package sim

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"catalystd/internal/models"
)

// fileEvent is the on-disk shape of one replay event: a news item or a
// price bar for a single ticker, tagged by kind.
type fileEvent struct {
	At     time.Time       `json:"at"`
	Kind   string          `json:"kind"` // "news" or "bar"
	Ticker string          `json:"ticker,omitempty"`
	News   *models.NewsItem `json:"news,omitempty"`
	Bar    *fileBar        `json:"bar,omitempty"`
}

type fileBar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// LoadEventsFile reads a JSON array of news/bar events for replay, the
// fixture format the simulate subcommand consumes.
func LoadEventsFile(path string) ([]Event, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sim: read events file: %w", err)
	}
	var fileEvents []fileEvent
	if err := json.Unmarshal(raw, &fileEvents); err != nil {
		return nil, fmt.Errorf("sim: parse events file: %w", err)
	}

	events := make([]Event, 0, len(fileEvents))
	for _, fe := range fileEvents {
		switch fe.Kind {
		case "news":
			if fe.News == nil {
				return nil, fmt.Errorf("sim: news event at %s missing news payload", fe.At)
			}
			events = append(events, Event{At: fe.At, Kind: EventNews, News: *fe.News})
		case "bar":
			if fe.Bar == nil || fe.Ticker == "" {
				return nil, fmt.Errorf("sim: bar event at %s missing ticker or bar payload", fe.At)
			}
			events = append(events, Event{
				At:     fe.At,
				Kind:   EventBar,
				Ticker: fe.Ticker,
				Bar: models.Bar{
					Time:   fe.Bar.Time,
					Open:   decimal.NewFromFloat(fe.Bar.Open),
					High:   decimal.NewFromFloat(fe.Bar.High),
					Low:    decimal.NewFromFloat(fe.Bar.Low),
					Close:  decimal.NewFromFloat(fe.Bar.Close),
					Volume: fe.Bar.Volume,
				},
			})
		default:
			return nil, fmt.Errorf("sim: unknown event kind %q", fe.Kind)
		}
	}
	return events, nil
}
