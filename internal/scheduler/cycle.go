// Package scheduler drives the single cooperative cycle loop: ingest,
// filter, classify, enrich, signal, and execute, then a separately-ticked
// position monitor. One cycle runs at a time; an overrunning cycle causes
// the next tick to be skipped and logged rather than overlapping with it.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"catalystd/internal/alertsink"
	"catalystd/internal/broker"
	"catalystd/internal/classify"
	"catalystd/internal/config"
	"catalystd/internal/enrich"
	"catalystd/internal/feedback"
	"catalystd/internal/ingest"
	"catalystd/internal/models"
	"catalystd/internal/signal"
	"catalystd/internal/storage"
	"catalystd/internal/trading"
)

// Clock is the narrow time source the cycle needs; satisfied by both
// sim.RealClock and sim.VirtualClock so the same scheduler drives live
// trading and replay.
type Clock interface {
	Now() time.Time
}

// Cycle wires every pipeline stage together and drives the single
// cooperative tick loop.
type Cycle struct {
	Clock Clock

	Ingestor   *ingest.Ingestor
	Dedupe     *ingest.Dedupe
	Tradeable  *ingest.TradeableFilter
	Classifier *classify.Classifier
	Enricher   *enrich.Enricher
	Generator  *signal.Generator
	Engine     *trading.Engine
	Broker     broker.Broker
	Ledger     *storage.Ledger
	TradingDB  *storage.TradingDB
	SentimentDB *storage.SentimentHistoryDB
	Multipliers *feedback.MultiplierCache
	Sink       alertsink.Sink
	AlertChannel string

	// Replayer is set only in simulation mode; RunReplayed uses it in
	// place of Ingestor/Dedupe/FilterFreshness.
	Replayer Replayer

	MaxArticleAge time.Duration
	MaxFilingAge  time.Duration
	MinConfidence float64

	running int32 // 0 or 1, guards against overlapping ticks

	lastCycleAt time.Time
	cyclesRun   int
}

func New(clock Clock, cfg *config.Config) *Cycle {
	return &Cycle{
		Clock:         clock,
		MaxArticleAge: time.Duration(cfg.MaxArticleAgeMinutes) * time.Minute,
		MaxFilingAge:  time.Duration(cfg.MaxFilingAgeMinutes) * time.Minute,
		MinConfidence: cfg.MinConfidence,
	}
}

// Run blocks, ticking every interval until ctx is cancelled. A tick that is
// still running when the next one is due is skipped with a warning instead
// of overlapping.
func (c *Cycle) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

func (c *Cycle) tick(ctx context.Context) {
	if !atomic.CompareAndSwapInt32(&c.running, 0, 1) {
		log.Println("scheduler: previous cycle still running, skipping this tick")
		return
	}
	defer atomic.StoreInt32(&c.running, 0)

	if err := c.RunOnce(ctx); err != nil {
		log.Printf("scheduler: cycle failed: %v", err)
	}
	c.lastCycleAt = c.Clock.Now()
	c.cyclesRun++
}

// RunOnce executes exactly one pass of ingest -> filter -> classify ->
// enrich -> signal -> execute over whatever items the ingestor returns.
// Exposed directly so the simulation harness can drive cycles from replayed
// news items instead of the live ticker.
func (c *Cycle) RunOnce(ctx context.Context) error {
	defer c.Enricher.Prices.Clear()

	items := c.Ingestor.FetchAll(ctx)
	if c.Dedupe != nil {
		var dupes []models.NewsItem
		items, dupes = c.Dedupe.Filter(items)
		c.recordDropped(dupes, storage.RejectDuplicate)
	}
	var stale []models.NewsItem
	items, stale = ingest.FilterFreshness(items, c.Clock.Now(), c.MaxArticleAge, c.MaxFilingAge)
	c.recordDropped(stale, storage.RejectStale)

	if err := c.refreshPrices(ctx, items); err != nil {
		log.Printf("scheduler: price refresh failed: %v", err)
	}
	var rejected []ingest.Rejection
	items, rejected = c.Tradeable.Apply(items)
	for _, r := range rejected {
		_ = c.Ledger.RecordRejected(r.Item.ID, r.Ticker, storage.RejectionReason(r.Reason))
	}

	account, err := c.Broker.GetAccount(ctx)
	if err != nil {
		return fmt.Errorf("scheduler: get account: %w", err)
	}
	equity := account.Equity.InexactFloat64()

	for _, item := range items {
		c.processItem(ctx, item, equity)
	}
	return nil
}

// Replayer is the narrow capability the simulation harness needs: a source
// of news items in timestamp order, each already having advanced the
// virtual clock and mock price feed by the time it is returned.
type Replayer interface {
	Next() (models.NewsItem, bool)
}

// RunReplayed drains a replayer event-by-event instead of polling the live
// ingestor, routing each news item through the same classify/enrich/signal/
// execute pipeline as a live tick. Used by the simulate subcommand; no
// dedupe or freshness filtering applies since replayed events are already
// curated and timestamp-ordered.
func (c *Cycle) RunReplayed(ctx context.Context) error {
	for {
		item, ok := c.Replayer.Next()
		if !ok {
			return nil
		}
		account, err := c.Broker.GetAccount(ctx)
		if err != nil {
			return fmt.Errorf("scheduler: get account: %w", err)
		}
		if err := c.refreshPrices(ctx, []models.NewsItem{item}); err != nil {
			log.Printf("scheduler: price refresh failed: %v", err)
		}
		tradeable, rejected := c.Tradeable.Apply([]models.NewsItem{item})
		for _, r := range rejected {
			_ = c.Ledger.RecordRejected(r.Item.ID, r.Ticker, storage.RejectionReason(r.Reason))
		}
		if len(tradeable) == 0 {
			c.Enricher.Prices.Clear()
			continue
		}
		c.processItem(ctx, tradeable[0], account.Equity.InexactFloat64())
		c.Enricher.Prices.Clear()
		c.cyclesRun++
	}
}

// processItem classifies a NewsItem and drives each resulting ScoredItem
// (normally one, but two for a "true co-subject" multi-ticker item)
// independently through enrich -> signal -> execute.
func (c *Cycle) processItem(ctx context.Context, item models.NewsItem, equity float64) {
	scoredItems, ok := c.Classifier.Classify(ctx, item)
	if !ok {
		_ = c.Ledger.RecordRejected(item.ID, "", storage.RejectRetrospective)
		return
	}
	for _, scored := range scoredItems {
		c.processScored(ctx, item, scored, equity)
	}
}

func (c *Cycle) processScored(ctx context.Context, item models.NewsItem, scored *models.ScoredItem, equity float64) {
	if scored.RelevanceScore > 0 && scored.RelevanceScore < c.Classifier.MinRelevance {
		_ = c.Ledger.RecordRejected(item.ID, scored.PrimaryTicker, storage.RejectLowRelevance)
		return
	}

	if err := c.Enricher.Enrich(ctx, scored); err != nil {
		log.Printf("scheduler: enrich %s failed: %v", scored.PrimaryTicker, err)
		return
	}

	if c.SentimentDB != nil {
		if err := c.SentimentDB.Record(scored.PrimaryTicker, scored.Sentiment, scored.SentimentConfidence, c.Clock.Now()); err != nil {
			log.Printf("scheduler: sentiment history record for %s failed: %v", scored.PrimaryTicker, err)
		}
	}

	sig, err := c.Generator.Generate(scored, c.Clock.Now())
	if err != nil {
		log.Printf("scheduler: signal generation for %s failed: %v", scored.PrimaryTicker, err)
		return
	}

	if sig.Action == models.SignalSkip {
		_ = c.Ledger.RecordRejected(item.ID, scored.PrimaryTicker, storage.RejectConfidenceThreshold)
		return
	}

	_ = c.Ledger.RecordAccepted(*scored)

	avgVol, _ := c.avgVolume(ctx, scored.PrimaryTicker)
	if err := c.Engine.Execute(ctx, sig, equity, scored.Context.LastPrice, avgVol); err != nil {
		log.Printf("scheduler: execute signal for %s failed: %v", scored.PrimaryTicker, err)
		return
	}

	if c.Sink != nil {
		payload := alertsink.BuildPayload(c.AlertChannel, item.Title, scored, sig)
		if err := c.Sink.PostAlert(c.AlertChannel, payload); err != nil {
			log.Printf("scheduler: alert post failed: %v", err)
		}
	}
}

func (c *Cycle) recordDropped(items []models.NewsItem, reason storage.RejectionReason) {
	for _, it := range items {
		ticker := ""
		if len(it.Tickers) > 0 {
			ticker = it.Tickers[0]
		}
		_ = c.Ledger.RecordRejected(it.ID, ticker, reason)
	}
}

func (c *Cycle) avgVolume(ctx context.Context, ticker string) (float64, error) {
	bars, err := c.Broker.GetBars(ctx, ticker, 20)
	if err != nil || len(bars) == 0 {
		return 0, err
	}
	var sum float64
	for _, b := range bars {
		sum += float64(b.Volume)
	}
	return sum / float64(len(bars)), nil
}

// refreshPrices batch-fetches a quote for every ticker the cycle's items
// could resolve to. Feed adapters rarely tag tickers (RSS/Atom carries
// none), so for untagged items the classifier's candidate discovery runs
// against the text here, before classification, ensuring the price cache
// already holds whatever ticker classification later selects.
func (c *Cycle) refreshPrices(ctx context.Context, items []models.NewsItem) error {
	seen := map[string]bool{}
	var tickers []string
	add := func(t string) {
		if !seen[t] {
			seen[t] = true
			tickers = append(tickers, t)
		}
	}
	for _, it := range items {
		for _, t := range it.Tickers {
			add(t)
		}
		if len(it.Tickers) == 0 && c.Classifier != nil {
			for _, t := range c.Classifier.Candidates(it) {
				add(t)
			}
		}
	}
	if len(tickers) == 0 {
		return nil
	}
	return c.Enricher.Prices.Refresh(ctx, c.Broker, tickers)
}

// RecordOutcome implements trading.OutcomeSink: persists a closed position
// to both the append-only outcomes log and the keyword-performance
// scorecard, then invalidates the keyword's cached feedback multiplier so
// the next signal generated for it reflects the new trade.
func (c *Cycle) RecordOutcome(cp models.ClosedPosition) {
	c.Ledger.RecordOutcome(cp)
	if c.TradingDB != nil {
		if err := c.TradingDB.InsertClosedPosition(cp, c.simulationRunID()); err != nil {
			log.Printf("scheduler: persist closed position failed: %v", err)
		}
	}
	if c.Multipliers != nil && cp.KeywordTag != "" {
		if err := c.Multipliers.Refresh(cp.KeywordTag); err != nil {
			log.Printf("scheduler: feedback refresh for %s failed: %v", cp.KeywordTag, err)
		}
	}
}

func (c *Cycle) simulationRunID() string {
	type simRunIDer interface{ SimulationRunID() string }
	if b, ok := c.Broker.(simRunIDer); ok {
		return b.SimulationRunID()
	}
	return ""
}
