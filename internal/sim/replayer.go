package sim

import (
	"container/heap"
	"sync"
	"time"

	"github.com/google/uuid"

	"catalystd/internal/models"
)

// EventKind distinguishes the two replayed event shapes.
type EventKind int

const (
	EventNews EventKind = iota
	EventBar
)

// Event is one timestamped unit of replay: either a news item to feed into
// ingestion or a price bar to feed into the mock broker's price source.
type Event struct {
	At   time.Time
	Kind EventKind
	News models.NewsItem
	Bar  models.Bar
	Ticker string
}

// eventHeap orders Events by timestamp, grounded on the pack's
// container/heap priority-queue shape (push/pop by ascending key).
type eventHeap []Event

func (h eventHeap) Len() int            { return len(h) }
func (h eventHeap) Less(i, j int) bool  { return h[i].At.Before(h[j].At) }
func (h eventHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x interface{}) { *h = append(*h, x.(Event)) }
func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Replayer drains a fixed set of historical events in timestamp order,
// advancing a VirtualClock as it goes and handing each event to the caller
// via Next. RunID tags every outcome persisted during the run so live and
// simulated trades never mix in storage.
type Replayer struct {
	RunID string

	clock *VirtualClock
	queue eventHeap
	mu    sync.Mutex

	prices *priceFeed
}

// NewReplayer builds a replayer seeded with events, starting the virtual
// clock at the earliest event's timestamp (or now if events is empty).
func NewReplayer(events []Event, speed float64) *Replayer {
	start := time.Now().UTC()
	if len(events) > 0 {
		start = events[0].At
		for _, e := range events {
			if e.At.Before(start) {
				start = e.At
			}
		}
	}

	h := make(eventHeap, len(events))
	copy(h, events)
	heap.Init(&h)

	return &Replayer{
		RunID:  uuid.NewString(),
		clock:  NewVirtualClock(start, speed),
		queue:  h,
		prices: newPriceFeed(),
	}
}

// Clock returns the virtual clock driving this run, for the scheduler to
// read instead of time.Now.
func (r *Replayer) Clock() *VirtualClock { return r.clock }

// Prices returns the PriceSource fed by bar events, for wiring into the
// simulation's broker/mock.Broker.
func (r *Replayer) Prices() *priceFeed { return r.prices }

// Next pops and applies the earliest remaining event: bar events update the
// price feed directly and are skipped from the caller's perspective; news
// events are returned for the caller to feed into the pipeline. Returns
// ok=false once the queue is drained.
func (r *Replayer) Next() (models.NewsItem, bool) {
	for {
		r.mu.Lock()
		if r.queue.Len() == 0 {
			r.mu.Unlock()
			return models.NewsItem{}, false
		}
		e := heap.Pop(&r.queue).(Event)
		r.mu.Unlock()

		r.clock.JumpTo(e.At)

		switch e.Kind {
		case EventBar:
			r.prices.update(e.Ticker, e.Bar)
			continue
		default:
			return e.News, true
		}
	}
}

// priceFeed implements broker/mock.PriceSource, updated by bar events as
// the replayer advances.
type priceFeed struct {
	mu   sync.Mutex
	last map[string]models.Bar
}

func newPriceFeed() *priceFeed {
	return &priceFeed{last: make(map[string]models.Bar)}
}

func (p *priceFeed) update(ticker string, bar models.Bar) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last[ticker] = bar
}

func (p *priceFeed) LastClose(ticker string) (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.last[ticker]
	if !ok {
		return 0, false
	}
	return b.Close.InexactFloat64(), true
}

func (p *priceFeed) AvgVolume(ticker string) (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.last[ticker]
	if !ok {
		return 0, false
	}
	return float64(b.Volume), true
}
