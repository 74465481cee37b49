package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"catalystd/internal/models"
)

// TradingDB wraps trading.db (closed positions and keyword performance;
// orders and open positions are not stored here) via the pure-Go
// modernc.org/sqlite driver, which needs no
// cgo toolchain to build.
type TradingDB struct {
	db *sql.DB
}

func OpenTradingDB(path string) (*TradingDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open trading.db: %w", err)
	}
	t := &TradingDB{db: db}
	if err := t.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return t, nil
}

func (t *TradingDB) Close() error { return t.db.Close() }

func (t *TradingDB) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS closed_positions (
			ticker TEXT NOT NULL,
			quantity REAL NOT NULL,
			entry_price REAL NOT NULL,
			exit_price REAL NOT NULL,
			realized_pnl REAL NOT NULL,
			realized_pct REAL NOT NULL,
			exit_reason TEXT NOT NULL,
			signal_id TEXT,
			keyword_tag TEXT,
			opened_at TIMESTAMP NOT NULL,
			closed_at TIMESTAMP NOT NULL,
			simulation_run_id TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_closed_positions_keyword ON closed_positions(keyword_tag, closed_at)`,
		`CREATE TABLE IF NOT EXISTS keyword_performance (
			keyword_tag TEXT PRIMARY KEY,
			wins INTEGER NOT NULL,
			losses INTEGER NOT NULL,
			neutrals INTEGER NOT NULL,
			avg_return REAL NOT NULL,
			multiplier REAL NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
	}
	for _, s := range stmts {
		if _, err := t.db.Exec(s); err != nil {
			return fmt.Errorf("storage: migrate trading.db: %w", err)
		}
	}
	return nil
}

// InsertClosedPosition persists a ClosedPosition; simulationRunID is empty
// outside simulation runs.
func (t *TradingDB) InsertClosedPosition(cp models.ClosedPosition, simulationRunID string) error {
	_, err := t.db.Exec(
		`INSERT INTO closed_positions
			(ticker, quantity, entry_price, exit_price, realized_pnl, realized_pct,
			 exit_reason, signal_id, keyword_tag, opened_at, closed_at, simulation_run_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cp.Ticker, cp.Quantity, cp.EntryPrice, cp.ExitPrice, cp.RealizedPnL, cp.RealizedPct,
		string(cp.ExitReason), cp.SignalID, cp.KeywordTag, cp.OpenedAt, cp.ClosedAt, simulationRunID,
	)
	return err
}

// OutcomesSince implements feedback.OutcomeReader.
func (t *TradingDB) OutcomesSince(keywordTag string, since time.Time) ([]models.TradeOutcome, error) {
	rows, err := t.db.Query(
		`SELECT ticker, realized_pct, closed_at FROM closed_positions
		 WHERE keyword_tag = ? AND closed_at >= ? AND simulation_run_id = ''
		 ORDER BY closed_at ASC`,
		keywordTag, since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TradeOutcome
	for rows.Next() {
		var ticker string
		var pct float64
		var closedAt time.Time
		if err := rows.Scan(&ticker, &pct, &closedAt); err != nil {
			return nil, err
		}
		out = append(out, models.TradeOutcome{
			KeywordTag:  keywordTag,
			Ticker:      ticker,
			RealizedPct: pct,
			Win:         pct > 0,
			ClosedAt:    closedAt,
		})
	}
	return out, rows.Err()
}

// ClosedPositionsSince returns every live (non-simulation) closed position
// since the given time, ordered oldest first, for end-of-day reporting.
func (t *TradingDB) ClosedPositionsSince(since time.Time) ([]models.ClosedPosition, error) {
	rows, err := t.db.Query(
		`SELECT ticker, quantity, entry_price, exit_price, realized_pnl, realized_pct,
			exit_reason, signal_id, keyword_tag, opened_at, closed_at
		 FROM closed_positions
		 WHERE closed_at >= ? AND simulation_run_id = ''
		 ORDER BY closed_at ASC`,
		since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ClosedPosition
	for rows.Next() {
		var cp models.ClosedPosition
		var exitReason string
		if err := rows.Scan(&cp.Ticker, &cp.Quantity, &cp.EntryPrice, &cp.ExitPrice, &cp.RealizedPnL,
			&cp.RealizedPct, &exitReason, &cp.SignalID, &cp.KeywordTag, &cp.OpenedAt, &cp.ClosedAt); err != nil {
			return nil, err
		}
		cp.ExitReason = models.ExitReason(exitReason)
		out = append(out, cp)
	}
	return out, rows.Err()
}

// ClosedPositionsForRun returns every closed position tagged with the given
// simulation run ID, ordered oldest first, for simulation summaries.
func (t *TradingDB) ClosedPositionsForRun(runID string) ([]models.ClosedPosition, error) {
	rows, err := t.db.Query(
		`SELECT ticker, quantity, entry_price, exit_price, realized_pnl, realized_pct,
			exit_reason, signal_id, keyword_tag, opened_at, closed_at
		 FROM closed_positions
		 WHERE simulation_run_id = ?
		 ORDER BY closed_at ASC`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ClosedPosition
	for rows.Next() {
		var cp models.ClosedPosition
		var exitReason string
		if err := rows.Scan(&cp.Ticker, &cp.Quantity, &cp.EntryPrice, &cp.ExitPrice, &cp.RealizedPnL,
			&cp.RealizedPct, &exitReason, &cp.SignalID, &cp.KeywordTag, &cp.OpenedAt, &cp.ClosedAt); err != nil {
			return nil, err
		}
		cp.ExitReason = models.ExitReason(exitReason)
		out = append(out, cp)
	}
	return out, rows.Err()
}

// UpsertKeywordPerformance writes the latest scorecard snapshot, computed
// by internal/feedback and persisted here for inspection/reporting.
func (t *TradingDB) UpsertKeywordPerformance(kp models.KeywordPerformance) error {
	_, err := t.db.Exec(
		`INSERT INTO keyword_performance (keyword_tag, wins, losses, neutrals, avg_return, multiplier, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(keyword_tag) DO UPDATE SET
			wins=excluded.wins, losses=excluded.losses, neutrals=excluded.neutrals,
			avg_return=excluded.avg_return, multiplier=excluded.multiplier, updated_at=excluded.updated_at`,
		kp.KeywordTag, kp.Wins, kp.Losses, kp.Neutrals, kp.AvgReturn, kp.Multiplier, kp.UpdatedAt,
	)
	return err
}

// SentimentHistoryDB wraps sentiment_history.db (30-day time series
// sentiment per ticker).
type SentimentHistoryDB struct {
	db *sql.DB
}

func OpenSentimentHistoryDB(path string) (*SentimentHistoryDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open sentiment_history.db: %w", err)
	}
	s := &SentimentHistoryDB{db: db}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS sentiment_history (
		ticker TEXT NOT NULL,
		sentiment REAL NOT NULL,
		confidence REAL NOT NULL,
		recorded_at TIMESTAMP NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migrate sentiment_history.db: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_sentiment_history_ticker ON sentiment_history(ticker, recorded_at)`); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SentimentHistoryDB) Close() error { return s.db.Close() }

func (s *SentimentHistoryDB) Record(ticker string, sentiment, confidence float64, at time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO sentiment_history (ticker, sentiment, confidence, recorded_at) VALUES (?, ?, ?, ?)`,
		ticker, sentiment, confidence, at,
	)
	return err
}

// Prune deletes records older than the 30-day retention window.
func (s *SentimentHistoryDB) Prune(before time.Time) error {
	_, err := s.db.Exec(`DELETE FROM sentiment_history WHERE recorded_at < ?`, before)
	return err
}
