package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"PyramidSentinel/internal/model"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while the refresh loop writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS quotes (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			symbol     TEXT NOT NULL,
			name       TEXT,
			price      REAL,
			prev_close REAL,
			open       REAL,
			high       REAL,
			low        REAL,
			volume     REAL,
			turnover   REAL,
			change_pct REAL,
			quoted_at  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_quotes_symbol_ts ON quotes(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS plans (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp         INTEGER NOT NULL,
			symbol            TEXT,
			current_price     REAL,
			stop_loss         REAL,
			capital           REAL,
			target_price      REAL,
			max_investment    REAL,
			max_drawdown_pct  REAL,
			risk_reward_ratio REAL,
			breakeven_price   REAL,
			max_return_pct    REAL,
			warning           TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_plans_symbol_ts ON plans(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS plan_bands (
			plan_id               INTEGER NOT NULL REFERENCES plans(id),
			band_index            INTEGER NOT NULL,
			price                 REAL,
			weight                REAL,
			allocation_ratio      REAL,
			shares                INTEGER,
			investment            REAL,
			cumulative_investment REAL,
			cumulative_shares     INTEGER,
			average_cost          REAL,
			breakeven_price       REAL,
			potential_return_pct  REAL,
			PRIMARY KEY (plan_id, band_index)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordQuote(q *model.Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var quotedAt sql.NullInt64
	if !q.QuotedAt.IsZero() {
		quotedAt = sql.NullInt64{Int64: q.QuotedAt.Unix(), Valid: true}
	}
	_, err := r.db.Exec(`INSERT INTO quotes
		(timestamp, symbol, name, price, prev_close, open, high, low, volume, turnover, change_pct, quoted_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), q.Symbol, q.Name, q.Price, q.PrevClose, q.Open,
		q.High, q.Low, q.Volume, q.Turnover, q.ChangePct, quotedAt,
	)
	return err
}

func (r *SQLiteRecorder) RecordPlan(symbol string, plan *model.Plan) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	// +Inf has no SQL representation
	var ratio sql.NullFloat64
	if !plan.Risk.Unbounded() {
		ratio = sql.NullFloat64{Float64: plan.Risk.RiskRewardRatio, Valid: true}
	}

	in, risk := plan.Input, plan.Risk
	res, err := tx.Exec(`INSERT INTO plans
		(timestamp, symbol, current_price, stop_loss, capital, target_price,
		 max_investment, max_drawdown_pct, risk_reward_ratio, breakeven_price, max_return_pct, warning)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), symbol, in.CurrentPrice, in.StopLoss, in.Capital, in.TargetPrice,
		risk.MaxInvestment, risk.MaxDrawdownPct, ratio, risk.BreakevenPrice, risk.MaxReturnPct, plan.WarningMsg,
	)
	if err != nil {
		return 0, fmt.Errorf("insert plan: %w", err)
	}
	planID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("plan id: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO plan_bands
		(plan_id, band_index, price, weight, allocation_ratio, shares, investment,
		 cumulative_investment, cumulative_shares, average_cost, breakeven_price, potential_return_pct)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare bands: %w", err)
	}
	defer stmt.Close()

	for _, b := range plan.Bands {
		if _, err := stmt.Exec(planID, b.Index, b.Price, b.Weight, b.AllocationRatio, b.Shares, b.Investment,
			b.CumulativeInvestment, b.CumulativeShares, b.AverageCost, b.BreakevenPrice, b.PotentialReturnPct); err != nil {
			return 0, fmt.Errorf("insert band %d: %w", b.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return planID, nil
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
