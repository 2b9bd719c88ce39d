package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/rickgao/betfair-logger/internal/model"
)

// Postgres is a Store backed by a pgx pool.
type Postgres struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgres wraps an open pool. The store owns the pool and closes it.
func NewPostgres(db *pgxpool.Pool, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.Default()
	}
	return &Postgres{db: db, logger: logger}
}

// querier is the subset of pgx shared by the pool and transactions.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// insertOrSelect runs an INSERT ... ON CONFLICT DO NOTHING RETURNING id and
// falls back to selecting the existing id.
func insertOrSelect(ctx context.Context, q querier, insert string, insertArgs []any, lookup string, lookupArgs ...any) (id int64, created bool, err error) {
	err = q.QueryRow(ctx, insert, insertArgs...).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, err
	}
	if err := q.QueryRow(ctx, lookup, lookupArgs...).Scan(&id); err != nil {
		return 0, false, err
	}
	return id, false, nil
}

// SaveEvent implements Store.
func (s *Postgres) SaveEvent(ctx context.Context, e *model.Event) (bool, error) {
	id, created, err := insertOrSelect(ctx, s.db,
		`INSERT INTO event (exchange_id, name, country_code, timezone, venue, open_date)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (exchange_id) DO NOTHING
		 RETURNING id`,
		[]any{e.ExchangeID, e.Name, e.CountryCode, e.Timezone, e.Venue, e.OpenDate},
		`SELECT id FROM event WHERE exchange_id = $1`, e.ExchangeID,
	)
	if err != nil {
		return false, fmt.Errorf("save event %s: %w", e.ExchangeID, err)
	}
	e.ID = id
	return created, nil
}

// SaveMarket implements Store.
func (s *Postgres) SaveMarket(ctx context.Context, m *model.Market) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	id, created, err := insertOrSelect(ctx, tx,
		`INSERT INTO market (event_id, exchange_id, name, start_time, total_matched, notes)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (exchange_id) DO NOTHING
		 RETURNING id`,
		[]any{m.EventID, m.ExchangeID, m.Name, m.StartTime, m.TotalMatched, m.Notes},
		`SELECT id FROM market WHERE exchange_id = $1`, m.ExchangeID,
	)
	if err != nil {
		return false, fmt.Errorf("save market %s: %w", m.ExchangeID, err)
	}
	m.ID = id

	for i := range m.Runners {
		if err := saveMarketRunner(ctx, tx, m.ID, &m.Runners[i]); err != nil {
			return false, fmt.Errorf("save market %s: %w", m.ExchangeID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit market %s: %w", m.ExchangeID, err)
	}

	// Reload so the caller sees stored runners and back-references.
	stored, err := s.loadMarkets(ctx, `WHERE m.id = $1`, m.ID)
	if err != nil {
		return false, err
	}
	if len(stored) != 1 {
		return false, fmt.Errorf("reload market %s: %w", m.ExchangeID, ErrNotFound)
	}
	*m = stored[0]
	return created, nil
}

func saveMarketRunner(ctx context.Context, tx pgx.Tx, marketID int64, mr *model.MarketRunner) error {
	runnerID, _, err := insertOrSelect(ctx, tx,
		`INSERT INTO runner (exchange_id, name) VALUES ($1, $2)
		 ON CONFLICT (exchange_id) DO NOTHING
		 RETURNING id`,
		[]any{mr.SelectionID, mr.Name},
		`SELECT id FROM runner WHERE exchange_id = $1`, mr.SelectionID,
	)
	if err != nil {
		return fmt.Errorf("runner %d: %w", mr.SelectionID, err)
	}

	jockeyID, err := lookupName(ctx, tx, "jockey", mr.Jockey)
	if err != nil {
		return err
	}
	trainerID, err := lookupName(ctx, tx, "trainer", mr.Trainer)
	if err != nil {
		return err
	}

	mrID, _, err := insertOrSelect(ctx, tx,
		`INSERT INTO market_runner (market_id, runner_id, sort_priority, jockey_id, trainer_id)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (market_id, runner_id) DO NOTHING
		 RETURNING id`,
		[]any{marketID, runnerID, mr.SortPriority, jockeyID, trainerID},
		`SELECT id FROM market_runner WHERE market_id = $1 AND runner_id = $2`, marketID, runnerID,
	)
	if err != nil {
		return fmt.Errorf("market runner %d: %w", mr.SelectionID, err)
	}

	mr.ID = mrID
	mr.MarketID = marketID
	mr.RunnerID = runnerID
	return nil
}

// lookupName returns the id of a jockey or trainer row, creating it when
// needed. Empty names map to NULL.
func lookupName(ctx context.Context, tx pgx.Tx, table, name string) (*int64, error) {
	if name == "" {
		return nil, nil
	}
	// table is one of two constants, never user input.
	id, _, err := insertOrSelect(ctx, tx,
		`INSERT INTO `+table+` (name) VALUES ($1) ON CONFLICT (name) DO NOTHING RETURNING id`,
		[]any{name},
		`SELECT id FROM `+table+` WHERE name = $1`, name,
	)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", table, name, err)
	}
	return &id, nil
}

// SaveMarketBook implements Store.
func (s *Postgres) SaveMarketBook(ctx context.Context, b *model.MarketBook) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO market_book (
			market_id, ts, delayed, status, bet_delay, bsp_reconciled, complete, inplay,
			number_of_winners, number_of_runners, number_of_active_runners, last_match_time,
			total_matched, total_available, cross_matching, runners_voidable, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id`,
		b.MarketID, b.Timestamp, b.Delayed, string(b.Status), b.BetDelay, b.BSPReconciled, b.Complete, b.InPlay,
		b.NumberOfWinners, b.NumberOfRunners, b.NumberOfActiveRunners, b.LastMatchTime,
		b.TotalMatched, b.TotalAvailable, b.CrossMatching, b.RunnersVoidable, b.Version,
	).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("insert market book: %w", err)
	}

	if len(b.Runners) > 0 {
		if err := insertRunnerBooks(ctx, tx, b); err != nil {
			return err
		}
	}

	_, err = tx.Exec(ctx,
		`UPDATE market SET
			last_book_id = $2,
			last_prerace_book_id = CASE WHEN $3 THEN $2 ELSE last_prerace_book_id END,
			last_inplay_book_id = CASE WHEN $4 THEN $2 ELSE last_inplay_book_id END
		 WHERE id = $1`,
		b.MarketID, b.ID, IsPrerace(b), IsInplay(b),
	)
	if err != nil {
		return fmt.Errorf("update market back-references: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit market book: %w", err)
	}
	return nil
}

// insertRunnerBooks inserts runner rows using pgx.Batch.
func insertRunnerBooks(ctx context.Context, tx pgx.Tx, b *model.MarketBook) error {
	batch := &pgx.Batch{}
	for _, r := range b.Runners {
		batch.Queue(`
			INSERT INTO market_runner_book (
				market_book_id, market_runner_id, handicap, status, adjustment_factor,
				last_price_traded, total_matched, removal_date, back_price, lay_price, wom_back, wom_lay
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id
		`, b.ID, r.MarketRunnerID, r.Handicap, r.Status, r.AdjustmentFactor,
			r.LastPriceTraded, r.TotalMatched, r.RemovalDate, r.BackPrice, r.LayPrice, r.WOMBack, r.WOMLay)
	}

	results := tx.SendBatch(ctx, batch)
	for i := range b.Runners {
		if err := results.QueryRow().Scan(&b.Runners[i].ID); err != nil {
			results.Close()
			return fmt.Errorf("insert runner book %d: %w", b.Runners[i].SelectionID, err)
		}
		b.Runners[i].MarketBookID = b.ID
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close runner book batch: %w", err)
	}
	return nil
}

// FindMarketRunner implements Store.
func (s *Postgres) FindMarketRunner(ctx context.Context, marketID, selectionID int64) (*model.MarketRunner, error) {
	var mr model.MarketRunner
	var jockey, trainer *string
	err := s.db.QueryRow(ctx,
		`SELECT mr.id, mr.market_id, mr.runner_id, r.exchange_id, r.name, mr.sort_priority, j.name, t.name
		 FROM market_runner mr
		 JOIN runner r ON r.id = mr.runner_id
		 LEFT JOIN jockey j ON j.id = mr.jockey_id
		 LEFT JOIN trainer t ON t.id = mr.trainer_id
		 WHERE mr.market_id = $1 AND r.exchange_id = $2`,
		marketID, selectionID,
	).Scan(&mr.ID, &mr.MarketID, &mr.RunnerID, &mr.SelectionID, &mr.Name, &mr.SortPriority, &jockey, &trainer)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find market runner: %w", err)
	}
	mr.Jockey = deref(jockey)
	mr.Trainer = deref(trainer)
	return &mr, nil
}

// SaveSettledOrder implements Store.
func (s *Postgres) SaveSettledOrder(ctx context.Context, o *model.SettledOrder) (bool, error) {
	id, created, err := insertOrSelect(ctx, s.db,
		`INSERT INTO market_runner_order (
			market_id, market_runner_id, bet_id, placed_date, side, size,
			price_requested, matched_date, price_matched, profit
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (bet_id) DO NOTHING
		RETURNING id`,
		[]any{o.MarketID, o.MarketRunnerID, o.BetID, o.PlacedDate, string(o.Side), o.Size,
			o.PriceRequested, o.MatchedDate, o.PriceMatched, o.Profit},
		`SELECT id FROM market_runner_order WHERE bet_id = $1`, o.BetID,
	)
	if err != nil {
		return false, fmt.Errorf("save settled order %s: %w", o.BetID, err)
	}
	o.ID = id
	return created, nil
}

// UpdateRunnerMetadata implements Store.
func (s *Postgres) UpdateRunnerMetadata(ctx context.Context, marketID int64, runners []model.MarketRunner) (int, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	changed := 0
	for _, mr := range runners {
		if mr.Jockey == "" && mr.Trainer == "" {
			continue
		}
		jockeyID, err := lookupName(ctx, tx, "jockey", mr.Jockey)
		if err != nil {
			return 0, err
		}
		trainerID, err := lookupName(ctx, tx, "trainer", mr.Trainer)
		if err != nil {
			return 0, err
		}

		tag, err := tx.Exec(ctx,
			`UPDATE market_runner mr SET
				jockey_id = COALESCE($3, mr.jockey_id),
				trainer_id = COALESCE($4, mr.trainer_id)
			 FROM runner r
			 WHERE r.id = mr.runner_id AND mr.market_id = $1 AND r.exchange_id = $2
			   AND (mr.jockey_id IS DISTINCT FROM COALESCE($3, mr.jockey_id)
			     OR mr.trainer_id IS DISTINCT FROM COALESCE($4, mr.trainer_id))`,
			marketID, mr.SelectionID, jockeyID, trainerID,
		)
		if err != nil {
			return 0, fmt.Errorf("update runner metadata %d: %w", mr.SelectionID, err)
		}
		changed += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit runner metadata: %w", err)
	}
	return changed, nil
}

// SettledOrders implements Store.
func (s *Postgres) SettledOrders(ctx context.Context, marketID int64) ([]model.SettledOrder, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, market_id, market_runner_id, bet_id, placed_date, side, size,
		       price_requested, matched_date, price_matched, profit
		FROM market_runner_order
		WHERE market_id = $1
		ORDER BY id`, marketID)
	if err != nil {
		return nil, fmt.Errorf("query settled orders: %w", err)
	}
	defer rows.Close()

	var orders []model.SettledOrder
	for rows.Next() {
		var o model.SettledOrder
		var side string
		if err := rows.Scan(&o.ID, &o.MarketID, &o.MarketRunnerID, &o.BetID, &o.PlacedDate, &side, &o.Size,
			&o.PriceRequested, &o.MatchedDate, &o.PriceMatched, &o.Profit); err != nil {
			return nil, fmt.Errorf("scan settled order: %w", err)
		}
		o.Side = model.Side(side)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settled orders: %w", err)
	}
	return orders, nil
}

// MarketsBetween implements Store.
func (s *Postgres) MarketsBetween(ctx context.Context, from, to time.Time) ([]model.Market, error) {
	return s.loadMarkets(ctx, `WHERE m.start_time >= $1 AND m.start_time < $2`, from, to)
}

// loadMarkets selects markets matching where, with back-references and runners.
func (s *Postgres) loadMarkets(ctx context.Context, where string, args ...any) ([]model.Market, error) {
	rows, err := s.db.Query(ctx, `
		SELECT m.id, m.event_id, m.exchange_id, m.name, m.start_time, m.total_matched, m.notes,
		       lb.id, lb.ts, lb.status, lb.inplay,
		       pb.id, pb.ts, pb.status, pb.inplay,
		       ib.id, ib.ts, ib.status, ib.inplay
		FROM market m
		LEFT JOIN market_book lb ON lb.id = m.last_book_id
		LEFT JOIN market_book pb ON pb.id = m.last_prerace_book_id
		LEFT JOIN market_book ib ON ib.id = m.last_inplay_book_id
		`+where+`
		ORDER BY m.start_time, m.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query markets: %w", err)
	}
	defer rows.Close()

	var markets []model.Market
	index := make(map[int64]int)
	for rows.Next() {
		var m model.Market
		var last, prerace, inplay refColumns
		if err := rows.Scan(
			&m.ID, &m.EventID, &m.ExchangeID, &m.Name, &m.StartTime, &m.TotalMatched, &m.Notes,
			&last.id, &last.ts, &last.status, &last.inplay,
			&prerace.id, &prerace.ts, &prerace.status, &prerace.inplay,
			&inplay.id, &inplay.ts, &inplay.status, &inplay.inplay,
		); err != nil {
			return nil, fmt.Errorf("scan market: %w", err)
		}
		m.LastBook = last.ref()
		m.LastPrerace = prerace.ref()
		m.LastInplay = inplay.ref()
		index[m.ID] = len(markets)
		markets = append(markets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate markets: %w", err)
	}

	if len(markets) == 0 {
		return markets, nil
	}

	ids := make([]int64, 0, len(markets))
	for _, m := range markets {
		ids = append(ids, m.ID)
	}

	runnerRows, err := s.db.Query(ctx, `
		SELECT mr.id, mr.market_id, mr.runner_id, r.exchange_id, r.name, mr.sort_priority, j.name, t.name
		FROM market_runner mr
		JOIN runner r ON r.id = mr.runner_id
		LEFT JOIN jockey j ON j.id = mr.jockey_id
		LEFT JOIN trainer t ON t.id = mr.trainer_id
		WHERE mr.market_id = ANY($1)
		ORDER BY mr.market_id, mr.sort_priority`, ids)
	if err != nil {
		return nil, fmt.Errorf("query market runners: %w", err)
	}
	defer runnerRows.Close()

	for runnerRows.Next() {
		var mr model.MarketRunner
		var jockey, trainer *string
		if err := runnerRows.Scan(&mr.ID, &mr.MarketID, &mr.RunnerID, &mr.SelectionID, &mr.Name, &mr.SortPriority, &jockey, &trainer); err != nil {
			return nil, fmt.Errorf("scan market runner: %w", err)
		}
		mr.Jockey = deref(jockey)
		mr.Trainer = deref(trainer)
		i := index[mr.MarketID]
		markets[i].Runners = append(markets[i].Runners, mr)
	}
	if err := runnerRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate market runners: %w", err)
	}

	return markets, nil
}

// EventsBetween implements Store.
func (s *Postgres) EventsBetween(ctx context.Context, from, to time.Time) ([]model.Event, error) {
	rows, err := s.db.Query(ctx, `
		SELECT e.id, e.exchange_id, e.name, e.country_code, e.timezone, e.venue, e.open_date
		FROM event e
		WHERE EXISTS (
			SELECT 1 FROM market m
			WHERE m.event_id = e.id AND m.start_time >= $1 AND m.start_time < $2
		)
		ORDER BY e.id`, from, to)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.ExchangeID, &e.Name, &e.CountryCode, &e.Timezone, &e.Venue, &e.OpenDate); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// StartingPrices implements Store.
func (s *Postgres) StartingPrices(ctx context.Context, marketID int64) (map[int64]decimal.Decimal, error) {
	rows, err := s.db.Query(ctx, `
		SELECT mr.id, mrb.last_price_traded
		FROM market_runner mr
		JOIN market m ON m.id = mr.market_id
		LEFT JOIN market_runner_book mrb
		       ON mrb.market_book_id = m.last_prerace_book_id
		      AND mrb.market_runner_id = mr.id
		WHERE mr.market_id = $1`, marketID)
	if err != nil {
		return nil, fmt.Errorf("query starting prices: %w", err)
	}
	defer rows.Close()

	prices := make(map[int64]decimal.Decimal)
	for rows.Next() {
		var id int64
		var ltp decimal.NullDecimal
		if err := rows.Scan(&id, &ltp); err != nil {
			return nil, fmt.Errorf("scan starting price: %w", err)
		}
		prices[id] = model.StartingPrice(ltp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate starting prices: %w", err)
	}
	if len(prices) == 0 {
		return nil, ErrNotFound
	}
	return prices, nil
}

// Ping implements Store.
func (s *Postgres) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close implements Store.
func (s *Postgres) Close() {
	s.db.Close()
}

// refColumns holds the nullable columns of a joined back-reference.
type refColumns struct {
	id     *int64
	ts     *time.Time
	status *string
	inplay *bool
}

func (c refColumns) ref() *model.BookRef {
	if c.id == nil {
		return nil
	}
	ref := &model.BookRef{ID: *c.id}
	if c.ts != nil {
		ref.Timestamp = *c.ts
	}
	if c.status != nil {
		ref.Status = model.MarketStatus(*c.status)
	}
	if c.inplay != nil {
		ref.InPlay = *c.inplay
	}
	return ref
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ Store = (*Postgres)(nil)
