package weekly

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"gamestock/internal/database"
)

// timestampFormat is how row timestamps are stored. UTC RFC3339 strings sort
// lexicographically in chronological order, which the latest-per-symbol
// queries rely on.
const timestampFormat = time.RFC3339

// Repository provides the weekly fact store. Two write paths coexist on
// purpose and must not be unified:
//
//   - BulkInsertDedup: the scheduled batch path. A fact whose key already
//     exists is skipped, making repeated automation triggers within the same
//     week idempotent no-ops.
//   - UpsertBySymbol: the manual recompute path. An existing row is
//     overwritten in place because a manual re-trigger signals explicit
//     intent to refresh.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a weekly fact repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("component", "fact_repository").Logger(),
	}
}

const factColumns = `id, symbol, company_name, category, week, week_year, week_number,
	market_cap, this_week_close, prior_week_close, change_rate, week_high, week_low,
	error, this_friday_date, prior_friday_date, data_source, created_at, updated_at`

// UpsertBySymbol inserts the fact or overwrites the value fields of the
// existing row at (symbol, category, week), bumping updated_at. Returns the
// stored row.
func (r *Repository) UpsertBySymbol(fact *WeeklyFact) (*WeeklyFact, error) {
	now := time.Now().UTC().Format(timestampFormat)

	_, err := r.db.Exec(`
		INSERT INTO weekly_stock_prices (
			symbol, company_name, category, week, week_year, week_number,
			market_cap, this_week_close, prior_week_close, change_rate,
			week_high, week_low, error, this_friday_date, prior_friday_date,
			data_source, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol, category, week) DO UPDATE SET
			company_name      = excluded.company_name,
			market_cap        = excluded.market_cap,
			this_week_close   = excluded.this_week_close,
			prior_week_close  = excluded.prior_week_close,
			change_rate       = excluded.change_rate,
			week_high         = excluded.week_high,
			week_low          = excluded.week_low,
			error             = excluded.error,
			this_friday_date  = excluded.this_friday_date,
			prior_friday_date = excluded.prior_friday_date,
			data_source       = excluded.data_source,
			updated_at        = excluded.updated_at`,
		fact.Symbol, fact.CompanyName, fact.Category, fact.Week, fact.WeekYear,
		fact.WeekNumber, fact.MarketCap, fact.ThisWeekClose, fact.PriorWeekClose,
		fact.ChangeRate, fact.WeekHigh, fact.WeekLow, nullableString(fact.Error),
		fact.ThisFridayDate, fact.PriorFridayDate, fact.DataSource, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert fact for %s/%s: %w", fact.Symbol, fact.Week, err)
	}

	return r.getByKey(fact.Symbol, fact.Category, fact.Week)
}

// BulkInsertDedup writes a batch of facts with skip-on-duplicate semantics.
// Facts carrying an entity-level error are inserted too (they are the durable
// record of the failure) but counted under errors rather than updated. The
// duplicate-key outcome relies on the store's uniqueness constraint, so two
// concurrent runs for the same week cannot produce duplicate rows: the run
// that commits first wins the insert, the other sees its rows as duplicates
// and counts them skipped.
//
// The whole batch runs in one transaction: a run's facts land together or not
// at all. A non-nil error return means the store itself was unusable; per-fact
// failures only increment the errors count.
func (r *Repository) BulkInsertDedup(facts []*WeeklyFact) (int, int, int, error) {
	if err := r.db.Ping(); err != nil {
		return 0, 0, 0, fmt.Errorf("fact store unreachable: %w", err)
	}

	now := time.Now().UTC().Format(timestampFormat)

	var updated, skipped, errors int
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		for _, fact := range facts {
			res, execErr := tx.Exec(`
				INSERT OR IGNORE INTO weekly_stock_prices (
					symbol, company_name, category, week, week_year, week_number,
					market_cap, this_week_close, prior_week_close, change_rate,
					week_high, week_low, error, this_friday_date, prior_friday_date,
					data_source, created_at, updated_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				fact.Symbol, fact.CompanyName, fact.Category, fact.Week, fact.WeekYear,
				fact.WeekNumber, fact.MarketCap, fact.ThisWeekClose, fact.PriorWeekClose,
				fact.ChangeRate, fact.WeekHigh, fact.WeekLow, nullableString(fact.Error),
				fact.ThisFridayDate, fact.PriorFridayDate, fact.DataSource, now, now,
			)
			if execErr != nil {
				r.log.Error().Err(execErr).
					Str("symbol", fact.Symbol).
					Str("week", fact.Week).
					Msg("Failed to insert weekly fact")
				errors++
				continue
			}

			if fact.Failed() {
				errors++
				continue
			}

			affected, raErr := res.RowsAffected()
			if raErr != nil {
				errors++
				continue
			}
			if affected == 0 {
				r.log.Debug().
					Str("symbol", fact.Symbol).
					Str("week", fact.Week).
					Msg("Duplicate fact skipped")
				skipped++
			} else {
				updated++
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, 0, fmt.Errorf("fact store write failed: %w", err)
	}

	return updated, skipped, errors, nil
}

// LatestBySymbol returns the most recently created fact for a symbol.
// Returns ErrNotFound when the symbol has no facts at all.
func (r *Repository) LatestBySymbol(symbol string) (*WeeklyFact, error) {
	row := r.db.QueryRow(`
		SELECT `+factColumns+`
		FROM weekly_stock_prices
		WHERE symbol = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, symbol)

	fact, err := scanFact(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("symbol %q: %w", symbol, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest fact for %s: %w", symbol, err)
	}
	return fact, nil
}

// AllLatest returns the latest fact per symbol, ordered by symbol. When a
// symbol has snapshots across several weeks, only the most recently created
// row is returned.
func (r *Repository) AllLatest() ([]*WeeklyFact, error) {
	rows, err := r.db.Query(`
		SELECT ` + factColumns + `
		FROM weekly_stock_prices
		WHERE id IN (
			SELECT id FROM weekly_stock_prices p
			WHERE NOT EXISTS (
				SELECT 1 FROM weekly_stock_prices newer
				WHERE newer.symbol = p.symbol
				  AND (newer.created_at > p.created_at
				       OR (newer.created_at = p.created_at AND newer.id > p.id))
			)
		)
		ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest facts: %w", err)
	}
	defer rows.Close()

	var facts []*WeeklyFact
	for rows.Next() {
		fact, err := scanFact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fact row: %w", err)
		}
		facts = append(facts, fact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fact rows: %w", err)
	}

	return facts, nil
}

// Top directions.
const (
	DirectionGainers = "gainers"
	DirectionLosers  = "losers"
)

// TopByChangeRate ranks the latest-per-symbol set by change rate. Gainers are
// facts with a positive rate sorted descending; losers negative, ascending.
// Null change rates are excluded. The ranking sorts the latest-per-symbol set
// in memory rather than running a top-k over all history, so superseded
// snapshots never leak into the ranking.
func (r *Repository) TopByChangeRate(direction string, limit int) ([]*WeeklyFact, error) {
	latest, err := r.AllLatest()
	if err != nil {
		return nil, err
	}

	var ranked []*WeeklyFact
	for _, f := range latest {
		if f.ChangeRate == nil {
			continue
		}
		switch direction {
		case DirectionGainers:
			if *f.ChangeRate > 0 {
				ranked = append(ranked, f)
			}
		case DirectionLosers:
			if *f.ChangeRate < 0 {
				ranked = append(ranked, f)
			}
		default:
			return nil, fmt.Errorf("unknown direction %q", direction)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if direction == DirectionGainers {
			return *ranked[i].ChangeRate > *ranked[j].ChangeRate
		}
		return *ranked[i].ChangeRate < *ranked[j].ChangeRate
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// MarketStatistics aggregates the latest-per-symbol set. Null change rates
// are excluded from the rate statistics but still count toward the company
// total; null market caps contribute nothing to the sum.
func (r *Repository) MarketStatistics() (*MarketStats, error) {
	latest, err := r.AllLatest()
	if err != nil {
		return nil, err
	}

	stats := &MarketStats{TotalCompanies: len(latest)}
	if len(latest) == 0 {
		return stats, nil
	}

	var rates []float64
	for _, f := range latest {
		if f.MarketCap != nil {
			stats.TotalMarketCap += *f.MarketCap
		}
		if f.ChangeRate == nil {
			continue
		}
		rate := *f.ChangeRate
		rates = append(rates, rate)
		switch {
		case rate > 0:
			stats.PositiveChange++
		case rate < 0:
			stats.NegativeChange++
		default:
			stats.Unchanged++
		}
	}

	if len(rates) > 0 {
		sum := 0.0
		stats.MaxChangeRate = rates[0]
		stats.MinChangeRate = rates[0]
		for _, rate := range rates {
			sum += rate
			if rate > stats.MaxChangeRate {
				stats.MaxChangeRate = rate
			}
			if rate < stats.MinChangeRate {
				stats.MinChangeRate = rate
			}
		}
		stats.AverageChangeRate = round2(sum / float64(len(rates)))
	}

	return stats, nil
}

// CountTotal returns the total number of fact rows, all weeks included.
func (r *Repository) CountTotal() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM weekly_stock_prices`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count facts: %w", err)
	}
	return count, nil
}

func (r *Repository) getByKey(symbol, category, week string) (*WeeklyFact, error) {
	row := r.db.QueryRow(`
		SELECT `+factColumns+`
		FROM weekly_stock_prices
		WHERE symbol = ? AND category = ? AND week = ?`, symbol, category, week)

	fact, err := scanFact(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("fact %s/%s/%s: %w", symbol, category, week, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query fact %s/%s/%s: %w", symbol, category, week, err)
	}
	return fact, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFact(row rowScanner) (*WeeklyFact, error) {
	var fact WeeklyFact
	var errMsg, thisFriday, priorFriday, dataSource sql.NullString

	err := row.Scan(
		&fact.ID, &fact.Symbol, &fact.CompanyName, &fact.Category, &fact.Week,
		&fact.WeekYear, &fact.WeekNumber, &fact.MarketCap, &fact.ThisWeekClose,
		&fact.PriorWeekClose, &fact.ChangeRate, &fact.WeekHigh, &fact.WeekLow,
		&errMsg, &thisFriday, &priorFriday, &dataSource,
		&fact.CreatedAt, &fact.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	fact.Error = errMsg.String
	fact.ThisFridayDate = thisFriday.String
	fact.PriorFridayDate = priorFriday.String
	fact.DataSource = dataSource.String
	return &fact, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
