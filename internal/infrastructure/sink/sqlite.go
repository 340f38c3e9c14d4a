package sink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/pricelens/backend/internal/domain"
)

// timeLayout has a fixed width so stored times sort as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		run_id          TEXT PRIMARY KEY,
		generated_at    TEXT NOT NULL,
		retailers       TEXT NOT NULL,
		dropped_records INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS match_groups (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id          TEXT NOT NULL REFERENCES runs(run_id),
		category        TEXT NOT NULL,
		tier            TEXT NOT NULL,
		basis           TEXT NOT NULL,
		normalized_code TEXT,
		confidence      REAL NOT NULL,
		best_price      REAL,
		lowest_retailer TEXT,
		product_url     TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS listings (
		group_id        INTEGER NOT NULL REFERENCES match_groups(id),
		retailer        TEXT NOT NULL,
		item_name       TEXT NOT NULL,
		normalized_code TEXT,
		price           REAL,
		product_url     TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS skipped_categories (
		run_id    TEXT NOT NULL REFERENCES runs(run_id),
		category  TEXT NOT NULL,
		retailers TEXT NOT NULL,
		reason    TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_match_groups_code ON match_groups(category, normalized_code)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_group ON listings(group_id)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_code ON listings(normalized_code)`,
}

// PricePoint is the best price of one product in one past run
type PricePoint struct {
	RunID          string          `json:"runId"`
	GeneratedAt    time.Time       `json:"generatedAt"`
	Tier           domain.Tier     `json:"tier"`
	BestPrice      *float64        `json:"bestPrice,omitempty"`
	LowestRetailer domain.Retailer `json:"lowestRetailer,omitempty"`
}

// SQLiteStore keeps the groups of every run for price tracking
type SQLiteStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// OpenSQLiteStore opens (or creates) the history database at path
func OpenSQLiteStore(ctx context.Context, path string, logger zerolog.Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	// a single connection serializes writers
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate history: %w", err)
		}
	}

	return &SQLiteStore{db: db, logger: logger.With().Str("sink", "sqlite").Logger()}, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Write implements domain.ResultSink. A run that is already stored is left untouched.
func (s *SQLiteStore) Write(ctx context.Context, report *domain.Report) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO runs (run_id, generated_at, retailers, dropped_records) VALUES (?, ?, ?, ?)`,
		report.RunID, report.GeneratedAt.UTC().Format(timeLayout), joinRetailers(report.Retailers), report.DroppedRecords)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		s.logger.Debug().Str("run_id", report.RunID).Msg("run already stored")
		return tx.Rollback()
	}

	groupStmt, err := tx.PrepareContext(ctx, `INSERT INTO match_groups
		(run_id, category, tier, basis, normalized_code, confidence, best_price, lowest_retailer, product_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer groupStmt.Close()

	listingStmt, err := tx.PrepareContext(ctx, `INSERT INTO listings
		(group_id, retailer, item_name, normalized_code, price, product_url) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer listingStmt.Close()

	groups := 0
	for _, c := range report.Categories {
		for _, tier := range domain.Tiers {
			for _, g := range c.Groups(tier) {
				res, err := groupStmt.ExecContext(ctx, report.RunID, c.Category, string(g.Tier), string(g.Basis),
					nullString(g.NormalizedCode), g.Confidence, nullFloat(g.BestPrice),
					nullString(string(g.LowestRetailer)), nullString(g.ProductURL()))
				if err != nil {
					return fmt.Errorf("insert group: %w", err)
				}
				id, err := res.LastInsertId()
				if err != nil {
					return err
				}
				for _, slot := range g.Slots {
					if slot.Record == nil {
						continue
					}
					r := slot.Record
					if _, err := listingStmt.ExecContext(ctx, id, string(slot.Retailer), r.ItemName,
						nullString(r.NormalizedCode), nullFloat(r.NewPrice), nullString(r.ProductURL)); err != nil {
						return fmt.Errorf("insert listing: %w", err)
					}
				}
				groups++
			}
		}
	}

	for _, sk := range report.Skipped {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO skipped_categories (run_id, category, retailers, reason) VALUES (?, ?, ?, ?)`,
			report.RunID, sk.Category, joinRetailers(sk.Retailers), sk.Reason); err != nil {
			return fmt.Errorf("insert skipped category: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Info().Str("run_id", report.RunID).Int("groups", groups).Msg("run stored")
	return nil
}

// PriceHistory returns the best price of a product code in a category across
// stored runs, oldest first. A group matches when its own code or the code of
// any of its listings equals code, so fuzzy pairs with differing codes are found
// under either.
func (s *SQLiteStore) PriceHistory(ctx context.Context, category, code string) ([]PricePoint, error) {
	code = strings.ToLower(code)
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.run_id, r.generated_at, g.tier, g.best_price, g.lowest_retailer
		FROM match_groups g JOIN runs r ON r.run_id = g.run_id
		WHERE g.category = ?
		  AND (g.normalized_code = ?
		       OR g.id IN (SELECT group_id FROM listings WHERE normalized_code = ?))
		ORDER BY r.generated_at, g.id`, category, code, code)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var points []PricePoint
	for rows.Next() {
		var (
			p         PricePoint
			generated string
			tier      string
			best      sql.NullFloat64
			lowest    sql.NullString
		)
		if err := rows.Scan(&p.RunID, &generated, &tier, &best, &lowest); err != nil {
			return nil, err
		}
		p.GeneratedAt, err = time.Parse(timeLayout, generated)
		if err != nil {
			return nil, fmt.Errorf("parse run time: %w", err)
		}
		p.Tier = domain.Tier(tier)
		if best.Valid {
			p.BestPrice = domain.Price(best.Float64)
		}
		p.LowestRetailer = domain.Retailer(lowest.String)
		points = append(points, p)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return points, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func joinRetailers(retailers []domain.Retailer) string {
	names := make([]string, len(retailers))
	for i, r := range retailers {
		names[i] = string(r)
	}
	return strings.Join(names, ",")
}
