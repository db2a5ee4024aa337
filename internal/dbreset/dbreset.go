// Package dbreset empties the SkillTree tables between suites when the
// harness has direct access to the backend's Postgres database.
package dbreset

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/skilltree/skilltree-e2e/internal/config"
)

const existingTablesQuery = `SELECT table_name FROM information_schema.tables
WHERE table_schema = current_schema() AND table_name = ANY($1)`

// Open connects to the configured database.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("connect to %s@%s:%d/%s: %w", cfg.User, cfg.Host, cfg.Port, cfg.Name, err)
	}
	return db, nil
}

// Resetter truncates a fixed set of tables.
type Resetter struct {
	db     *sqlx.DB
	tables []string
	log    zerolog.Logger
}

// New resets cfg.Tables except those listed in cfg.Preserve.
func New(db *sqlx.DB, cfg config.DatabaseConfig, log zerolog.Logger) *Resetter {
	preserve := make(map[string]bool, len(cfg.Preserve))
	for _, t := range cfg.Preserve {
		preserve[t] = true
	}
	var tables []string
	for _, t := range cfg.Tables {
		if !preserve[t] {
			tables = append(tables, t)
		}
	}
	return &Resetter{db: db, tables: tables, log: log.With().Str("component", "dbreset").Logger()}
}

// Tables returns the tables Reset will truncate.
func (r *Resetter) Tables() []string {
	return append([]string(nil), r.tables...)
}

// Reset truncates every configured table that exists, in one
// transaction, restarting identities and cascading to dependents. It
// returns the truncated tables.
func (r *Resetter) Reset(ctx context.Context) ([]string, error) {
	if len(r.tables) == 0 {
		return nil, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reset: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existing []string
	if err := tx.SelectContext(ctx, &existing, existingTablesQuery, pq.Array(r.tables)); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	if len(existing) == 0 {
		r.log.Warn().Strs("tables", r.tables).Msg("none of the configured tables exist")
		return nil, tx.Commit()
	}
	sort.Strings(existing)

	quoted := make([]string, len(existing))
	for i, t := range existing {
		quoted[i] = pq.QuoteIdentifier(t)
	}
	stmt := "TRUNCATE TABLE " + strings.Join(quoted, ", ") + " RESTART IDENTITY CASCADE"
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return nil, fmt.Errorf("truncate: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reset: %w", err)
	}
	r.log.Info().Strs("tables", existing).Msg("database reset")
	return existing, nil
}
