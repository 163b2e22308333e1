package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/atmx/ledger-engine/internal/currency"
	"github.com/atmx/ledger-engine/internal/model"
)

// Schema creates the report tables. Amounts are NUMERIC(20,4): the full
// uint64 range of smallest units at four decimal places.
const Schema = `
CREATE TABLE IF NOT EXISTS account_reports (
	id           UUID PRIMARY KEY,
	generated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS account_report_rows (
	report_id UUID NOT NULL REFERENCES account_reports (id),
	client    INTEGER NOT NULL,
	available NUMERIC(20,4) NOT NULL,
	held      NUMERIC(20,4) NOT NULL,
	total     NUMERIC(20,4) NOT NULL,
	locked    BOOLEAN NOT NULL,
	PRIMARY KEY (report_id, client)
);`

// PostgresStore implements Store using PostgreSQL as the source of truth.
// All monetary values are stored as NUMERIC for exact decimal precision.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the report tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, Schema)
	return err
}

// SaveReport writes the report header and its rows in one transaction.
func (s *PostgresStore) SaveReport(ctx context.Context, r *model.Report) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO account_reports (id, generated_at) VALUES ($1, $2)`,
		r.ID, r.GeneratedAt,
	); err != nil {
		return fmt.Errorf("insert report %s: %w", r.ID, err)
	}

	batch := &pgx.Batch{}
	for _, row := range r.Rows {
		batch.Queue(
			`INSERT INTO account_report_rows (report_id, client, available, held, total, locked)
			 VALUES ($1, $2, $3::NUMERIC, $4::NUMERIC, $5::NUMERIC, $6)`,
			r.ID, int32(row.Client),
			row.Available.Decimal().String(), row.Held.Decimal().String(), row.Total.Decimal().String(),
			row.Locked,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert report %s rows: %w", r.ID, err)
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) GetReport(ctx context.Context, id string) (*model.Report, error) {
	var r model.Report
	err := s.pool.QueryRow(ctx,
		`SELECT id::TEXT, generated_at FROM account_reports WHERE id = $1`, id).
		Scan(&r.ID, &r.GeneratedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get report %s: %w", id, err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT client, available::TEXT, held::TEXT, total::TEXT, locked
		 FROM account_report_rows WHERE report_id = $1 ORDER BY client`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	r.Rows, err = scanAccountRows(rows)
	if err != nil {
		return nil, fmt.Errorf("get report %s rows: %w", id, err)
	}
	return &r, nil
}

func (s *PostgresStore) ListReports(ctx context.Context) ([]model.Report, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::TEXT, generated_at FROM account_reports ORDER BY generated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []model.Report
	for rows.Next() {
		var r model.Report
		if err := rows.Scan(&r.ID, &r.GeneratedAt); err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

func (s *PostgresStore) GetClientHistory(ctx context.Context, client uint16) ([]model.AccountRow, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT rr.client, rr.available::TEXT, rr.held::TEXT, rr.total::TEXT, rr.locked
		 FROM account_report_rows rr
		 JOIN account_reports r ON r.id = rr.report_id
		 WHERE rr.client = $1
		 ORDER BY r.generated_at`, int32(client))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAccountRows(rows)
}

// pgxRows is the subset of pgx.Rows used by the scanners.
type pgxRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanAccountRows reads NUMERIC text columns back into exact values.
func scanAccountRows(rows pgxRows) ([]model.AccountRow, error) {
	result := []model.AccountRow{}
	for rows.Next() {
		var row model.AccountRow
		var client int32
		var availableS, heldS, totalS string

		if err := rows.Scan(&client, &availableS, &heldS, &totalS, &row.Locked); err != nil {
			return nil, err
		}

		row.Client = uint16(client)
		var err error
		if row.Available, err = parseNumeric(availableS); err != nil {
			return nil, err
		}
		if row.Held, err = parseNumeric(heldS); err != nil {
			return nil, err
		}
		if row.Total, err = parseNumeric(totalS); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func parseNumeric(s string) (currency.Value, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return currency.Value{}, fmt.Errorf("numeric %q: %w", s, err)
	}
	return currency.FromDecimal(d)
}
