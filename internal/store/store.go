// Package store defines where account reports are kept once a run emits
// them. Implementations include PostgreSQL (source of truth), Redis
// (read-through cache), and in-memory (for testing and single runs).
//
// Stores only receive finished reports; an engine never loads state back.
package store

import (
	"context"
	"errors"

	"github.com/atmx/ledger-engine/internal/model"
)

// ErrNotFound is returned when a report does not exist.
var ErrNotFound = errors.New("store: report not found")

// Store is the report persistence interface.
type Store interface {
	// SaveReport persists a report. Reports are immutable; saving an
	// existing ID fails.
	SaveReport(ctx context.Context, report *model.Report) error

	// GetReport retrieves a report with all of its rows.
	GetReport(ctx context.Context, id string) (*model.Report, error)

	// ListReports returns every report, newest first, without rows.
	ListReports(ctx context.Context) ([]model.Report, error)

	// GetClientHistory returns the client's row from every report that
	// contains it, oldest first.
	GetClientHistory(ctx context.Context, client uint16) ([]model.AccountRow, error)
}
