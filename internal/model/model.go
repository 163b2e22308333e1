// Package model defines the report types shared by the report writer, the
// report stores and the HTTP API.
// All monetary values use currency.Value, never float64.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/atmx/ledger-engine/internal/currency"
)

// AccountRow is the serialized form of one client account.
// Column order: {client, available, held, total, locked}
type AccountRow struct {
	Client    uint16         `json:"client" db:"client"`
	Available currency.Value `json:"available" db:"available"`
	Held      currency.Value `json:"held" db:"held"`
	Total     currency.Value `json:"total" db:"total"` // available + held
	Locked    bool           `json:"locked" db:"locked"`
}

// Report is an immutable snapshot of every account at one point of a run.
// Once created, reports are never modified.
type Report struct {
	ID          string       `json:"id" db:"id"`
	GeneratedAt time.Time    `json:"generated_at" db:"generated_at"`
	Rows        []AccountRow `json:"rows"`
}

// NewReport stamps rows with a fresh ID and the current time.
func NewReport(rows []AccountRow) *Report {
	if rows == nil {
		rows = []AccountRow{}
	}
	return &Report{
		ID:          uuid.New().String(),
		GeneratedAt: time.Now().UTC(),
		Rows:        rows,
	}
}
