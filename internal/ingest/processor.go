package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/atmx/ledger-engine/internal/account"
	"github.com/atmx/ledger-engine/internal/engine"
	"github.com/atmx/ledger-engine/internal/metrics"
	"github.com/atmx/ledger-engine/internal/transaction"
)

// Stats summarizes one Run.
type Stats struct {
	Rows        int `json:"rows"`
	Applied     int `json:"applied"`
	Ignored     int `json:"ignored"`
	Rejected    int `json:"rejected"`
	ParseErrors int `json:"parse_errors"`
}

// Processor drives an engine: every transaction goes through Apply so
// outcomes are logged and counted the same way whatever the input source.
// Processor is not safe for concurrent use.
type Processor struct {
	engine *engine.Engine

	// Strict makes Run stop at the first record that fails to parse.
	// Invalid but well formed records are counted as rejected instead.
	Strict bool
}

// NewProcessor creates a Processor over eng.
func NewProcessor(eng *engine.Engine) *Processor {
	return &Processor{engine: eng}
}

// Engine returns the underlying engine.
func (p *Processor) Engine() *engine.Engine { return p.engine }

// Apply executes one transaction and records its outcome. The returned
// error is the engine's, unchanged.
func (p *Processor) Apply(tx transaction.Transaction) (engine.Outcome, error) {
	kind := string(tx.Kind())
	start := time.Now()
	outcome, err := p.engine.Execute(tx)
	elapsed := time.Since(start)

	switch {
	case errors.Is(err, account.ErrInsufficientHeldFunds):
		metrics.ObserveTransaction(kind, metrics.OutcomeRejected, elapsed)
		metrics.InternalFaultsTotal.Inc()
		slog.Error("held balance invariant violated",
			"type", kind,
			"client", tx.ClientID(),
			"tx", tx.TxID(),
			"err", err,
		)
	case err != nil:
		metrics.ObserveTransaction(kind, metrics.OutcomeRejected, elapsed)
		slog.Warn("transaction rejected",
			"type", kind,
			"client", tx.ClientID(),
			"tx", tx.TxID(),
			"err", err,
		)
	case outcome == engine.Ignored:
		metrics.ObserveTransaction(kind, metrics.OutcomeIgnored, elapsed)
		slog.Debug("transaction ignored",
			"type", kind,
			"client", tx.ClientID(),
			"tx", tx.TxID(),
		)
	default:
		metrics.ObserveTransaction(kind, metrics.OutcomeApplied, elapsed)
		slog.Debug("transaction applied",
			"type", kind,
			"client", tx.ClientID(),
			"tx", tx.TxID(),
		)
	}

	metrics.Accounts.Set(float64(p.engine.Len()))
	if kind == string(transaction.KindChargeback) {
		metrics.LockedAccounts.Set(float64(p.engine.LockedCount()))
	}
	return outcome, err
}

// Run reads CSV transactions from r and applies them in order. Record-level
// failures are logged and counted; only read errors, a cancelled context or,
// with Strict, a parse error stop the run. Records rejected as invalid, such
// as negative amounts, never stop it.
func (p *Processor) Run(ctx context.Context, r io.Reader) (Stats, error) {
	var stats Stats
	reader := NewReader(r)

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		tx, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			switch {
			case errors.Is(err, transaction.ErrParse):
				stats.Rows++
				stats.ParseErrors++
				metrics.ParseErrorsTotal.Inc()
				if p.Strict {
					return stats, err
				}
				slog.Warn("skipping record", "err", err)
			case errors.Is(err, transaction.ErrInvalidTransaction):
				// Well formed but unacceptable, such as a negative amount.
				stats.Rows++
				stats.Rejected++
				slog.Warn("transaction rejected", "err", err)
			default:
				return stats, fmt.Errorf("read transactions: %w", err)
			}
			continue
		}

		stats.Rows++
		outcome, err := p.Apply(tx)
		switch {
		case err != nil:
			stats.Rejected++
		case outcome == engine.Ignored:
			stats.Ignored++
		default:
			stats.Applied++
		}
	}

	slog.Info("input processed",
		"rows", stats.Rows,
		"applied", stats.Applied,
		"ignored", stats.Ignored,
		"rejected", stats.Rejected,
		"parse_errors", stats.ParseErrors,
		"accounts", p.engine.Len(),
	)
	return stats, nil
}
