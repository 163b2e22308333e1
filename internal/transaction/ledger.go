package transaction

import "github.com/atmx/ledger-engine/internal/currency"

// DepositState is the dispute lifecycle position of a stored deposit.
type DepositState int

const (
	// Posted is the initial state, and the state after a resolve.
	Posted DepositState = iota
	// Disputed means the deposit amount is held pending resolve or chargeback.
	Disputed
	// ChargedBack is terminal. The owning account is locked.
	ChargedBack
)

func (s DepositState) String() string {
	switch s {
	case Posted:
		return "posted"
	case Disputed:
		return "disputed"
	case ChargedBack:
		return "chargedback"
	}
	return "unknown"
}

// DepositRecord is the mutable ledger entry for an accepted deposit. The
// client and amount are fixed at acceptance; only the state moves.
type DepositRecord struct {
	Client ClientID
	Tx     ID
	Amount currency.Value
	State  DepositState
}

// Disputed reports whether the deposit has an open dispute.
func (r *DepositRecord) Disputed() bool { return r.State == Disputed }

// Ledger is the append-only store of accepted transactions, keyed by ID.
// Deposits are kept as *DepositRecord so disputes can update them in place;
// every other kind is kept as accepted and never changes.
//
// Ledger is not safe for concurrent use.
type Ledger struct {
	entries map[ID]any
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[ID]any)}
}

// Record stores tx. It returns a *DuplicateError if tx's ID was already
// accepted, leaving the existing entry untouched.
func (l *Ledger) Record(tx Transaction) error {
	id := tx.TxID()
	if _, ok := l.entries[id]; ok {
		return &DuplicateError{ID: id}
	}
	if d, ok := tx.(Deposit); ok {
		l.entries[id] = &DepositRecord{Client: d.Client, Tx: d.Tx, Amount: d.Amount}
		return nil
	}
	l.entries[id] = tx
	return nil
}

// Contains reports whether id was accepted.
func (l *Ledger) Contains(id ID) bool {
	_, ok := l.entries[id]
	return ok
}

// FindDisputable returns the deposit stored under id for mutation. It
// returns false for unknown IDs and for non-deposit entries; neither case
// is an error.
func (l *Ledger) FindDisputable(id ID) (*DepositRecord, bool) {
	rec, ok := l.entries[id].(*DepositRecord)
	return rec, ok
}

// Len returns the number of accepted transactions.
func (l *Ledger) Len() int { return len(l.entries) }
