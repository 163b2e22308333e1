// Package engine applies typed transactions to client accounts in input
// order. It owns the account map and the transaction ledger for one run.
package engine

import (
	"errors"
	"fmt"
	"sort"

	"github.com/atmx/ledger-engine/internal/account"
	"github.com/atmx/ledger-engine/internal/model"
	"github.com/atmx/ledger-engine/internal/transaction"
)

// Outcome classifies a transaction that did not fail.
type Outcome int

const (
	// Applied means the transaction changed account or ledger state.
	Applied Outcome = iota
	// Ignored means a dispute, resolve or chargeback named a transaction that
	// is unknown or not a deposit. Nothing changed and it is not an error.
	Ignored
)

func (o Outcome) String() string {
	if o == Ignored {
		return "ignored"
	}
	return "applied"
}

var errIgnored = errors.New("engine: reference ignored")

// Engine holds every account and accepted transaction of one run.
//
// Engine is single-threaded: callers that share one across goroutines must
// serialize access themselves.
type Engine struct {
	accounts map[transaction.ClientID]*account.Account
	ledger   *transaction.Ledger
}

// New creates an empty engine.
func New() *Engine {
	return &Engine{
		accounts: make(map[transaction.ClientID]*account.Account),
		ledger:   transaction.NewLedger(),
	}
}

// Execute applies one transaction. On error no balance, lock or ledger
// entry changed, although a deposit or withdrawal for a new client still
// leaves the client's empty account behind.
func (e *Engine) Execute(tx transaction.Transaction) (Outcome, error) {
	var err error
	switch t := tx.(type) {
	case transaction.Deposit:
		err = e.deposit(t)
	case transaction.Withdrawal:
		err = e.withdraw(t)
	case transaction.Dispute:
		err = e.dispute(t)
	case transaction.Resolve:
		err = e.resolve(t)
	case transaction.Chargeback:
		err = e.chargeback(t)
	default:
		return Applied, fmt.Errorf("%w: unsupported transaction %T", transaction.ErrInvalidTransaction, tx)
	}
	switch {
	case errors.Is(err, errIgnored):
		return Ignored, nil
	case err != nil:
		return Applied, fmt.Errorf("%s tx %d: %w", tx.Kind(), tx.TxID(), err)
	}
	return Applied, nil
}

func (e *Engine) deposit(t transaction.Deposit) error {
	if e.ledger.Contains(t.Tx) {
		return &transaction.DuplicateError{ID: t.Tx}
	}
	if err := e.account(t.Client).Deposit(t.Amount); err != nil {
		return err
	}
	return e.ledger.Record(t)
}

func (e *Engine) withdraw(t transaction.Withdrawal) error {
	if e.ledger.Contains(t.Tx) {
		return &transaction.DuplicateError{ID: t.Tx}
	}
	if err := e.account(t.Client).Withdraw(t.Amount); err != nil {
		return err
	}
	return e.ledger.Record(t)
}

// dispute, resolve and chargeback act on the account that owns the stored
// deposit, not the client named on the request.

func (e *Engine) dispute(t transaction.Dispute) error {
	rec, ok := e.ledger.FindDisputable(t.Tx)
	if !ok {
		return errIgnored
	}
	if rec.State != transaction.Posted {
		return fmt.Errorf("%w: deposit is %s", transaction.ErrInvalidTransaction, rec.State)
	}
	if err := e.account(rec.Client).Hold(rec.Amount); err != nil {
		return err
	}
	rec.State = transaction.Disputed
	return nil
}

func (e *Engine) resolve(t transaction.Resolve) error {
	rec, ok := e.ledger.FindDisputable(t.Tx)
	if !ok {
		return errIgnored
	}
	if !rec.Disputed() {
		return fmt.Errorf("%w: deposit is %s", transaction.ErrInvalidTransaction, rec.State)
	}
	if err := e.account(rec.Client).Release(rec.Amount); err != nil {
		return err
	}
	rec.State = transaction.Posted
	return nil
}

func (e *Engine) chargeback(t transaction.Chargeback) error {
	rec, ok := e.ledger.FindDisputable(t.Tx)
	if !ok {
		return errIgnored
	}
	if !rec.Disputed() {
		return fmt.Errorf("%w: deposit is %s", transaction.ErrInvalidTransaction, rec.State)
	}
	if err := e.account(rec.Client).Chargeback(rec.Amount); err != nil {
		return err
	}
	rec.State = transaction.ChargedBack
	return nil
}

// account returns the client's account, creating it on first reference.
func (e *Engine) account(client transaction.ClientID) *account.Account {
	a, ok := e.accounts[client]
	if !ok {
		a = account.New(client)
		e.accounts[client] = a
	}
	return a
}

// Account returns a copy of the client's account.
func (e *Engine) Account(client transaction.ClientID) (account.Account, bool) {
	a, ok := e.accounts[client]
	if !ok {
		return account.Account{}, false
	}
	return *a, true
}

// Accounts returns copies of every account, ordered by client.
func (e *Engine) Accounts() []account.Account {
	out := make([]account.Account, 0, len(e.accounts))
	for _, a := range e.accounts {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Client() < out[j].Client() })
	return out
}

// Rows encodes every account, ordered by client. It fails if any account
// total overflows.
func (e *Engine) Rows() ([]model.AccountRow, error) {
	accounts := e.Accounts()
	rows := make([]model.AccountRow, 0, len(accounts))
	for i := range accounts {
		row, err := accounts[i].Row()
		if err != nil {
			return nil, fmt.Errorf("client %d: %w", accounts[i].Client(), err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Owner returns the client whose account tx acts on. Deposits and
// withdrawals act on the client they name; dispute, resolve and chargeback
// act on the owner of the stored deposit, and report false when no such
// deposit exists.
func (e *Engine) Owner(tx transaction.Transaction) (transaction.ClientID, bool) {
	switch tx.(type) {
	case transaction.Deposit, transaction.Withdrawal:
		return tx.ClientID(), true
	}
	rec, ok := e.ledger.FindDisputable(tx.TxID())
	if !ok {
		return 0, false
	}
	return rec.Client, true
}

// LockedCount returns the number of locked accounts.
func (e *Engine) LockedCount() int {
	n := 0
	for _, a := range e.accounts {
		if a.IsLocked() {
			n++
		}
	}
	return n
}

// Len returns the number of accounts.
func (e *Engine) Len() int { return len(e.accounts) }
