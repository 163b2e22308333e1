// Package account implements the per-client balance state machine.
//
// Every operation validates all arithmetic before writing any field, so a
// failed call never leaves available and held out of step.
package account

import (
	"errors"

	"github.com/atmx/ledger-engine/internal/currency"
	"github.com/atmx/ledger-engine/internal/model"
	"github.com/atmx/ledger-engine/internal/transaction"
)

var (
	// ErrAccountLocked is returned for deposits and withdrawals on a locked account.
	ErrAccountLocked = errors.New("account: account locked")

	// ErrInsufficientFunds is returned when a withdrawal exceeds available funds.
	ErrInsufficientFunds = errors.New("account: insufficient funds")

	// ErrInsufficientHeldFunds is returned when held funds would go negative.
	// The engine never asks for this, so seeing it means its bookkeeping is wrong.
	ErrInsufficientHeldFunds = errors.New("account: insufficient held funds")
)

// Account holds one client's balances. The zero value is not usable; call New.
type Account struct {
	client    transaction.ClientID
	available currency.Value
	held      currency.Value
	locked    bool
}

// New creates an empty, unlocked account.
func New(client transaction.ClientID) *Account {
	return &Account{client: client}
}

func (a *Account) Client() transaction.ClientID { return a.client }
func (a *Account) Available() currency.Value    { return a.available }
func (a *Account) Held() currency.Value         { return a.held }
func (a *Account) IsLocked() bool               { return a.locked }

// Total returns available + held, or currency.ErrOverflow.
func (a *Account) Total() (currency.Value, error) {
	return currency.Add(a.available, a.held)
}

// Lock freezes the account. There is no unlock.
func (a *Account) Lock() {
	a.locked = true
}

// Deposit credits available funds.
func (a *Account) Deposit(amount currency.Value) error {
	if a.locked {
		return ErrAccountLocked
	}
	available, err := currency.Add(a.available, amount)
	if err != nil {
		return err
	}
	// available + held must stay representable.
	if _, ok := currency.CheckedAdd(available, a.held); !ok {
		return currency.ErrOverflow
	}
	a.available = available
	return nil
}

// Withdraw debits available funds.
func (a *Account) Withdraw(amount currency.Value) error {
	if a.locked {
		return ErrAccountLocked
	}
	available, ok := currency.CheckedSub(a.available, amount)
	if !ok {
		return ErrInsufficientFunds
	}
	a.available = available
	return nil
}

// Hold moves amount from available to held.
func (a *Account) Hold(amount currency.Value) error {
	held, ok := currency.CheckedAdd(a.held, amount)
	if !ok {
		return currency.ErrOverflow
	}
	available, ok := currency.CheckedSub(a.available, amount)
	if !ok {
		return currency.ErrOverflow
	}
	a.held, a.available = held, available
	return nil
}

// Release moves amount from held back to available.
func (a *Account) Release(amount currency.Value) error {
	held, ok := currency.CheckedSub(a.held, amount)
	if !ok {
		return ErrInsufficientHeldFunds
	}
	available, ok := currency.CheckedAdd(a.available, amount)
	if !ok {
		return currency.ErrOverflow
	}
	a.held, a.available = held, available
	return nil
}

// Chargeback removes amount from held and locks the account. It runs
// whether or not the account is already locked.
func (a *Account) Chargeback(amount currency.Value) error {
	held, ok := currency.CheckedSub(a.held, amount)
	if !ok {
		return ErrInsufficientHeldFunds
	}
	a.held = held
	a.locked = true
	return nil
}

// Row encodes the account for reporting. It only reads.
func (a *Account) Row() (model.AccountRow, error) {
	total, err := a.Total()
	if err != nil {
		return model.AccountRow{}, err
	}
	return model.AccountRow{
		Client:    uint16(a.client),
		Available: a.available,
		Held:      a.held,
		Total:     total,
		Locked:    a.locked,
	}, nil
}
