// Package transaction defines the typed transactions consumed by the ledger
// engine, the conversion from raw input rows, and the deduplicating store of
// accepted transactions.
package transaction

import (
	"errors"
	"fmt"

	"github.com/atmx/ledger-engine/internal/currency"
)

var (
	// ErrParse is returned for a raw record that does not form a valid
	// transaction. Such records never reach the engine.
	ErrParse = errors.New("transaction: parse error")

	// ErrInvalidTransaction is returned for a well-formed transaction that
	// breaks a lifecycle rule: negative amount, double dispute, or a
	// resolve/chargeback without an active dispute.
	ErrInvalidTransaction = errors.New("transaction: invalid transaction")

	// ErrDuplicateTransaction is matched by every *DuplicateError.
	ErrDuplicateTransaction = errors.New("transaction: duplicate transaction")
)

// DuplicateError reports a transaction ID that was already accepted.
type DuplicateError struct {
	ID ID
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("transaction: duplicate transaction %d", e.ID)
}

// Is makes errors.Is(err, ErrDuplicateTransaction) hold.
func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicateTransaction
}

// ClientID identifies a client account.
type ClientID uint16

// ID identifies a transaction. IDs are globally unique across clients.
type ID uint32

// Kind names the transaction variants as they appear in input.
type Kind string

const (
	KindDeposit    Kind = "deposit"
	KindWithdrawal Kind = "withdrawal"
	KindDispute    Kind = "dispute"
	KindResolve    Kind = "resolve"
	KindChargeback Kind = "chargeback"
)

// Kinds lists every variant in input order.
var Kinds = []Kind{KindDeposit, KindWithdrawal, KindDispute, KindResolve, KindChargeback}

// Transaction is a closed sum type: Deposit, Withdrawal, Dispute, Resolve or
// Chargeback. Consumers switch on the concrete type.
type Transaction interface {
	Kind() Kind
	ClientID() ClientID
	TxID() ID
	sealed()
}

// Deposit credits the client's available funds.
type Deposit struct {
	Client ClientID
	Tx     ID
	Amount currency.Value
}

// Withdrawal debits the client's available funds.
type Withdrawal struct {
	Client ClientID
	Tx     ID
	Amount currency.Value
}

// Dispute opens a claim against an earlier deposit.
type Dispute struct {
	Client ClientID
	Tx     ID
}

// Resolve closes an open dispute in the client's favour.
type Resolve struct {
	Client ClientID
	Tx     ID
}

// Chargeback closes an open dispute by reversing the deposit and freezing
// the account.
type Chargeback struct {
	Client ClientID
	Tx     ID
}

func (Deposit) Kind() Kind    { return KindDeposit }
func (Withdrawal) Kind() Kind { return KindWithdrawal }
func (Dispute) Kind() Kind    { return KindDispute }
func (Resolve) Kind() Kind    { return KindResolve }
func (Chargeback) Kind() Kind { return KindChargeback }

func (t Deposit) ClientID() ClientID    { return t.Client }
func (t Withdrawal) ClientID() ClientID { return t.Client }
func (t Dispute) ClientID() ClientID    { return t.Client }
func (t Resolve) ClientID() ClientID    { return t.Client }
func (t Chargeback) ClientID() ClientID { return t.Client }

func (t Deposit) TxID() ID    { return t.Tx }
func (t Withdrawal) TxID() ID { return t.Tx }
func (t Dispute) TxID() ID    { return t.Tx }
func (t Resolve) TxID() ID    { return t.Tx }
func (t Chargeback) TxID() ID { return t.Tx }

func (Deposit) sealed()    {}
func (Withdrawal) sealed() {}
func (Dispute) sealed()    {}
func (Resolve) sealed()    {}
func (Chargeback) sealed() {}
