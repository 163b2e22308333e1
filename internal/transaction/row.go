package transaction

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/atmx/ledger-engine/internal/currency"
)

// Row is one raw input record before validation. Fields hold the text as
// read; an empty Amount means the column was absent.
type Row struct {
	Type   string `json:"type"`
	Client string `json:"client"`
	Tx     string `json:"tx"`
	Amount string `json:"amount,omitempty"`
}

// Transaction validates the row and builds the typed transaction.
//
// Amounts are required for deposits and withdrawals and forbidden otherwise.
// A signed amount is reported as ErrInvalidTransaction rather than ErrParse:
// the record is well formed, it just asks for a negative movement.
func (r Row) Transaction() (Transaction, error) {
	kind := Kind(r.Type)

	client, err := strconv.ParseUint(r.Client, 10, 16)
	if err != nil {
		return nil, fmt.Errorf("%w: client %q", ErrParse, r.Client)
	}
	tx, err := strconv.ParseUint(r.Tx, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: tx %q", ErrParse, r.Tx)
	}
	c, id := ClientID(client), ID(tx)

	switch kind {
	case KindDeposit, KindWithdrawal:
		if r.Amount == "" {
			return nil, fmt.Errorf("%w: %s tx %d requires an amount", ErrParse, kind, id)
		}
		amount, err := parseAmount(r.Amount)
		if err != nil {
			return nil, fmt.Errorf("%s tx %d: %w", kind, id, err)
		}
		if kind == KindDeposit {
			return Deposit{Client: c, Tx: id, Amount: amount}, nil
		}
		return Withdrawal{Client: c, Tx: id, Amount: amount}, nil

	case KindDispute, KindResolve, KindChargeback:
		if r.Amount != "" {
			return nil, fmt.Errorf("%w: %s tx %d takes no amount", ErrParse, kind, id)
		}
		switch kind {
		case KindDispute:
			return Dispute{Client: c, Tx: id}, nil
		case KindResolve:
			return Resolve{Client: c, Tx: id}, nil
		default:
			return Chargeback{Client: c, Tx: id}, nil
		}
	}

	return nil, fmt.Errorf("%w: unknown type %q", ErrParse, r.Type)
}

func parseAmount(s string) (currency.Value, error) {
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		if _, err := currency.Parse(rest); err == nil {
			return currency.Value{}, fmt.Errorf("%w: negative amount %s", ErrInvalidTransaction, s)
		}
	}
	v, err := currency.Parse(s)
	if err != nil {
		return currency.Value{}, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return v, nil
}
