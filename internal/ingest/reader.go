// Package ingest feeds transactions from an input stream into the engine and
// reports per-record outcomes through logs and metrics.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/atmx/ledger-engine/internal/transaction"
)

// Required input columns. The amount column may be missing altogether when
// the input holds no deposits or withdrawals.
var required = []string{"type", "client", "tx"}

// Reader decodes transaction rows from CSV with a header line. Fields are
// trimmed of surrounding whitespace.
type Reader struct {
	csv    *csv.Reader
	index  map[string]int
	header bool
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	return &Reader{csv: cr}
}

// line returns the input line of the most recently read record.
func (r *Reader) line() int {
	line, _ := r.csv.FieldPos(0)
	return line
}

// Next returns the next transaction. It returns io.EOF at the end of input.
// Errors wrapping transaction.ErrParse or transaction.ErrInvalidTransaction
// concern only the current record, and reading may continue.
func (r *Reader) Next() (transaction.Transaction, error) {
	if !r.header {
		if err := r.readHeader(); err != nil {
			return nil, err
		}
	}

	record, err := r.csv.Read()
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, fmt.Errorf("%w: line %d: %v", transaction.ErrParse, perr.Line, perr.Err)
		}
		return nil, err
	}

	row := transaction.Row{
		Type:   r.field(record, "type"),
		Client: r.field(record, "client"),
		Tx:     r.field(record, "tx"),
		Amount: r.field(record, "amount"),
	}
	tx, err := row.Transaction()
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", r.line(), err)
	}
	return tx, nil
}

func (r *Reader) readHeader() error {
	record, err := r.csv.Read()
	if errors.Is(err, io.EOF) {
		return io.EOF
	}
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	r.index = make(map[string]int, len(record))
	for i, name := range record {
		r.index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range required {
		if _, ok := r.index[name]; !ok {
			return fmt.Errorf("read header: missing column %q", name)
		}
	}
	r.header = true
	return nil
}

func (r *Reader) field(record []string, name string) string {
	i, ok := r.index[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
