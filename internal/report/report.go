// Package report renders account rows as the CSV report printed at the end
// of a run.
package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/atmx/ledger-engine/internal/model"
)

// Header is the report column order.
var Header = []string{"client", "available", "held", "total", "locked"}

// WriteCSV writes the header and one line per row, in the order given.
func WriteCSV(w io.Writer, rows []model.AccountRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			strconv.FormatUint(uint64(r.Client), 10),
			r.Available.String(),
			r.Held.String(),
			r.Total.String(),
			strconv.FormatBool(r.Locked),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
