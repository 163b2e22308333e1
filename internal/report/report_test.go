package report

import (
	"bytes"
	"testing"

	"github.com/atmx/ledger-engine/internal/currency"
	"github.com/atmx/ledger-engine/internal/model"
)

func TestWriteCSV(t *testing.T) {
	rows := []model.AccountRow{
		{Client: 1, Available: currency.MustParse("1.5"), Held: currency.Zero, Total: currency.MustParse("1.5")},
		{Client: 2, Available: currency.Zero, Held: currency.Zero, Total: currency.Zero, Locked: true},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		t.Fatalf("write: %v", err)
	}

	want := "client,available,held,total,locked\n" +
		"1,1.5000,0.0000,1.5000,false\n" +
		"2,0.0000,0.0000,0.0000,true\n"
	if buf.String() != want {
		t.Errorf("unexpected report:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.String() != "client,available,held,total,locked\n" {
		t.Errorf("expected header only, got %q", buf.String())
	}
}
