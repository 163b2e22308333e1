package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/subcommands"

	"github.com/atmx/ledger-engine/internal/config"
	"github.com/atmx/ledger-engine/internal/engine"
	"github.com/atmx/ledger-engine/internal/ingest"
	"github.com/atmx/ledger-engine/internal/model"
	"github.com/atmx/ledger-engine/internal/report"
)

type processCmd struct {
	cfg     *config.Config
	strict  bool
	publish bool
}

func (*processCmd) Name() string     { return "process" }
func (*processCmd) Synopsis() string { return "apply a transactions CSV and print account balances" }
func (*processCmd) Usage() string {
	return `ledger process [-strict] [-publish] <transactions.csv>

  Reads transactions in file order, applies them to client accounts, and
  writes one CSV row per account to stdout. Use - to read from stdin.
  Records that fail are logged to stderr and skipped.
`
}

func (p *processCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&p.strict, "strict", p.cfg.Strict, "Abort on the first malformed record.")
	f.BoolVar(&p.publish, "publish", false, "Also save the final balances as a report in the report store.")
}

func (p *processCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, p.Usage())
		return subcommands.ExitUsageError
	}

	var in io.Reader = os.Stdin
	if name := f.Arg(0); name != "-" {
		file, err := os.Open(name)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		defer file.Close()
		in = file
	}

	rows, err := p.run(ctx, in, os.Stdout)
	if err != nil {
		slog.Error("process failed", "err", err)
		return subcommands.ExitFailure
	}

	if p.publish {
		if err := publish(ctx, p.cfg, rows); err != nil {
			slog.Error("publish report failed", "err", err)
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}

// run processes in and writes the account report to out.
func (p *processCmd) run(ctx context.Context, in io.Reader, out io.Writer) ([]model.AccountRow, error) {
	proc := ingest.NewProcessor(engine.New())
	proc.Strict = p.strict

	if _, err := proc.Run(ctx, in); err != nil {
		return nil, err
	}

	rows, err := proc.Engine().Rows()
	if err != nil {
		return nil, err
	}
	if err := report.WriteCSV(out, rows); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	return rows, nil
}

func publish(ctx context.Context, cfg *config.Config, rows []model.AccountRow) error {
	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	r := model.NewReport(rows)
	if err := st.SaveReport(ctx, r); err != nil {
		return err
	}
	slog.Info("report published", "id", r.ID, "accounts", len(r.Rows))
	return nil
}
