package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/subcommands"

	"github.com/atmx/ledger-engine/internal/api"
	"github.com/atmx/ledger-engine/internal/config"
	"github.com/atmx/ledger-engine/internal/engine"
	"github.com/atmx/ledger-engine/internal/ingest"
)

type serveCmd struct {
	cfg  *config.Config
	port string
	seed string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the ledger over HTTP" }
func (*serveCmd) Usage() string {
	return `ledger serve [-port <port>] [-seed <transactions.csv>]

  Starts the HTTP API. Transactions are posted to /api/v1/transactions and
  account changes are broadcast on /api/v1/ws. With -seed, the given CSV is
  applied before the server starts listening.
`
}

func (s *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&s.port, "port", s.cfg.Port, "Port to listen on.")
	f.StringVar(&s.seed, "seed", "", "Transactions CSV to apply at startup.")
}

func (s *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := s.serve(ctx); err != nil {
		slog.Error("server error", "err", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (s *serveCmd) serve(ctx context.Context) error {
	st, closeStore, err := openStore(ctx, s.cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	proc := ingest.NewProcessor(engine.New())
	proc.Strict = s.cfg.Strict
	if s.seed != "" {
		file, err := os.Open(s.seed)
		if err != nil {
			return err
		}
		stats, err := proc.Run(ctx, file)
		file.Close()
		if err != nil {
			return fmt.Errorf("seed %s: %w", s.seed, err)
		}
		slog.Info("seeded ledger", "file", s.seed, "applied", stats.Applied)
	}

	// --- WebSocket hub ---
	wsHub := api.NewWSHub()
	go wsHub.Run(ctx)

	svc := api.NewService(proc, st, wsHub)

	srv := &http.Server{
		Addr:         ":" + s.port,
		Handler:      api.NewRouter(svc, wsHub),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("ledger-engine listening", "port", s.port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	// Graceful shutdown.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down ledger-engine...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("ledger-engine stopped")
	return nil
}
