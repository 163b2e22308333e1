// Package api provides the HTTP handlers for submitting transactions,
// querying client accounts, and snapshotting account reports.
//
// Amounts cross the wire as decimal strings, never float64.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/atmx/ledger-engine/internal/account"
	"github.com/atmx/ledger-engine/internal/currency"
	"github.com/atmx/ledger-engine/internal/engine"
	"github.com/atmx/ledger-engine/internal/ingest"
	"github.com/atmx/ledger-engine/internal/metrics"
	"github.com/atmx/ledger-engine/internal/model"
	"github.com/atmx/ledger-engine/internal/store"
	"github.com/atmx/ledger-engine/internal/transaction"
)

// Service exposes one engine over HTTP. The engine is single-threaded, so
// every handler touching it holds mu.
type Service struct {
	proc  *ingest.Processor
	store store.Store
	mu    sync.Mutex
	wsHub *WSHub // optional WebSocket hub for account broadcasts
}

// NewService creates a new ledger service.
// Pass nil for hub if WebSocket broadcasting is not needed.
func NewService(proc *ingest.Processor, st store.Store, hub *WSHub) *Service {
	return &Service{
		proc:  proc,
		store: st,
		wsHub: hub,
	}
}

// --- Request/Response types ---

// TransactionRequest is the JSON body for POST /transactions.
type TransactionRequest struct {
	Type   string           `json:"type"` // deposit, withdrawal, dispute, resolve, chargeback
	Client uint16           `json:"client"`
	Tx     uint32           `json:"tx"`
	Amount *decimal.Decimal `json:"amount,omitempty"` // deposits and withdrawals only
}

// TransactionResponse is the JSON body returned from POST /transactions.
type TransactionResponse struct {
	Outcome string            `json:"outcome"` // applied or ignored
	Account *model.AccountRow `json:"account,omitempty"`
}

// row converts the request into the same textual form the CSV reader
// produces, so both inputs share one set of validation rules.
func (req TransactionRequest) row() transaction.Row {
	row := transaction.Row{
		Type:   req.Type,
		Client: strconv.FormatUint(uint64(req.Client), 10),
		Tx:     strconv.FormatUint(uint64(req.Tx), 10),
	}
	if req.Amount != nil {
		row.Amount = req.Amount.String()
	}
	return row
}

// --- HTTP Handlers ---

// ApplyTransaction handles POST /api/v1/transactions
func (s *Service) ApplyTransaction(w http.ResponseWriter, r *http.Request) {
	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	tx, err := req.row().Transaction()
	if err != nil {
		if errors.Is(err, transaction.ErrParse) {
			metrics.ParseErrorsTotal.Inc()
		}
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Serialize engine access.
	s.mu.Lock()
	outcome, err := s.proc.Apply(tx)
	var resp TransactionResponse
	if err == nil {
		resp.Outcome = outcome.String()
		// Disputes change the deposit owner's account, whoever they name.
		if owner, ok := s.proc.Engine().Owner(tx); ok {
			if acct, found := s.proc.Engine().Account(owner); found {
				row, rowErr := acct.Row()
				if rowErr != nil {
					err = rowErr
				} else {
					resp.Account = &row
				}
			}
		}
	}
	s.mu.Unlock()

	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}

	if s.wsHub != nil && outcome == engine.Applied && resp.Account != nil {
		s.wsHub.Broadcast(WSMessage{
			Type:    "account_updated",
			Kind:    string(tx.Kind()),
			Tx:      uint32(tx.TxID()),
			Account: *resp.Account,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// ListAccounts handles GET /api/v1/accounts
func (s *Service) ListAccounts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	rows, err := s.proc.Engine().Rows()
	s.mu.Unlock()
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []model.AccountRow{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rows)
}

// GetAccount handles GET /api/v1/accounts/{clientID}
func (s *Service) GetAccount(w http.ResponseWriter, r *http.Request) {
	client, ok := clientParam(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	acct, found := s.proc.Engine().Account(transaction.ClientID(client))
	s.mu.Unlock()
	if !found {
		writeError(w, "account not found", http.StatusNotFound)
		return
	}

	row, err := acct.Row()
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(row)
}

// GetAccountHistory handles GET /api/v1/accounts/{clientID}/history
// Returns the client's row from every saved report, oldest first.
func (s *Service) GetAccountHistory(w http.ResponseWriter, r *http.Request) {
	client, ok := clientParam(w, r)
	if !ok {
		return
	}

	history, err := s.store.GetClientHistory(r.Context(), client)
	if err != nil {
		writeError(w, "failed to load account history", http.StatusInternalServerError)
		return
	}
	if history == nil {
		history = []model.AccountRow{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(history)
}

// CreateReport handles POST /api/v1/reports
// Snapshots every account into an immutable report.
func (s *Service) CreateReport(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	rows, err := s.proc.Engine().Rows()
	s.mu.Unlock()
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	report := model.NewReport(rows)
	if err := s.store.SaveReport(r.Context(), report); err != nil {
		slog.Error("save report failed", "id", report.ID, "err", err)
		writeError(w, "failed to save report", http.StatusInternalServerError)
		return
	}
	metrics.ReportsTotal.Inc()

	slog.Info("report created",
		"id", report.ID,
		"accounts", len(report.Rows),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(report)
}

// ListReports handles GET /api/v1/reports
func (s *Service) ListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.store.ListReports(r.Context())
	if err != nil {
		writeError(w, "failed to list reports", http.StatusInternalServerError)
		return
	}
	if reports == nil {
		reports = []model.Report{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reports)
}

// GetReport handles GET /api/v1/reports/{reportID}
func (s *Service) GetReport(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "reportID")

	report, err := s.store.GetReport(r.Context(), reportID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, "report not found", http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, "failed to load report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

// clientParam parses the {clientID} URL parameter, writing a 400 on failure.
func clientParam(w http.ResponseWriter, r *http.Request) (uint16, bool) {
	client, err := strconv.ParseUint(chi.URLParam(r, "clientID"), 10, 16)
	if err != nil {
		writeError(w, "invalid client id", http.StatusBadRequest)
		return 0, false
	}
	return uint16(client), true
}

// statusFor maps an engine error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, account.ErrInsufficientHeldFunds):
		return http.StatusInternalServerError
	case errors.Is(err, transaction.ErrParse),
		errors.Is(err, transaction.ErrInvalidTransaction):
		return http.StatusBadRequest
	case errors.Is(err, transaction.ErrDuplicateTransaction),
		errors.Is(err, account.ErrAccountLocked),
		errors.Is(err, account.ErrInsufficientFunds),
		errors.Is(err, currency.ErrOverflow):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
