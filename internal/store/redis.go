package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/atmx/ledger-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache. Reports never change once saved, so a save populates the report
// key directly and only drops the per-client history keys it touches.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Write-through ---

func (s *CachedStore) SaveReport(ctx context.Context, r *model.Report) error {
	if err := s.primary.SaveReport(ctx, r); err != nil {
		return err
	}
	s.cacheReport(ctx, r)

	if len(r.Rows) > 0 {
		keys := make([]string, len(r.Rows))
		for i, row := range r.Rows {
			keys[i] = historyKey(row.Client)
		}
		s.rdb.Del(ctx, keys...)
	}
	return nil
}

// --- Read-through (check cache first) ---

func (s *CachedStore) GetReport(ctx context.Context, id string) (*model.Report, error) {
	data, err := s.rdb.Get(ctx, reportKey(id)).Bytes()
	if err == nil {
		var r model.Report
		if json.Unmarshal(data, &r) == nil {
			return &r, nil
		}
	}

	// Cache miss: read from primary.
	r, err := s.primary.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cacheReport(ctx, r)
	return r, nil
}

func (s *CachedStore) GetClientHistory(ctx context.Context, client uint16) ([]model.AccountRow, error) {
	data, err := s.rdb.Get(ctx, historyKey(client)).Bytes()
	if err == nil {
		var history []model.AccountRow
		if json.Unmarshal(data, &history) == nil {
			return history, nil
		}
	}

	history, err := s.primary.GetClientHistory(ctx, client)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(history); err == nil {
		s.rdb.Set(ctx, historyKey(client), data, s.ttl)
	}
	return history, nil
}

// --- Passthrough (not cached) ---

func (s *CachedStore) ListReports(ctx context.Context) ([]model.Report, error) {
	return s.primary.ListReports(ctx)
}

// --- Cache helpers ---

func (s *CachedStore) cacheReport(ctx context.Context, r *model.Report) {
	if data, err := json.Marshal(r); err == nil {
		s.rdb.Set(ctx, reportKey(r.ID), data, s.ttl)
	}
}

func reportKey(id string) string       { return fmt.Sprintf("report:%s", id) }
func historyKey(client uint16) string { return fmt.Sprintf("history:%d", client) }
