// Package store exposes the driver-facing API that sits above the engine
// package: it owns the raw transaction/customer ledger and fans analysis
// requests out to an Aggregator.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/enterprise/aml-risk-engine/internal/engine"
	"github.com/enterprise/aml-risk-engine/internal/models"
)

// MemoryStore is an in-memory, mutex-protected ledger of transactions and
// customer info, suitable for tests, batch runs and small deployments. It is
// safe for concurrent use.
type MemoryStore struct {
	mu            sync.RWMutex
	transactions  map[string][]models.Transaction // customerID -> transactions
	customerInfo  map[string]models.CustomerInfo
	aggregator    *engine.Aggregator
	maxConcurrent int
}

// NewMemoryStore builds an empty store backed by the given Aggregator.
// maxConcurrent bounds how many customers are analyzed in parallel by
// AnalyzeAllCustomers; values <= 0 default to 8.
func NewMemoryStore(aggregator *engine.Aggregator, maxConcurrent int) *MemoryStore {
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	return &MemoryStore{
		transactions:  make(map[string][]models.Transaction),
		customerInfo:  make(map[string]models.CustomerInfo),
		aggregator:    aggregator,
		maxConcurrent: maxConcurrent,
	}
}

// AddTransaction appends a single validated transaction to the ledger.
func (s *MemoryStore) AddTransaction(tx models.Transaction) error {
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[tx.CustomerID] = append(s.transactions[tx.CustomerID], tx)
	return nil
}

// AddTransactions validates the whole batch before appending it. If any
// record is invalid it returns the first validation error and appends
// nothing.
func (s *MemoryStore) AddTransactions(txs []models.Transaction) error {
	for _, tx := range txs {
		if err := tx.Validate(); err != nil {
			return fmt.Errorf("store: %w", err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range txs {
		s.transactions[tx.CustomerID] = append(s.transactions[tx.CustomerID], tx)
	}
	return nil
}

// SetCustomerInfo upserts optional KYC context for a customer.
func (s *MemoryStore) SetCustomerInfo(info models.CustomerInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customerInfo[info.CustomerID] = info
}

// CustomerIDs returns every customer id with at least one transaction,
// sorted for deterministic iteration.
func (s *MemoryStore) CustomerIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.transactions))
	for id := range s.transactions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// snapshot returns a defensive copy of the full transaction ledger and the
// transactions belonging to customerID, taken under a single read lock so
// AnalyzeCustomer sees a consistent view.
func (s *MemoryStore) snapshot(customerID string) (customerTx, allTx []models.Transaction, info *models.CustomerInfo) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, txs := range s.transactions {
		allTx = append(allTx, txs...)
	}
	customerTx = append(customerTx, s.transactions[customerID]...)

	if ci, ok := s.customerInfo[customerID]; ok {
		infoCopy := ci
		info = &infoCopy
	}
	return customerTx, allTx, info
}

// AnalyzeCustomer runs the full detector pipeline for a single customer.
func (s *MemoryStore) AnalyzeCustomer(ctx context.Context, customerID string) (models.RiskProfile, error) {
	customerTx, allTx, info := s.snapshot(customerID)
	return s.aggregator.AnalyzeCustomer(ctx, customerID, customerTx, allTx, info)
}

// AnalyzeAllCustomers runs AnalyzeCustomer for every known customer id,
// bounding concurrency at maxConcurrent workers, mirroring the teacher's
// WorkerPool fan-out pattern for CPU-bound per-item work. A customer whose
// window is empty (ErrNoTransactionsInWindow) is skipped rather than
// aborting the whole batch, matching analyze_all_customers' per-customer
// exception handling.
func (s *MemoryStore) AnalyzeAllCustomers(ctx context.Context) ([]models.RiskProfile, error) {
	ids := s.CustomerIDs()

	results := make([]models.RiskProfile, len(ids))
	ok := make([]bool, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)

	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			profile, err := s.AnalyzeCustomer(gctx, id)
			if err != nil {
				if errors.Is(err, engine.ErrNoTransactionsInWindow) {
					return nil
				}
				return fmt.Errorf("store: analyze customer %s: %w", id, err)
			}
			results[i] = profile
			ok[i] = true
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	profiles := make([]models.RiskProfile, 0, len(results))
	for i, included := range ok {
		if included {
			profiles = append(profiles, results[i])
		}
	}

	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].SuspicionScore > profiles[j].SuspicionScore
	})

	return profiles, nil
}
