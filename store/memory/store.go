// Package memory provides an in-process Store. It is the reference
// implementation of the atomic Apply semantics: each Apply holds one
// write lock across the entity change and the ledger row update.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xraph/treasury"
	"github.com/xraph/treasury/claim"
	"github.com/xraph/treasury/funding"
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/invoice"
	"github.com/xraph/treasury/params"
	"github.com/xraph/treasury/types"
)

type Store struct {
	mu sync.RWMutex

	// Aggregate ledger row
	ledger invoice.Ledger

	// Invoice storage, keyed by nonce
	invoices map[uint64]*invoice.Invoice

	// Claim receipts in commit order
	claims []*claim.Receipt

	// Governed parameters
	parameters params.Parameters

	closed bool
}

func New() *Store {
	return &Store{
		invoices: make(map[uint64]*invoice.Invoice),
	}
}

// ──────────────────────────────────────────────────
// Ledger
// ──────────────────────────────────────────────────

func (s *Store) GetLedger(_ context.Context) (*invoice.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, treasury.ErrStoreClosed
	}

	cp := s.ledger
	return &cp, nil
}

// ──────────────────────────────────────────────────
// Invoices
// ──────────────────────────────────────────────────

func (s *Store) ApplyInvoice(_ context.Context, inv *invoice.Invoice, led *invoice.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return treasury.ErrStoreClosed
	}

	cp := *inv
	s.invoices[inv.ID] = &cp
	s.ledger = *led

	return nil
}

func (s *Store) ApplyDelete(_ context.Context, invoiceID uint64, led *invoice.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return treasury.ErrStoreClosed
	}

	inv, ok := s.invoices[invoiceID]
	if !ok {
		return treasury.ErrInvoiceNotFound
	}

	now := time.Now().UTC()
	inv.Status = invoice.StatusDeleted
	inv.DeletedAt = &now
	inv.Touch()
	s.ledger = *led

	return nil
}

func (s *Store) GetInvoice(_ context.Context, invoiceID uint64) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, treasury.ErrStoreClosed
	}

	inv, ok := s.invoices[invoiceID]
	if !ok {
		return nil, treasury.ErrInvoiceNotFound
	}

	cp := *inv
	return &cp, nil
}

func (s *Store) ListInvoices(_ context.Context, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, treasury.ErrStoreClosed
	}

	result := make([]*invoice.Invoice, 0, len(s.invoices))
	for _, inv := range s.invoices {
		if opts.Status != "" && inv.Status != opts.Status {
			continue
		}
		cp := *inv
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	return paginate(result, opts.Offset, opts.Limit), nil
}

// ──────────────────────────────────────────────────
// Claims
// ──────────────────────────────────────────────────

func (s *Store) ApplyClaim(_ context.Context, rcpt *claim.Receipt, led *invoice.Ledger, settleOutstanding bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return treasury.ErrStoreClosed
	}

	cp := *rcpt
	s.claims = append(s.claims, &cp)
	s.ledger = *led

	if settleOutstanding {
		now := time.Now().UTC()
		for _, inv := range s.invoices {
			if inv.Status == invoice.StatusOutstanding {
				inv.Status = invoice.StatusSettled
				inv.SettledAt = &now
				inv.Touch()
			}
		}
	}

	return nil
}

func (s *Store) GetClaim(_ context.Context, claimID id.ClaimID) (*claim.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, treasury.ErrStoreClosed
	}

	for _, rcpt := range s.claims {
		if rcpt.ID.String() == claimID.String() {
			cp := *rcpt
			return &cp, nil
		}
	}

	return nil, treasury.ErrClaimNotFound
}

func (s *Store) ListClaims(_ context.Context, opts claim.ListOpts) ([]*claim.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, treasury.ErrStoreClosed
	}

	result := make([]*claim.Receipt, 0, len(s.claims))
	for _, rcpt := range s.claims {
		if opts.Trigger != "" && rcpt.Trigger != opts.Trigger {
			continue
		}
		cp := *rcpt
		result = append(result, &cp)
	}

	return paginate(result, opts.Offset, opts.Limit), nil
}

// ──────────────────────────────────────────────────
// Parameters
// ──────────────────────────────────────────────────

func (s *Store) GetParameters(_ context.Context) (*params.Parameters, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, treasury.ErrStoreClosed
	}

	cp := s.parameters
	if s.parameters.Award != nil {
		award := *s.parameters.Award
		cp.Award = &award
	}

	return &cp, nil
}

func (s *Store) SetBuffer(_ context.Context, minBuffer, maxBuffer types.Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return treasury.ErrStoreClosed
	}

	s.parameters.MinBuffer = minBuffer
	s.parameters.MaxBuffer = maxBuffer
	s.parameters.Touch()

	return nil
}

func (s *Store) SetVestID(_ context.Context, vestID uint64, award *funding.Award) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return treasury.ErrStoreClosed
	}

	s.parameters.VestID = vestID
	if award != nil {
		cp := *award
		s.parameters.Award = &cp
	} else {
		s.parameters.Award = nil
	}
	s.parameters.Touch()

	return nil
}

// ──────────────────────────────────────────────────
// Core
// ──────────────────────────────────────────────────

func (s *Store) Migrate(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return treasury.ErrStoreClosed
	}

	if s.parameters.CreatedAt.IsZero() {
		s.parameters.Entity = types.NewEntity()
	}
	if s.ledger.UpdatedAt.IsZero() {
		s.ledger.UpdatedAt = time.Now().UTC()
	}

	return nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return treasury.ErrStoreClosed
	}

	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true

	return nil
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
