package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	treasury "github.com/xraph/treasury"
	"github.com/xraph/treasury/claim"
	"github.com/xraph/treasury/funding"
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/invoice"
	"github.com/xraph/treasury/params"
	treasurystore "github.com/xraph/treasury/store"
	"github.com/xraph/treasury/types"
)

// compile-time interface check
var _ treasurystore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
//
// The engine serializes mutating operations, and every Apply method
// writes the singleton ledger row last, so a crash mid-apply leaves the
// ledger row (the source of truth for nonce and outstanding debt)
// consistent with the already-committed entity rows.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and seed rows using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("treasury/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("treasury/postgres: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Ledger ====================

func (s *Store) GetLedger(ctx context.Context) (*invoice.Ledger, error) {
	m := new(ledgerModel)
	err := s.pg.NewSelect(m).
		Where("id = ?", ledgerRowID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, treasury.ErrStoreNotReady
		}
		return nil, err
	}
	return fromLedgerModel(m)
}

func (s *Store) writeLedger(ctx context.Context, led *invoice.Ledger) error {
	m := toLedgerModel(led)
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return treasury.ErrStoreNotReady
	}
	return nil
}

// ==================== Invoices ====================

func (s *Store) ApplyInvoice(ctx context.Context, inv *invoice.Invoice, led *invoice.Ledger) error {
	m := toInvoiceModel(inv)
	if _, err := s.pg.NewInsert(m).Exec(ctx); err != nil {
		return err
	}
	return s.writeLedger(ctx, led)
}

func (s *Store) ApplyDelete(ctx context.Context, invoiceID uint64, led *invoice.Ledger) error {
	t := now()
	res, err := s.pg.NewUpdate((*invoiceModel)(nil)).
		Set("status = ?", string(invoice.StatusDeleted)).
		Set("deleted_at = ?", t).
		Set("updated_at = ?", t).
		Where("id = ?", int64(invoiceID)).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return treasury.ErrInvoiceNotFound
	}
	return s.writeLedger(ctx, led)
}

func (s *Store) GetInvoice(ctx context.Context, invoiceID uint64) (*invoice.Invoice, error) {
	m := new(invoiceModel)
	err := s.pg.NewSelect(m).
		Where("id = ?", int64(invoiceID)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, treasury.ErrInvoiceNotFound
		}
		return nil, err
	}
	return fromInvoiceModel(m)
}

func (s *Store) ListInvoices(ctx context.Context, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	var models []invoiceModel
	q := s.pg.NewSelect(&models)

	if opts.Status != "" {
		q = q.Where("status = ?", string(opts.Status))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*invoice.Invoice, len(models))
	for i := range models {
		inv, err := fromInvoiceModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = inv
	}
	return result, nil
}

// ==================== Claims ====================

func (s *Store) ApplyClaim(ctx context.Context, rcpt *claim.Receipt, led *invoice.Ledger, settleOutstanding bool) error {
	m := toClaimModel(rcpt)
	if _, err := s.pg.NewInsert(m).Exec(ctx); err != nil {
		return err
	}

	if settleOutstanding {
		t := now()
		_, err := s.pg.NewUpdate((*invoiceModel)(nil)).
			Set("status = ?", string(invoice.StatusSettled)).
			Set("settled_at = ?", t).
			Set("updated_at = ?", t).
			Where("status = ?", string(invoice.StatusOutstanding)).
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	return s.writeLedger(ctx, led)
}

func (s *Store) GetClaim(ctx context.Context, claimID id.ClaimID) (*claim.Receipt, error) {
	m := new(claimModel)
	err := s.pg.NewSelect(m).
		Where("id = ?", claimID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, treasury.ErrClaimNotFound
		}
		return nil, err
	}
	return fromClaimModel(m)
}

func (s *Store) ListClaims(ctx context.Context, opts claim.ListOpts) ([]*claim.Receipt, error) {
	var models []claimModel
	q := s.pg.NewSelect(&models)

	if opts.Trigger != "" {
		q = q.Where("trigger = ?", string(opts.Trigger))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*claim.Receipt, len(models))
	for i := range models {
		rcpt, err := fromClaimModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = rcpt
	}
	return result, nil
}

// ==================== Parameters ====================

func (s *Store) GetParameters(ctx context.Context) (*params.Parameters, error) {
	m := new(parametersModel)
	err := s.pg.NewSelect(m).
		Where("id = ?", parametersRowID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, treasury.ErrStoreNotReady
		}
		return nil, err
	}
	return fromParametersModel(m)
}

func (s *Store) SetBuffer(ctx context.Context, minBuffer, maxBuffer types.Amount) error {
	res, err := s.pg.NewUpdate((*parametersModel)(nil)).
		Set("min_buffer = ?", minBuffer.String()).
		Set("max_buffer = ?", maxBuffer.String()).
		Set("updated_at = ?", now()).
		Where("id = ?", parametersRowID).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return treasury.ErrStoreNotReady
	}
	return nil
}

func (s *Store) SetVestID(ctx context.Context, vestID uint64, award *funding.Award) error {
	awardJSON, err := json.Marshal(award)
	if err != nil {
		return err
	}

	res, err := s.pg.NewUpdate((*parametersModel)(nil)).
		Set("vest_id = ?", int64(vestID)).
		Set("award = ?", string(awardJSON)).
		Set("updated_at = ?", now()).
		Where("id = ?", parametersRowID).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return treasury.ErrStoreNotReady
	}
	return nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
