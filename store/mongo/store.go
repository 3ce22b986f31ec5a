package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	treasury "github.com/xraph/treasury"
	"github.com/xraph/treasury/claim"
	"github.com/xraph/treasury/funding"
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/invoice"
	"github.com/xraph/treasury/params"
	treasurystore "github.com/xraph/treasury/store"
	"github.com/xraph/treasury/types"
)

// Collection name constants.
const (
	colLedger     = "treasury_ledger"
	colInvoices   = "treasury_invoices"
	colClaims     = "treasury_claims"
	colParameters = "treasury_parameters"
)

// compile-time interface check
var _ treasurystore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
//
// The engine serializes mutating operations, and every Apply method
// writes the singleton ledger document last, so a crash mid-apply
// leaves the ledger document (the source of truth for nonce and
// outstanding debt) consistent with the already-committed entity
// documents.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes and seeds the singleton ledger and parameter
// documents.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("treasury/mongo: migrate %s indexes: %w", col, err)
		}
	}

	t := now()

	_, err := s.mdb.NewUpdate((*ledgerModel)(nil)).
		Filter(bson.M{"_id": ledgerDocID}).
		SetUpdate(bson.M{"$setOnInsert": bson.M{
			"_id":         ledgerDocID,
			"nonce":       int64(0),
			"outstanding": "0",
			"updated_at":  t,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("treasury/mongo: seed ledger: %w", err)
	}

	_, err = s.mdb.NewUpdate((*parametersModel)(nil)).
		Filter(bson.M{"_id": parametersDocID}).
		SetUpdate(bson.M{"$setOnInsert": bson.M{
			"_id":        parametersDocID,
			"min_buffer": "0",
			"max_buffer": "0",
			"vest_id":    int64(0),
			"created_at": t,
			"updated_at": t,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("treasury/mongo: seed parameters: %w", err)
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
	var m ledgerModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": ledgerDocID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, treasury.ErrStoreNotReady
		}
		return nil, fmt.Errorf("treasury/mongo: get ledger: %w", err)
	}
	return fromLedgerModel(&m)
}

func (s *Store) writeLedger(ctx context.Context, led *invoice.Ledger) error {
	m := toLedgerModel(led)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": ledgerDocID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("treasury/mongo: write ledger: %w", err)
	}
	if res.MatchedCount() == 0 {
		return treasury.ErrStoreNotReady
	}
	return nil
}

// ==================== Invoices ====================

func (s *Store) ApplyInvoice(ctx context.Context, inv *invoice.Invoice, led *invoice.Ledger) error {
	m := toInvoiceModel(inv)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: invoice %d exists", treasury.ErrTransactionFailed, inv.ID)
		}
		return fmt.Errorf("treasury/mongo: apply invoice: %w", err)
	}
	return s.writeLedger(ctx, led)
}

func (s *Store) ApplyDelete(ctx context.Context, invoiceID uint64, led *invoice.Ledger) error {
	t := now()
	res, err := s.mdb.NewUpdate((*invoiceModel)(nil)).
		Filter(bson.M{"_id": int64(invoiceID)}).
		Set("status", string(invoice.StatusDeleted)).
		Set("deleted_at", t).
		Set("updated_at", t).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("treasury/mongo: apply delete: %w", err)
	}
	if res.MatchedCount() == 0 {
		return treasury.ErrInvoiceNotFound
	}
	return s.writeLedger(ctx, led)
}

func (s *Store) GetInvoice(ctx context.Context, invoiceID uint64) (*invoice.Invoice, error) {
	var m invoiceModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": int64(invoiceID)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, treasury.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("treasury/mongo: get invoice: %w", err)
	}
	return fromInvoiceModel(&m)
}

func (s *Store) ListInvoices(ctx context.Context, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	var models []invoiceModel

	filter := bson.M{}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("treasury/mongo: list invoices: %w", err)
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
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("treasury/mongo: apply claim: %w", err)
	}

	if settleOutstanding {
		t := now()
		_, err := s.mdb.Collection(colInvoices).UpdateMany(ctx,
			bson.M{"status": string(invoice.StatusOutstanding)},
			bson.M{"$set": bson.M{
				"status":     string(invoice.StatusSettled),
				"settled_at": t,
				"updated_at": t,
			}})
		if err != nil {
			return fmt.Errorf("treasury/mongo: settle invoices: %w", err)
		}
	}

	return s.writeLedger(ctx, led)
}

func (s *Store) GetClaim(ctx context.Context, claimID id.ClaimID) (*claim.Receipt, error) {
	var m claimModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": claimID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, treasury.ErrClaimNotFound
		}
		return nil, fmt.Errorf("treasury/mongo: get claim: %w", err)
	}
	return fromClaimModel(&m)
}

func (s *Store) ListClaims(ctx context.Context, opts claim.ListOpts) ([]*claim.Receipt, error) {
	var models []claimModel

	filter := bson.M{}
	if opts.Trigger != "" {
		filter["trigger"] = string(opts.Trigger)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("treasury/mongo: list claims: %w", err)
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
	var m parametersModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": parametersDocID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, treasury.ErrStoreNotReady
		}
		return nil, fmt.Errorf("treasury/mongo: get parameters: %w", err)
	}
	return fromParametersModel(&m)
}

func (s *Store) SetBuffer(ctx context.Context, minBuffer, maxBuffer types.Amount) error {
	res, err := s.mdb.NewUpdate((*parametersModel)(nil)).
		Filter(bson.M{"_id": parametersDocID}).
		Set("min_buffer", minBuffer.String()).
		Set("max_buffer", maxBuffer.String()).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("treasury/mongo: set buffer: %w", err)
	}
	if res.MatchedCount() == 0 {
		return treasury.ErrStoreNotReady
	}
	return nil
}

func (s *Store) SetVestID(ctx context.Context, vestID uint64, award *funding.Award) error {
	res, err := s.mdb.NewUpdate((*parametersModel)(nil)).
		Filter(bson.M{"_id": parametersDocID}).
		Set("vest_id", int64(vestID)).
		Set("award", toAwardModel(award)).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("treasury/mongo: set vest id: %w", err)
	}
	if res.MatchedCount() == 0 {
		return treasury.ErrStoreNotReady
	}
	return nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all treasury collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colLedger: {},
		colInvoices: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "_id", Value: 1}}},
		},
		colClaims: {
			{Keys: bson.D{{Key: "trigger", Value: 1}, {Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
		colParameters: {},
	}
}
