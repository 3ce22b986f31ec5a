package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/treasury/claim"
	"github.com/xraph/treasury/funding"
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/invoice"
	"github.com/xraph/treasury/params"
	"github.com/xraph/treasury/types"
)

// Amounts are stored as base-10 strings: BSON int64 overflows on
// wad-denominated values.

// ==================== Ledger model ====================

type ledgerModel struct {
	grove.BaseModel `grove:"table:treasury_ledger"`

	ID          int64     `grove:"id,pk"       bson:"_id"`
	Nonce       int64     `grove:"nonce"       bson:"nonce"`
	Outstanding string    `grove:"outstanding" bson:"outstanding"`
	UpdatedAt   time.Time `grove:"updated_at"  bson:"updated_at"`
}

// ledgerDocID is the fixed _id of the singleton ledger document.
const ledgerDocID = int64(1)

func toLedgerModel(led *invoice.Ledger) *ledgerModel {
	return &ledgerModel{
		ID:          ledgerDocID,
		Nonce:       int64(led.Nonce),
		Outstanding: led.Outstanding.String(),
		UpdatedAt:   led.UpdatedAt,
	}
}

func fromLedgerModel(m *ledgerModel) (*invoice.Ledger, error) {
	outstanding, err := types.ParseAmount(m.Outstanding)
	if err != nil {
		return nil, err
	}

	return &invoice.Ledger{
		Nonce:       uint64(m.Nonce),
		Outstanding: outstanding,
		UpdatedAt:   m.UpdatedAt,
	}, nil
}

// ==================== Invoice models ====================

type invoiceModel struct {
	grove.BaseModel `grove:"table:treasury_invoices"`

	ID          int64      `grove:"id,pk"       bson:"_id"`
	GasAmount   string     `grove:"gas_amount"  bson:"gas_amount"`
	Amount      string     `grove:"amount"      bson:"amount"`
	Description string     `grove:"description" bson:"description"`
	Status      string     `grove:"status"      bson:"status"`
	SettledAt   *time.Time `grove:"settled_at"  bson:"settled_at,omitempty"`
	DeletedAt   *time.Time `grove:"deleted_at"  bson:"deleted_at,omitempty"`
	CreatedAt   time.Time  `grove:"created_at"  bson:"created_at"`
	UpdatedAt   time.Time  `grove:"updated_at"  bson:"updated_at"`
}

func toInvoiceModel(inv *invoice.Invoice) *invoiceModel {
	return &invoiceModel{
		ID:          int64(inv.ID),
		GasAmount:   inv.GasAmount.String(),
		Amount:      inv.Amount.String(),
		Description: inv.Description,
		Status:      string(inv.Status),
		SettledAt:   inv.SettledAt,
		DeletedAt:   inv.DeletedAt,
		CreatedAt:   inv.CreatedAt,
		UpdatedAt:   inv.UpdatedAt,
	}
}

func fromInvoiceModel(m *invoiceModel) (*invoice.Invoice, error) {
	gasAmount, err := types.ParseAmount(m.GasAmount)
	if err != nil {
		return nil, err
	}
	amount, err := types.ParseAmount(m.Amount)
	if err != nil {
		return nil, err
	}

	return &invoice.Invoice{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:          uint64(m.ID),
		GasAmount:   gasAmount,
		Amount:      amount,
		Description: m.Description,
		Status:      invoice.Status(m.Status),
		SettledAt:   m.SettledAt,
		DeletedAt:   m.DeletedAt,
	}, nil
}

// ==================== Claim models ====================

type claimModel struct {
	grove.BaseModel `grove:"table:treasury_claims"`

	ID        string    `grove:"id,pk"      bson:"_id"`
	Trigger   string    `grove:"trigger"    bson:"trigger"`
	StreamID  int64     `grove:"stream_id"  bson:"stream_id"`
	Streamed  string    `grove:"streamed"   bson:"streamed"`
	Settled   string    `grove:"settled"    bson:"settled"`
	TopUp     string    `grove:"top_up"     bson:"top_up"`
	Surplus   string    `grove:"surplus"    bson:"surplus"`
	CreatedAt time.Time `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time `grove:"updated_at" bson:"updated_at"`
}

func toClaimModel(rcpt *claim.Receipt) *claimModel {
	return &claimModel{
		ID:        rcpt.ID.String(),
		Trigger:   string(rcpt.Trigger),
		StreamID:  int64(rcpt.StreamID),
		Streamed:  rcpt.Streamed.String(),
		Settled:   rcpt.Settled.String(),
		TopUp:     rcpt.TopUp.String(),
		Surplus:   rcpt.Surplus.String(),
		CreatedAt: rcpt.CreatedAt,
		UpdatedAt: rcpt.UpdatedAt,
	}
}

func fromClaimModel(m *claimModel) (*claim.Receipt, error) {
	claimID, err := id.ParseClaimID(m.ID)
	if err != nil {
		return nil, err
	}

	streamed, err := types.ParseAmount(m.Streamed)
	if err != nil {
		return nil, err
	}
	settled, err := types.ParseAmount(m.Settled)
	if err != nil {
		return nil, err
	}
	topUp, err := types.ParseAmount(m.TopUp)
	if err != nil {
		return nil, err
	}
	surplus, err := types.ParseAmount(m.Surplus)
	if err != nil {
		return nil, err
	}

	return &claim.Receipt{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:       claimID,
		Trigger:  claim.Trigger(m.Trigger),
		StreamID: uint64(m.StreamID),
		Streamed: streamed,
		Settled:  settled,
		TopUp:    topUp,
		Surplus:  surplus,
	}, nil
}

// ==================== Parameter models ====================

type parametersModel struct {
	grove.BaseModel `grove:"table:treasury_parameters"`

	ID        int64       `grove:"id,pk"      bson:"_id"`
	MinBuffer string      `grove:"min_buffer" bson:"min_buffer"`
	MaxBuffer string      `grove:"max_buffer" bson:"max_buffer"`
	VestID    int64       `grove:"vest_id"    bson:"vest_id"`
	Award     *awardModel `grove:"award"      bson:"award,omitempty"`
	CreatedAt time.Time   `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time   `grove:"updated_at" bson:"updated_at"`
}

const parametersDocID = int64(1)

type awardModel struct {
	ID          int64     `bson:"id"`
	Beneficiary string    `bson:"beneficiary"`
	Manager     string    `bson:"manager"`
	Begin       time.Time `bson:"begin"`
	Cliff       time.Time `bson:"cliff"`
	End         time.Time `bson:"end"`
	Total       string    `bson:"total"`
	Claimed     string    `bson:"claimed"`
}

func toAwardModel(a *funding.Award) *awardModel {
	if a == nil {
		return nil
	}
	return &awardModel{
		ID:          int64(a.ID),
		Beneficiary: a.Beneficiary,
		Manager:     a.Manager,
		Begin:       a.Begin,
		Cliff:       a.Cliff,
		End:         a.End,
		Total:       a.Total.String(),
		Claimed:     a.Claimed.String(),
	}
}

func fromAwardModel(m *awardModel) (*funding.Award, error) {
	if m == nil {
		return nil, nil
	}

	total, err := types.ParseAmount(m.Total)
	if err != nil {
		return nil, err
	}
	claimed, err := types.ParseAmount(m.Claimed)
	if err != nil {
		return nil, err
	}

	return &funding.Award{
		ID:          uint64(m.ID),
		Beneficiary: m.Beneficiary,
		Manager:     m.Manager,
		Begin:       m.Begin,
		Cliff:       m.Cliff,
		End:         m.End,
		Total:       total,
		Claimed:     claimed,
	}, nil
}

func fromParametersModel(m *parametersModel) (*params.Parameters, error) {
	minBuffer, err := types.ParseAmount(m.MinBuffer)
	if err != nil {
		return nil, err
	}
	maxBuffer, err := types.ParseAmount(m.MaxBuffer)
	if err != nil {
		return nil, err
	}
	award, err := fromAwardModel(m.Award)
	if err != nil {
		return nil, err
	}

	return &params.Parameters{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		MinBuffer: minBuffer,
		MaxBuffer: maxBuffer,
		VestID:    uint64(m.VestID),
		Award:     award,
	}, nil
}
