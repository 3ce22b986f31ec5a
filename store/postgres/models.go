package postgres

import (
	"encoding/json"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/treasury/claim"
	"github.com/xraph/treasury/funding"
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/invoice"
	"github.com/xraph/treasury/params"
	"github.com/xraph/treasury/types"
)

// Amounts are stored as base-10 strings. Wad-denominated values
// overflow BIGINT, and round-tripping through the decimal string keeps
// the arbitrary-precision arithmetic exact.

// ==================== Ledger model ====================

type ledgerModel struct {
	grove.BaseModel `grove:"table:treasury_ledger"`

	ID          int64     `grove:"id,pk"`
	Nonce       int64     `grove:"nonce"`
	Outstanding string    `grove:"outstanding"`
	UpdatedAt   time.Time `grove:"updated_at"`
}

// ledgerRowID is the fixed primary key of the singleton ledger row.
const ledgerRowID = 1

func toLedgerModel(led *invoice.Ledger) *ledgerModel {
	return &ledgerModel{
		ID:          ledgerRowID,
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

	ID          int64      `grove:"id,pk"`
	GasAmount   string     `grove:"gas_amount"`
	Amount      string     `grove:"amount"`
	Description string     `grove:"description"`
	Status      string     `grove:"status"`
	SettledAt   *time.Time `grove:"settled_at"`
	DeletedAt   *time.Time `grove:"deleted_at"`
	CreatedAt   time.Time  `grove:"created_at"`
	UpdatedAt   time.Time  `grove:"updated_at"`
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

	ID        string    `grove:"id,pk"`
	Trigger   string    `grove:"trigger"`
	StreamID  int64     `grove:"stream_id"`
	Streamed  string    `grove:"streamed"`
	Settled   string    `grove:"settled"`
	TopUp     string    `grove:"top_up"`
	Surplus   string    `grove:"surplus"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
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

	ID        int64           `grove:"id,pk"`
	MinBuffer string          `grove:"min_buffer"`
	MaxBuffer string          `grove:"max_buffer"`
	VestID    int64           `grove:"vest_id"`
	Award     json.RawMessage `grove:"award,type:jsonb"`
	CreatedAt time.Time       `grove:"created_at"`
	UpdatedAt time.Time       `grove:"updated_at"`
}

const parametersRowID = 1

func fromParametersModel(m *parametersModel) (*params.Parameters, error) {
	minBuffer, err := types.ParseAmount(m.MinBuffer)
	if err != nil {
		return nil, err
	}
	maxBuffer, err := types.ParseAmount(m.MaxBuffer)
	if err != nil {
		return nil, err
	}

	var award *funding.Award
	if len(m.Award) > 0 && string(m.Award) != "null" {
		award = new(funding.Award)
		if err := json.Unmarshal(m.Award, award); err != nil {
			return nil, err
		}
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
