package invoice

import (
	"time"

	"github.com/xraph/treasury/types"
)

type Status string

const (
	StatusOutstanding Status = "outstanding"
	StatusSettled     Status = "settled"
	StatusDeleted     Status = "deleted"
)

// Invoice is an accrued expense owed to the treasury operator. Invoices
// are identified by a monotonic nonce assigned at recording time; the
// nonce never repeats, even across deletions.
type Invoice struct {
	types.Entity
	ID          uint64       `json:"id"`
	GasAmount   types.Amount `json:"gas_amount"`
	Amount      types.Amount `json:"amount"`
	Description string       `json:"description,omitempty"`
	Status      Status       `json:"status"`
	SettledAt   *time.Time   `json:"settled_at,omitempty"`
	DeletedAt   *time.Time   `json:"deleted_at,omitempty"`
}

// Outstanding reports whether the invoice still contributes to debt.
func (i *Invoice) Outstanding() bool {
	return i.Status == StatusOutstanding
}

// Ledger is the aggregate bookkeeping row: the invoice nonce and the
// total outstanding debt move together as one consistent unit. Debt is
// never negative.
type Ledger struct {
	Nonce       uint64       `json:"nonce"`
	Outstanding types.Amount `json:"outstanding"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
