// Package token defines the settlement-asset capability set the
// treasury needs: balances, transfers, and spending allowances.
package token

import (
	"context"
	"errors"

	"github.com/xraph/treasury/types"
)

var (
	// ErrInsufficientBalance means the sender's balance cannot cover the
	// transfer.
	ErrInsufficientBalance = errors.New("token: insufficient balance")

	// ErrInsufficientAllowance means the spender's allowance cannot
	// cover the withdrawal.
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")

	// ErrInvalidAmount means a transfer or approval amount is negative.
	ErrInvalidAmount = errors.New("token: invalid amount")
)

// Asset is a single fungible settlement asset keyed by account address.
// Amounts are always non-negative.
type Asset interface {
	// BalanceOf returns the balance of account.
	BalanceOf(ctx context.Context, account string) (types.Amount, error)

	// Transfer moves amount from one account to another.
	Transfer(ctx context.Context, from, to string, amount types.Amount) error

	// Approve sets spender's allowance over owner's funds.
	Approve(ctx context.Context, owner, spender string, amount types.Amount) error

	// Allowance returns spender's remaining allowance over owner's funds.
	Allowance(ctx context.Context, owner, spender string) (types.Amount, error)

	// TransferFrom moves amount from `from` to `to` on behalf of
	// spender, consuming allowance.
	TransferFrom(ctx context.Context, spender, from, to string, amount types.Amount) error
}
