package token

import (
	"context"
	"sync"

	"github.com/xraph/treasury/types"
)

// Memory is an in-process Asset backed by maps. It implements the full
// balance/allowance model and is safe for concurrent use.
type Memory struct {
	mu         sync.Mutex
	balances   map[string]types.Amount
	allowances map[string]types.Amount // owner + "\x00" + spender
}

var _ Asset = (*Memory)(nil)

// NewMemory creates an empty in-memory asset.
func NewMemory() *Memory {
	return &Memory{
		balances:   make(map[string]types.Amount),
		allowances: make(map[string]types.Amount),
	}
}

// Mint credits amount to account out of thin air. Test and funding
// setup helper.
func (m *Memory) Mint(account string, amount types.Amount) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.balances[account] = m.balances[account].Add(amount)
}

// BalanceOf implements Asset.
func (m *Memory) BalanceOf(_ context.Context, account string) (types.Amount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.balances[account], nil
}

// Transfer implements Asset.
func (m *Memory) Transfer(_ context.Context, from, to string, amount types.Amount) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.move(from, to, amount)
}

// Approve implements Asset.
func (m *Memory) Approve(_ context.Context, owner, spender string, amount types.Amount) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.allowances[allowanceKey(owner, spender)] = amount

	return nil
}

// Allowance implements Asset.
func (m *Memory) Allowance(_ context.Context, owner, spender string) (types.Amount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.allowances[allowanceKey(owner, spender)], nil
}

// TransferFrom implements Asset.
func (m *Memory) TransferFrom(_ context.Context, spender, from, to string, amount types.Amount) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := allowanceKey(from, spender)

	allowed := m.allowances[key]
	if allowed.LessThan(amount) {
		return ErrInsufficientAllowance
	}

	if err := m.move(from, to, amount); err != nil {
		return err
	}

	m.allowances[key] = allowed.Sub(amount)

	return nil
}

// move transfers balance with the lock held.
func (m *Memory) move(from, to string, amount types.Amount) error {
	if m.balances[from].LessThan(amount) {
		return ErrInsufficientBalance
	}

	m.balances[from] = m.balances[from].Sub(amount)
	m.balances[to] = m.balances[to].Add(amount)

	return nil
}

func allowanceKey(owner, spender string) string {
	return owner + "\x00" + spender
}
