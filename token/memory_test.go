package token

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/treasury/types"
)

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Mint("alice", types.Wad(100))

	if err := m.Transfer(ctx, "alice", "bob", types.Wad(30)); err != nil {
		t.Fatalf("Transfer: %v", err)
	}

	alice, _ := m.BalanceOf(ctx, "alice")
	bob, _ := m.BalanceOf(ctx, "bob")
	if !alice.Equal(types.Wad(70)) || !bob.Equal(types.Wad(30)) {
		t.Errorf("balances: alice=%s bob=%s", alice, bob)
	}
}

func TestTransferInsufficient(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Mint("alice", types.Wad(10))

	err := m.Transfer(ctx, "alice", "bob", types.Wad(11))
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("expected ErrInsufficientBalance, got %v", err)
	}

	// Nothing moved.
	alice, _ := m.BalanceOf(ctx, "alice")
	if !alice.Equal(types.Wad(10)) {
		t.Errorf("alice balance changed: %s", alice)
	}
}

func TestTransferNegative(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.Transfer(ctx, "a", "b", types.Wad(-1)); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestTransferFrom(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Mint("owner", types.Wad(50))

	if err := m.Approve(ctx, "owner", "spender", types.Wad(20)); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	if err := m.TransferFrom(ctx, "spender", "owner", "dest", types.Wad(15)); err != nil {
		t.Fatalf("TransferFrom: %v", err)
	}

	remaining, _ := m.Allowance(ctx, "owner", "spender")
	if !remaining.Equal(types.Wad(5)) {
		t.Errorf("allowance after spend: %s", remaining)
	}

	if err := m.TransferFrom(ctx, "spender", "owner", "dest", types.Wad(6)); !errors.Is(err, ErrInsufficientAllowance) {
		t.Errorf("expected ErrInsufficientAllowance, got %v", err)
	}
}

func TestTransferFromInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Mint("owner", types.Wad(1))

	if err := m.Approve(ctx, "owner", "spender", types.Wad(10)); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	err := m.TransferFrom(ctx, "spender", "owner", "dest", types.Wad(5))
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("expected ErrInsufficientBalance, got %v", err)
	}

	// Allowance untouched on failure.
	remaining, _ := m.Allowance(ctx, "owner", "spender")
	if !remaining.Equal(types.Wad(10)) {
		t.Errorf("allowance consumed on failed transfer: %s", remaining)
	}
}
