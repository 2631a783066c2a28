package bank

import (
	"errors"
	"math/big"
	"testing"

	"altair/storage"
)

func TestStoreTransferPersistsBalances(t *testing.T) {
	store := NewStore(storage.NewMemDB())
	if err := store.Mint(testToken, testOwner, big.NewInt(1_000)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := store.Transfer(testToken, testOwner, testOther, big.NewInt(400)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	balance, err := store.BalanceOf(testToken, testOwner)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Cmp(big.NewInt(600)) != 0 {
		t.Fatalf("sender balance: got %s want 600", balance)
	}
	balance, _ = store.BalanceOf(testToken, testOther)
	if balance.Cmp(big.NewInt(400)) != 0 {
		t.Fatalf("recipient balance: got %s want 400", balance)
	}

	if err := store.Transfer(testToken, testOwner, testOther, big.NewInt(601)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("overdraft: got %v", err)
	}
}

func TestStoreSelfTransferPreservesBalance(t *testing.T) {
	store := NewStore(storage.NewMemDB())
	if err := store.Mint(testToken, testOwner, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := store.Transfer(testToken, testOwner, testOwner, big.NewInt(40)); err != nil {
		t.Fatalf("self transfer: %v", err)
	}
	balance, err := store.BalanceOf(testToken, testOwner)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("self transfer changed balance: got %s want 100", balance)
	}

	// Overdraft checks still apply when sender and recipient coincide.
	if err := store.Transfer(testToken, testOwner, testOwner, big.NewInt(101)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("self overdraft: got %v", err)
	}
}

func TestStoreUntrackedKeysReadZero(t *testing.T) {
	store := NewStore(storage.NewMemDB())
	balance, err := store.BalanceOf(testToken, testOwner)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Sign() != 0 {
		t.Fatalf("untracked balance: got %s", balance)
	}
	allowance, err := store.Allowance(testToken, testOwner, testSpender)
	if err != nil {
		t.Fatalf("allowance: %v", err)
	}
	if allowance.Sign() != 0 {
		t.Fatalf("untracked allowance: got %s", allowance)
	}
}

func TestStoreAllowanceLifecycle(t *testing.T) {
	store := NewStore(storage.NewMemDB())
	if err := store.Approve(testToken, testOwner, testSpender, big.NewInt(250)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := EnsureAllowance(store, testToken, testOwner, testSpender, big.NewInt(100)); err != nil {
		t.Fatalf("ensure allowance: %v", err)
	}
	allowance, _ := store.Allowance(testToken, testOwner, testSpender)
	if allowance.Cmp(big.NewInt(250)) != 0 {
		t.Fatalf("covering allowance was rewritten to %s", allowance)
	}

	// A zero approval clears the stored key entirely.
	if err := store.Approve(testToken, testOwner, testSpender, big.NewInt(0)); err != nil {
		t.Fatalf("clear approval: %v", err)
	}
	allowance, _ = store.Allowance(testToken, testOwner, testSpender)
	if allowance.Sign() != 0 {
		t.Fatalf("cleared allowance: got %s", allowance)
	}
}
