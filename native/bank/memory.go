package bank

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type balanceKey struct {
	token common.Address
	owner common.Address
}

type allowanceKey struct {
	token   common.Address
	owner   common.Address
	spender common.Address
}

// Memory is an in-process State implementation backed by plain maps. It is the
// reference ledger used by the engine test suites and by local tooling; it
// performs the same balance and allowance checks a production token ledger
// would.
type Memory struct {
	balances   map[balanceKey]*big.Int
	allowances map[allowanceKey]*big.Int
}

// NewMemory returns an empty in-memory token state.
func NewMemory() *Memory {
	return &Memory{
		balances:   make(map[balanceKey]*big.Int),
		allowances: make(map[allowanceKey]*big.Int),
	}
}

// SetBalance overwrites the owner's balance of token.
func (m *Memory) SetBalance(token, owner common.Address, amount *big.Int) {
	if amount == nil {
		amount = big.NewInt(0)
	}
	m.balances[balanceKey{token, owner}] = new(big.Int).Set(amount)
}

// Mint credits the owner's balance of token.
func (m *Memory) Mint(token, owner common.Address, amount *big.Int) {
	if amount == nil || amount.Sign() == 0 {
		return
	}
	key := balanceKey{token, owner}
	current, ok := m.balances[key]
	if !ok {
		current = big.NewInt(0)
	}
	m.balances[key] = new(big.Int).Add(current, amount)
}

// BalanceOf returns the owner's balance of token, zero when untracked.
func (m *Memory) BalanceOf(token, owner common.Address) (*big.Int, error) {
	if balance, ok := m.balances[balanceKey{token, owner}]; ok {
		return new(big.Int).Set(balance), nil
	}
	return big.NewInt(0), nil
}

// Transfer moves amount of token between holders, failing when the sender's
// balance cannot cover it.
func (m *Memory) Transfer(token, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amount.Sign() == 0 {
		return nil
	}
	fromKey := balanceKey{token, from}
	balance, ok := m.balances[fromKey]
	if !ok || balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	m.balances[fromKey] = new(big.Int).Sub(balance, amount)
	toKey := balanceKey{token, to}
	current, ok := m.balances[toKey]
	if !ok {
		current = big.NewInt(0)
	}
	m.balances[toKey] = new(big.Int).Add(current, amount)
	return nil
}

// Allowance returns the spender's remaining allowance over the owner's token.
func (m *Memory) Allowance(token, owner, spender common.Address) (*big.Int, error) {
	if allowance, ok := m.allowances[allowanceKey{token, owner, spender}]; ok {
		return new(big.Int).Set(allowance), nil
	}
	return big.NewInt(0), nil
}

// Approve replaces the spender's allowance over the owner's token.
func (m *Memory) Approve(token, owner, spender common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	m.allowances[allowanceKey{token, owner, spender}] = new(big.Int).Set(amount)
	return nil
}
