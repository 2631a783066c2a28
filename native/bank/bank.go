package bank

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrNilState indicates a helper was invoked without a wired token state.
	ErrNilState = errors.New("bank: state not configured")
	// ErrInvalidAmount indicates a transfer or approval amount was nil or negative.
	ErrInvalidAmount = errors.New("bank: amount must be non-negative")
	// ErrInsufficientBalance indicates the holder cannot cover the requested transfer.
	ErrInsufficientBalance = errors.New("bank: insufficient balance")
	// ErrInsufficientAllowance indicates the spender's allowance cannot cover the transfer.
	ErrInsufficientAllowance = errors.New("bank: insufficient allowance")
)

// State exposes the token accounting surface the router engines operate
// against. Implementations are expected to apply effects synchronously; the
// hosting environment owns atomicity across a whole top-level operation.
type State interface {
	BalanceOf(token, owner common.Address) (*big.Int, error)
	Transfer(token, from, to common.Address, amount *big.Int) error
	Allowance(token, owner, spender common.Address) (*big.Int, error)
	Approve(token, owner, spender common.Address, amount *big.Int) error
}

// EnsureAllowance tops up the owner's allowance towards spender so it covers
// required. A fresh approval is only issued when the existing allowance is
// insufficient; allowances are never lowered here.
func EnsureAllowance(state State, token, owner, spender common.Address, required *big.Int) error {
	if state == nil {
		return ErrNilState
	}
	if required == nil || required.Sign() < 0 {
		return ErrInvalidAmount
	}
	if required.Sign() == 0 {
		return nil
	}
	current, err := state.Allowance(token, owner, spender)
	if err != nil {
		return err
	}
	if current != nil && current.Cmp(required) >= 0 {
		return nil
	}
	return state.Approve(token, owner, spender, required)
}

// TransferAll moves the owner's entire balance of token to the recipient and
// returns the amount moved. A zero balance is a no-op.
func TransferAll(state State, token, from, to common.Address) (*big.Int, error) {
	if state == nil {
		return nil, ErrNilState
	}
	balance, err := state.BalanceOf(token, from)
	if err != nil {
		return nil, err
	}
	if balance == nil || balance.Sign() == 0 {
		return big.NewInt(0), nil
	}
	amount := new(big.Int).Set(balance)
	if err := state.Transfer(token, from, to, amount); err != nil {
		return nil, err
	}
	return amount, nil
}
