package bank

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"altair/storage"
)

var (
	balancePrefix   = []byte("bal/")
	allowancePrefix = []byte("alw/")
)

// Store is a State implementation persisted in a key-value database. Balances
// and allowances are stored as raw big-endian bytes; absent keys read as
// zero.
type Store struct {
	db storage.Database
}

// NewStore wraps a database in the token accounting surface.
func NewStore(db storage.Database) *Store {
	return &Store{db: db}
}

func balanceStoreKey(token, owner common.Address) []byte {
	key := make([]byte, 0, len(balancePrefix)+2*common.AddressLength)
	key = append(key, balancePrefix...)
	key = append(key, token.Bytes()...)
	return append(key, owner.Bytes()...)
}

func allowanceStoreKey(token, owner, spender common.Address) []byte {
	key := make([]byte, 0, len(allowancePrefix)+3*common.AddressLength)
	key = append(key, allowancePrefix...)
	key = append(key, token.Bytes()...)
	key = append(key, owner.Bytes()...)
	return append(key, spender.Bytes()...)
}

func (s *Store) read(key []byte) (*big.Int, error) {
	raw, err := s.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(raw), nil
}

func (s *Store) write(key []byte, amount *big.Int) error {
	if amount.Sign() == 0 {
		return s.db.Delete(key)
	}
	return s.db.Put(key, amount.Bytes())
}

// BalanceOf returns the owner's balance of token.
func (s *Store) BalanceOf(token, owner common.Address) (*big.Int, error) {
	return s.read(balanceStoreKey(token, owner))
}

// Mint credits the owner's balance of token.
func (s *Store) Mint(token, owner common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amount.Sign() == 0 {
		return nil
	}
	key := balanceStoreKey(token, owner)
	current, err := s.read(key)
	if err != nil {
		return err
	}
	return s.write(key, new(big.Int).Add(current, amount))
}

// Transfer moves amount of token between holders, failing when the sender's
// balance cannot cover it.
func (s *Store) Transfer(token, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amount.Sign() == 0 {
		return nil
	}
	fromKey := balanceStoreKey(token, from)
	balance, err := s.read(fromKey)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	// Same key on both sides; the balance is already where it belongs.
	if from == to {
		return nil
	}
	toKey := balanceStoreKey(token, to)
	credit, err := s.read(toKey)
	if err != nil {
		return err
	}
	if err := s.write(fromKey, new(big.Int).Sub(balance, amount)); err != nil {
		return err
	}
	return s.write(toKey, new(big.Int).Add(credit, amount))
}

// Allowance returns the spender's remaining allowance over the owner's token.
func (s *Store) Allowance(token, owner, spender common.Address) (*big.Int, error) {
	return s.read(allowanceStoreKey(token, owner, spender))
}

// Approve replaces the spender's allowance over the owner's token.
func (s *Store) Approve(token, owner, spender common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	return s.write(allowanceStoreKey(token, owner, spender), amount)
}
