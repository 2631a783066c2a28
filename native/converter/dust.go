package converter

import (
	"github.com/ethereum/go-ethereum/common"

	"altair/native/bank"
)

// Sweeper reconciles residual token balances after a conversion. Any balance
// the router still holds belongs to the operation's recipient; leaving it
// behind would strand it for the next unrelated caller.
type Sweeper struct {
	self  common.Address
	state bank.State
}

// NewSweeper returns a sweeper acting on the router's balances.
func NewSweeper(self common.Address, state bank.State) *Sweeper {
	return &Sweeper{self: self, state: state}
}

// Sweep transfers the router's full balance of every listed token to the
// recipient. Duplicate entries and zero balances are skipped.
func (s *Sweeper) Sweep(tokens []common.Address, recipient common.Address) error {
	if s == nil || s.state == nil {
		return errNilState
	}
	seen := make(map[common.Address]struct{}, len(tokens))
	for _, token := range tokens {
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		if _, err := bank.TransferAll(s.state, token, s.self, recipient); err != nil {
			return err
		}
	}
	return nil
}
