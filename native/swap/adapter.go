package swap

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"altair/native/bank"
)

var (
	errNilState             = errors.New("swap: token state not configured")
	errNilDispatcher        = errors.New("swap: dispatcher not configured")
	errInvalidAmount        = errors.New("swap: source amount must be positive")
	errUnknownAggregator    = errors.New("swap: unknown aggregator selector")
	errBackendNotConfigured = errors.New("swap: aggregator backend not configured")
	errEmptyPayload         = errors.New("swap: payload required")
)

// Dispatcher executes a raw external call against a swap backend, forwarding
// any attached native value. The returned bytes are whatever the backend
// produced; success is the absence of an error.
type Dispatcher interface {
	Call(target common.Address, value *big.Int, input []byte) ([]byte, error)
}

// Backend wires one aggregator: the execution entry point, the address that
// must hold a spending approval, and (for legacy descriptors) where the
// source-amount word sits in the payload.
type Backend struct {
	Target          common.Address
	Spender         common.Address
	AmountWordIndex int
}

// Error carries the failing aggregator so callers can distinguish which
// backend is down; the raw backend reason is preserved for unwrapping.
type Error struct {
	Aggregator Aggregator
	Reason     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("swap: %s execution failed: %v", e.Aggregator, e.Reason)
}

func (e *Error) Unwrap() error { return e.Reason }

// Adapter provides a uniform swap surface over the configured aggregator
// backends. It owns the approval policy and the legacy amount correction; it
// never owns settlement math, since the reported output is only an estimate.
type Adapter struct {
	self       common.Address
	state      bank.State
	dispatcher Dispatcher
	backends   map[Aggregator]Backend
}

// NewAdapter constructs an adapter acting on behalf of the router address.
func NewAdapter(self common.Address) *Adapter {
	return &Adapter{
		self:     self,
		backends: make(map[Aggregator]Backend),
	}
}

// SetState wires the adapter to the token accounting surface.
func (a *Adapter) SetState(state bank.State) {
	if a == nil {
		return
	}
	a.state = state
}

// SetDispatcher wires the raw external-call executor.
func (a *Adapter) SetDispatcher(dispatcher Dispatcher) {
	if a == nil {
		return
	}
	a.dispatcher = dispatcher
}

// SetBackend registers or replaces the backend for a selector.
func (a *Adapter) SetBackend(aggregator Aggregator, backend Backend) error {
	if a == nil {
		return errUnknownAggregator
	}
	if !aggregator.Valid() {
		return errUnknownAggregator
	}
	a.backends[aggregator] = backend
	return nil
}

// Swap dispatches the payload to the selected backend after ensuring the
// spender approval covers the source amount. For legacy backends the encoded
// source-amount word is overwritten with the spendable amount (capped at the
// live balance) when it differs; quoting happens off-chain before exact
// balances are known, and downstream engines validate the encoded amount
// strictly.
//
// The returned amount is decoded from the backend's raw return data and is an
// estimate only: it drifts from the real balance by rounding-level amounts.
// Callers must re-derive authoritative amounts from actual token balances.
func (a *Adapter) Swap(aggregator Aggregator, payload []byte, srcToken common.Address, srcAmount *big.Int, value *big.Int) (*big.Int, error) {
	if a == nil || a.state == nil {
		return nil, errNilState
	}
	if a.dispatcher == nil {
		return nil, errNilDispatcher
	}
	if !aggregator.Valid() {
		return nil, errUnknownAggregator
	}
	backend, ok := a.backends[aggregator]
	if !ok {
		return nil, errBackendNotConfigured
	}
	if len(payload) == 0 {
		return nil, errEmptyPayload
	}
	if srcAmount == nil || srcAmount.Sign() <= 0 {
		return nil, errInvalidAmount
	}

	amount := new(big.Int).Set(srcAmount)
	calldata := payload
	if aggregator.Legacy() {
		live, err := a.state.BalanceOf(srcToken, a.self)
		if err != nil {
			return nil, err
		}
		if live.Cmp(amount) < 0 {
			amount = live
		}
		encoded, err := AmountWord(calldata, backend.AmountWordIndex)
		if err != nil {
			return nil, err
		}
		if encoded.Cmp(amount) != 0 {
			calldata, err = PatchAmount(calldata, backend.AmountWordIndex, amount)
			if err != nil {
				return nil, err
			}
		}
	}

	if err := bank.EnsureAllowance(a.state, srcToken, a.self, backend.Spender, amount); err != nil {
		return nil, err
	}

	returned, err := a.dispatcher.Call(backend.Target, value, calldata)
	if err != nil {
		return nil, &Error{Aggregator: aggregator, Reason: err}
	}
	return decodeReturnedAmount(returned), nil
}

// decodeReturnedAmount extracts the first 32-byte word of the return data as
// the backend's self-reported output. Short or empty returns decode to zero.
func decodeReturnedAmount(returned []byte) *big.Int {
	if len(returned) < wordLength {
		return big.NewInt(0)
	}
	word := new(uint256.Int).SetBytes(returned[:wordLength])
	return word.ToBig()
}
