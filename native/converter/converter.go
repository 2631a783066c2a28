package converter

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"altair/native/bank"
	"altair/native/fpmath"
	"altair/native/swap"
)

var (
	errNilState      = errors.New("converter: state not configured")
	errNilSwapper    = errors.New("converter: swap adapter not configured")
	errNilRegistry   = errors.New("converter: extension registry not configured")
	errSwapDataShape = errors.New("converter: swap payload count does not match pool constituents")
	// ErrInsufficientOutput indicates the conversion produced less than the
	// caller-specified minimum. Checked against real balances, never against
	// backend-reported amounts.
	ErrInsufficientOutput = errors.New("converter: output below caller minimum")
)

// SwapExecutor is the slice of the swap adapter the converter drives.
type SwapExecutor interface {
	Swap(aggregator swap.Aggregator, payload []byte, srcToken common.Address, srcAmount *big.Int, value *big.Int) (*big.Int, error)
}

// Converter orchestrates value-in-one-asset to liquidity-position conversions
// and back, against whichever pool extension is registered for the LP token.
type Converter struct {
	self     common.Address
	state    bank.State
	swapper  SwapExecutor
	registry *Registry
}

// NewConverter constructs a converter operating balances held by self.
func NewConverter(self common.Address) *Converter {
	return &Converter{self: self, registry: NewRegistry()}
}

// SetState wires the token accounting surface.
func (c *Converter) SetState(state bank.State) {
	if c == nil {
		return
	}
	c.state = state
}

// SetSwapper wires the swap execution adapter.
func (c *Converter) SetSwapper(swapper SwapExecutor) {
	if c == nil {
		return
	}
	c.swapper = swapper
}

// Registry exposes the pool extension registry for wiring.
func (c *Converter) Registry() *Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// ValueToLiquidityParams describes a value-to-LP conversion (the mint path).
type ValueToLiquidityParams struct {
	LpToken    common.Address
	ValueToken common.Address
	// Amount is the value-token input funding the conversion.
	Amount *big.Int
	// MinShares is the caller's slippage floor on minted LP.
	MinShares *big.Int
	// Recipient receives residual dust after the join.
	Recipient  common.Address
	Aggregator swap.Aggregator
	// SwapData carries one payload per pool constituent, ordered as the
	// pool reports its token set. The value-token slot may be empty.
	SwapData [][]byte
}

// LiquidityToValueParams describes an LP-to-value conversion (the burn path).
type LiquidityToValueParams struct {
	LpToken    common.Address
	ValueToken common.Address
	// LpAmount is the share amount to exit.
	LpAmount *big.Int
	// MinOut is the caller's slippage floor on the value-token output; nil
	// disables the check (the caller enforces its own floor).
	MinOut     *big.Int
	Recipient  common.Address
	Aggregator swap.Aggregator
	SwapData   [][]byte
}

func (c *Converter) ready() error {
	if c == nil || c.state == nil {
		return errNilState
	}
	if c.swapper == nil {
		return errNilSwapper
	}
	if c.registry == nil {
		return errNilRegistry
	}
	return nil
}

// ValueToLiquidity converts a value-token amount held by the router into LP
// shares of the target pool: split the input across constituents, swap each
// non-matching portion, join with the real post-swap balances, enforce the
// minimum, and sweep the dust. Returns the minted share amount derived from
// the router's LP balance delta.
func (c *Converter) ValueToLiquidity(p ValueToLiquidityParams) (*big.Int, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if p.Amount == nil || p.Amount.Sign() <= 0 {
		return nil, errInvalidDeposit
	}
	pool, err := c.registry.Extension(p.LpToken)
	if err != nil {
		return nil, err
	}
	tokens, err := pool.Tokens()
	if err != nil {
		return nil, err
	}
	if err := validateReserves(tokens); err != nil {
		return nil, err
	}
	if len(p.SwapData) != len(tokens) {
		return nil, errSwapDataShape
	}

	var portions []*big.Int
	if p.Aggregator.Legacy() {
		portions, err = legacySplit(p.Amount, p.ValueToken, tokens, pool.SwapFeeBps())
		if err != nil {
			return nil, err
		}
	}
	for i, tok := range tokens {
		if tok.Address == p.ValueToken {
			// The matching portion is held, not swapped.
			continue
		}
		srcAmount := p.Amount
		if p.Aggregator.Legacy() {
			// Legacy payloads are re-patched by the adapter to the sized
			// portion.
			if portions[i].Sign() == 0 {
				continue
			}
			srcAmount = portions[i]
		}
		// Optimized payloads embed the exact amount; srcAmount only sizes
		// the approval.
		if _, err := c.swapper.Swap(p.Aggregator, p.SwapData[i], p.ValueToken, srcAmount, nil); err != nil {
			return nil, err
		}
	}

	// Reserves moved with our own swaps; read everything fresh.
	tokens, err = pool.Tokens()
	if err != nil {
		return nil, err
	}
	if err := validateReserves(tokens); err != nil {
		return nil, err
	}
	totalSupply, err := pool.TotalSupply()
	if err != nil {
		return nil, err
	}

	deposits := make([]*big.Int, len(tokens))
	var mintable *big.Int
	for i, tok := range tokens {
		balance, err := c.state.BalanceOf(tok.Address, c.self)
		if err != nil {
			return nil, err
		}
		deposits[i] = balance
		// The pool cannot mint more than its most limiting constituent
		// allows; the minimum across shares is the binding constraint.
		shares, err := fpmath.MulDivUp(balance, totalSupply, tok.Reserve)
		if err != nil {
			return nil, err
		}
		if mintable == nil || shares.Cmp(mintable) < 0 {
			mintable = shares
		}
	}
	// One unit of safety margin tolerates the pool's own rounding.
	mintable = new(big.Int).Sub(mintable, big.NewInt(1))
	if mintable.Sign() <= 0 {
		return nil, ErrInsufficientOutput
	}
	if p.MinShares != nil && mintable.Cmp(p.MinShares) < 0 {
		return nil, ErrInsufficientOutput
	}

	lpBefore, err := c.state.BalanceOf(p.LpToken, c.self)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Join(c.self, deposits); err != nil {
		return nil, err
	}
	lpAfter, err := c.state.BalanceOf(p.LpToken, c.self)
	if err != nil {
		return nil, err
	}
	// The authoritative mint is the balance delta, not the pool's return.
	minted := new(big.Int).Sub(lpAfter, lpBefore)
	if p.MinShares != nil && minted.Cmp(p.MinShares) < 0 {
		return nil, ErrInsufficientOutput
	}

	sweep := make([]common.Address, 0, len(tokens)+1)
	for _, tok := range tokens {
		sweep = append(sweep, tok.Address)
	}
	sweep = append(sweep, p.ValueToken)
	if err := NewSweeper(c.self, c.state).Sweep(sweep, p.Recipient); err != nil {
		return nil, err
	}
	return minted, nil
}

// LiquidityToValue burns LP shares held by the router and converts every
// constituent into the value token. Returns the final value-token balance,
// which the caller uses for repayment and settlement.
func (c *Converter) LiquidityToValue(p LiquidityToValueParams) (*big.Int, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if p.LpAmount == nil || p.LpAmount.Sign() <= 0 {
		return nil, errInvalidDeposit
	}
	pool, err := c.registry.Extension(p.LpToken)
	if err != nil {
		return nil, err
	}
	tokens, err := pool.Tokens()
	if err != nil {
		return nil, err
	}
	if len(p.SwapData) != len(tokens) {
		return nil, errSwapDataShape
	}

	if _, err := pool.Exit(c.self, p.LpAmount); err != nil {
		return nil, err
	}

	for i, tok := range tokens {
		if tok.Address == p.ValueToken {
			continue
		}
		balance, err := c.state.BalanceOf(tok.Address, c.self)
		if err != nil {
			return nil, err
		}
		if balance.Sign() == 0 {
			continue
		}
		if _, err := c.swapper.Swap(p.Aggregator, p.SwapData[i], tok.Address, balance, nil); err != nil {
			return nil, err
		}
	}

	final, err := c.state.BalanceOf(p.ValueToken, c.self)
	if err != nil {
		return nil, err
	}
	if p.MinOut != nil && final.Cmp(p.MinOut) < 0 {
		return nil, ErrInsufficientOutput
	}

	sweep := make([]common.Address, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Address == p.ValueToken {
			continue
		}
		sweep = append(sweep, tok.Address)
	}
	if err := NewSweeper(c.self, c.state).Sweep(sweep, p.Recipient); err != nil {
		return nil, err
	}
	return final, nil
}

// legacySplit sizes the swap leg of each non-matching constituent for
// aggregators whose payload amount the adapter re-patches. A two-token
// balanced pool holding the value token gets the closed-form optimal amount,
// which accounts for the swap's own effect on the join ratio. Deeper and
// weighted pools fall back to the weight-proportional split; the dust sweep
// absorbs the residual.
func legacySplit(amount *big.Int, valueToken common.Address, tokens []PoolToken, feeBps uint64) ([]*big.Int, error) {
	portions := make([]*big.Int, len(tokens))
	if len(tokens) == 2 && tokens[0].WeightBps == tokens[1].WeightBps {
		valueIdx := -1
		for i, tok := range tokens {
			if tok.Address == valueToken {
				valueIdx = i
			}
		}
		if valueIdx >= 0 {
			swapAmount, err := OptimalSwapAmount(amount, tokens[valueIdx].Reserve, feeBps)
			if err != nil {
				return nil, err
			}
			portions[valueIdx] = big.NewInt(0)
			portions[1-valueIdx] = swapAmount
			return portions, nil
		}
	}
	for i, tok := range tokens {
		portion, err := fpmath.MulDiv(amount, new(big.Int).SetUint64(tok.WeightBps), bpsScale)
		if err != nil {
			return nil, err
		}
		portions[i] = portion
	}
	return portions, nil
}

func validateReserves(tokens []PoolToken) error {
	if len(tokens) == 0 {
		return ErrZeroReserves
	}
	for _, tok := range tokens {
		if tok.Reserve == nil || tok.Reserve.Sign() <= 0 {
			return ErrZeroReserves
		}
	}
	return nil
}
