package converter

import (
	"errors"
	"math/big"

	"altair/native/fpmath"
)

var (
	errInvalidDeposit = errors.New("converter: deposit amount must be positive")
	// ErrFeeRange indicates a swap fee at or above 100%.
	ErrFeeRange = errors.New("converter: swap fee out of range")
)

var bpsScale = big.NewInt(10_000)

// OptimalSwapAmount solves how much of amountIn should be swapped into the
// paired asset so that, after the swap, the holder's two-asset ratio matches
// the pool reserve ratio. Closed form against the constant-product invariant
// adjusted for the pool fee:
//
//	f = 10000 - feeBps
//	a = (10000 + f) * reserveIn
//	b = amountIn * 10000 * reserveIn * 4 * f
//	swap = (sqrt(a*a + b) - a) / (2*f)
//
// Intermediates exceed 256 bits for realistic reserves and are taken at
// arbitrary precision.
func OptimalSwapAmount(amountIn, reserveIn *big.Int, feeBps uint64) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, errInvalidDeposit
	}
	if reserveIn == nil || reserveIn.Sign() <= 0 {
		return nil, ErrZeroReserves
	}
	if feeBps >= 10_000 {
		return nil, ErrFeeRange
	}
	f := new(big.Int).SetUint64(10_000 - feeBps)

	a := new(big.Int).Add(bpsScale, f)
	a.Mul(a, reserveIn)

	b := new(big.Int).Mul(amountIn, bpsScale)
	b.Mul(b, reserveIn)
	b.Mul(b, big.NewInt(4))
	b.Mul(b, f)

	radicand := new(big.Int).Mul(a, a)
	radicand.Add(radicand, b)

	swap := fpmath.Sqrt(radicand)
	swap.Sub(swap, a)
	swap.Quo(swap, new(big.Int).Lsh(f, 1))
	if swap.Sign() < 0 {
		swap.SetInt64(0)
	}
	return swap, nil
}

// OptimalDepositWeighted generalizes the single-sided solver to pools that are
// not 50/50 constant-product. Amounts and reserves are normalized to a common
// 18-decimal scale, the in-excess side is determined against the reserve
// ratio, and the swap amount that equalizes the holding ratio is solved from a
// fixed-price approximation of the pool invariant:
//
//	swap = (rOut*amtIn - rIn*amtOut) * 10000 / (rOut * (20000 - feeBps))
//
// The heuristic deliberately ignores the swap's own price impact; the caller
// re-reads balances after execution, so the residual is swept as dust. The
// returned flag reports whether token0 is the side being sold.
func OptimalDepositWeighted(amount0, amount1, reserve0, reserve1 *big.Int, decimals0, decimals1 uint8, feeBps uint64) (*big.Int, bool, error) {
	if amount0 == nil || amount1 == nil || amount0.Sign() < 0 || amount1.Sign() < 0 {
		return nil, false, errInvalidDeposit
	}
	if reserve0 == nil || reserve1 == nil || reserve0.Sign() <= 0 || reserve1.Sign() <= 0 {
		return nil, false, ErrZeroReserves
	}
	if feeBps >= 10_000 {
		return nil, false, ErrFeeRange
	}

	a0 := scaleTo18(amount0, decimals0)
	a1 := scaleTo18(amount1, decimals1)
	r0 := scaleTo18(reserve0, decimals0)
	r1 := scaleTo18(reserve1, decimals1)

	// Cross products decide which side is over-weighted versus the pool.
	lhs := new(big.Int).Mul(a0, r1)
	rhs := new(big.Int).Mul(a1, r0)

	denomFactor := new(big.Int).SetUint64(20_000 - feeBps)
	switch lhs.Cmp(rhs) {
	case 0:
		return big.NewInt(0), true, nil
	case 1:
		// token0 in excess: sell token0.
		num := new(big.Int).Sub(lhs, rhs)
		num.Mul(num, bpsScale)
		den := new(big.Int).Mul(r1, denomFactor)
		swap := num.Quo(num, den)
		return scaleFrom18(swap, decimals0), true, nil
	default:
		// token1 in excess: sell token1.
		num := new(big.Int).Sub(rhs, lhs)
		num.Mul(num, bpsScale)
		den := new(big.Int).Mul(r0, denomFactor)
		swap := num.Quo(num, den)
		return scaleFrom18(swap, decimals1), false, nil
	}
}

func scaleTo18(amount *big.Int, decimals uint8) *big.Int {
	scaled := new(big.Int).Set(amount)
	if decimals < 18 {
		factor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(18-decimals)), nil)
		scaled.Mul(scaled, factor)
	} else if decimals > 18 {
		factor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals-18)), nil)
		scaled.Quo(scaled, factor)
	}
	return scaled
}

func scaleFrom18(amount *big.Int, decimals uint8) *big.Int {
	scaled := new(big.Int).Set(amount)
	if decimals < 18 {
		factor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(18-decimals)), nil)
		scaled.Quo(scaled, factor)
	} else if decimals > 18 {
		factor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals-18)), nil)
		scaled.Mul(scaled, factor)
	}
	return scaled
}
