package converter

import (
	"errors"
	"math/big"
	"testing"
)

func wad(n int64) *big.Int {
	w := big.NewInt(1_000_000_000_000_000_000)
	return new(big.Int).Mul(big.NewInt(n), w)
}

// quadraticBounds checks v is the floor root of the solver's quadratic:
// (2f*v + a)^2 <= a^2 + b < (2f*(v+1) + a)^2.
func quadraticBounds(t *testing.T, amountIn, reserveIn, v *big.Int, feeBps uint64) {
	t.Helper()
	f := new(big.Int).SetUint64(10_000 - feeBps)
	a := new(big.Int).Add(big.NewInt(10_000), f)
	a.Mul(a, reserveIn)
	b := new(big.Int).Mul(amountIn, big.NewInt(10_000))
	b.Mul(b, reserveIn)
	b.Mul(b, big.NewInt(4))
	b.Mul(b, f)
	radicand := new(big.Int).Mul(a, a)
	radicand.Add(radicand, b)

	lower := new(big.Int).Mul(f, v)
	lower.Lsh(lower, 1)
	lower.Add(lower, a)
	lower.Mul(lower, lower)
	if lower.Cmp(radicand) > 0 {
		t.Fatalf("swap amount %s too large for amountIn=%s reserveIn=%s", v, amountIn, reserveIn)
	}

	next := new(big.Int).Add(v, big.NewInt(1))
	upper := new(big.Int).Mul(f, next)
	upper.Lsh(upper, 1)
	upper.Add(upper, a)
	upper.Mul(upper, upper)
	if upper.Cmp(radicand) <= 0 {
		t.Fatalf("swap amount %s not maximal for amountIn=%s reserveIn=%s", v, amountIn, reserveIn)
	}
}

func TestOptimalSwapAmountScenario(t *testing.T) {
	// 50/50 pool, reserves 500, fee 30bps (leverage happy-path scenario).
	amountIn := wad(500)
	reserveIn := wad(500)
	v, err := OptimalSwapAmount(amountIn, reserveIn, 30)
	if err != nil {
		t.Fatalf("solver: %v", err)
	}
	if v.Sign() <= 0 || v.Cmp(amountIn) >= 0 {
		t.Fatalf("swap amount %s out of (0, amountIn) range", v)
	}
	quadraticBounds(t, amountIn, reserveIn, v, 30)
}

func TestOptimalSwapAmountRatioMatch(t *testing.T) {
	// After swapping v at constant-product-with-fee pricing, the holder's
	// token ratio must match the post-swap reserve ratio within rounding.
	amountIn := wad(1_000)
	reserveIn := wad(250)
	reserveOut := wad(250)
	feeBps := uint64(30)
	v, err := OptimalSwapAmount(amountIn, reserveIn, feeBps)
	if err != nil {
		t.Fatalf("solver: %v", err)
	}
	f := new(big.Int).SetUint64(10_000 - feeBps)
	// out = v*f*reserveOut / (reserveIn*10000 + v*f)
	num := new(big.Int).Mul(v, f)
	num.Mul(num, reserveOut)
	den := new(big.Int).Mul(reserveIn, big.NewInt(10_000))
	den.Add(den, new(big.Int).Mul(v, f))
	out := num.Quo(num, den)

	held := new(big.Int).Sub(amountIn, v)
	newReserveIn := new(big.Int).Add(reserveIn, v)
	newReserveOut := new(big.Int).Sub(reserveOut, out)

	lhs := new(big.Int).Mul(held, newReserveOut)
	rhs := new(big.Int).Mul(out, newReserveIn)
	diff := new(big.Int).Sub(lhs, rhs)
	diff.Abs(diff)
	// One rounding unit in v and out moves the cross products by up to the
	// sum of the factors; allow exactly that.
	tolerance := new(big.Int).Add(amountIn, reserveIn)
	tolerance.Add(tolerance, reserveOut)
	tolerance.Lsh(tolerance, 1)
	if diff.Cmp(tolerance) > 0 {
		t.Fatalf("ratio mismatch: |%s - %s| = %s > %s", lhs, rhs, diff, tolerance)
	}
}

func TestOptimalSwapAmountRejectsBadInputs(t *testing.T) {
	if _, err := OptimalSwapAmount(big.NewInt(0), wad(1), 30); !errors.Is(err, errInvalidDeposit) {
		t.Fatalf("zero amount: got %v", err)
	}
	if _, err := OptimalSwapAmount(wad(1), big.NewInt(0), 30); !errors.Is(err, ErrZeroReserves) {
		t.Fatalf("zero reserve: got %v", err)
	}
	if _, err := OptimalSwapAmount(wad(1), wad(1), 10_000); !errors.Is(err, ErrFeeRange) {
		t.Fatalf("fee range: got %v", err)
	}
}

func TestOptimalDepositWeightedBalancedHoldingsNoSwap(t *testing.T) {
	swap, zeroForOne, err := OptimalDepositWeighted(wad(100), wad(100), wad(500), wad(500), 18, 18, 30)
	if err != nil {
		t.Fatalf("weighted solver: %v", err)
	}
	if swap.Sign() != 0 {
		t.Fatalf("balanced holdings should need no swap, got %s", swap)
	}
	_ = zeroForOne
}

func TestOptimalDepositWeightedExcessSide(t *testing.T) {
	// All value on token0 against even reserves: sell roughly half of it.
	swap, zeroForOne, err := OptimalDepositWeighted(wad(100), big.NewInt(0), wad(500), wad(500), 18, 18, 0)
	if err != nil {
		t.Fatalf("weighted solver: %v", err)
	}
	if !zeroForOne {
		t.Fatalf("expected token0 to be sold")
	}
	if swap.Cmp(wad(50)) != 0 {
		t.Fatalf("fee-free even pool should sell exactly half: got %s", swap)
	}

	// Mirror case.
	swap, zeroForOne, err = OptimalDepositWeighted(big.NewInt(0), wad(100), wad(500), wad(500), 18, 18, 0)
	if err != nil {
		t.Fatalf("weighted solver: %v", err)
	}
	if zeroForOne {
		t.Fatalf("expected token1 to be sold")
	}
	if swap.Cmp(wad(50)) != 0 {
		t.Fatalf("mirror case should sell exactly half: got %s", swap)
	}
}

func TestOptimalDepositWeightedDecimalScales(t *testing.T) {
	// token1 has 6 decimals; result must come back in token1's scale.
	amount1 := new(big.Int).Mul(big.NewInt(100), big.NewInt(1_000_000))
	reserve1 := new(big.Int).Mul(big.NewInt(500), big.NewInt(1_000_000))
	swap, zeroForOne, err := OptimalDepositWeighted(big.NewInt(0), amount1, wad(500), reserve1, 18, 6, 0)
	if err != nil {
		t.Fatalf("weighted solver: %v", err)
	}
	if zeroForOne {
		t.Fatalf("expected token1 to be sold")
	}
	want := new(big.Int).Mul(big.NewInt(50), big.NewInt(1_000_000))
	if swap.Cmp(want) != 0 {
		t.Fatalf("scaled result: got %s want %s", swap, want)
	}
}
