package fpmath

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

var (
	// ErrOverflow indicates a result exceeded the 256-bit unsigned range.
	// Operations never silently wrap.
	ErrOverflow = errors.New("fpmath: arithmetic overflow")
	// ErrDivisionByZero indicates a zero divisor.
	ErrDivisionByZero = errors.New("fpmath: division by zero")
	// ErrNegative indicates a negative operand; all amounts are unsigned.
	ErrNegative = errors.New("fpmath: negative operand")
)

// Wad is the fixed-point scale (1e18) shared by every amount and rate in the
// router.
var Wad = big.NewInt(1_000_000_000_000_000_000)

// check bounds an operand to the unsigned 256-bit range.
func check(x *big.Int) error {
	if x == nil {
		return ErrOverflow
	}
	if x.Sign() < 0 {
		return ErrNegative
	}
	if _, overflow := uint256.FromBig(x); overflow {
		return ErrOverflow
	}
	return nil
}

// MulWad returns floor(a*b / 1e18). The product is taken at full precision;
// only a result outside the 256-bit range fails.
func MulWad(a, b *big.Int) (*big.Int, error) {
	return MulDiv(a, b, Wad)
}

// DivWad returns floor(a*1e18 / b).
func DivWad(a, b *big.Int) (*big.Int, error) {
	return MulDiv(a, Wad, b)
}

// MulDiv returns floor(a*b / d) with a full-precision intermediate product.
func MulDiv(a, b, d *big.Int) (*big.Int, error) {
	if err := check(a); err != nil {
		return nil, err
	}
	if err := check(b); err != nil {
		return nil, err
	}
	if d == nil || d.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	if d.Sign() < 0 {
		return nil, ErrNegative
	}
	result := new(big.Int).Mul(a, b)
	result.Quo(result, d)
	if err := check(result); err != nil {
		return nil, err
	}
	return result, nil
}

// MulDivUp returns ceil(a*b / d). Used wherever rounding down would
// under-credit the protocol and open a shortfall.
func MulDivUp(a, b, d *big.Int) (*big.Int, error) {
	if err := check(a); err != nil {
		return nil, err
	}
	if err := check(b); err != nil {
		return nil, err
	}
	if d == nil || d.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	if d.Sign() < 0 {
		return nil, ErrNegative
	}
	product := new(big.Int).Mul(a, b)
	quo, rem := new(big.Int).QuoRem(product, d, new(big.Int))
	if rem.Sign() != 0 {
		quo.Add(quo, big.NewInt(1))
	}
	if err := check(quo); err != nil {
		return nil, err
	}
	return quo, nil
}

// Sqrt returns the integer floor square root of x using Newton's method. The
// operand may be wider than 256 bits; intermediate solver products rely on
// that. Non-positive inputs yield zero.
func Sqrt(x *big.Int) *big.Int {
	if x == nil || x.Sign() <= 0 {
		return big.NewInt(0)
	}
	if x.Cmp(big.NewInt(3)) <= 0 {
		return big.NewInt(1)
	}
	// Seed above the true root so the iteration converges from above.
	z := new(big.Int).Lsh(big.NewInt(1), uint(x.BitLen()/2+1))
	y := new(big.Int)
	for {
		y.Quo(x, z)
		y.Add(y, z)
		y.Rsh(y, 1)
		if y.Cmp(z) >= 0 {
			return z
		}
		z.Set(y)
	}
}
