package fpmath

import (
	"errors"
	"math/big"
	"testing"
)

func bigPow10(exp int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(exp), nil)
}

func TestMulWadFullPrecisionIntermediate(t *testing.T) {
	// a*b overflows 256 bits but the quotient fits.
	a := bigPow10(40)
	b := bigPow10(40)
	got, err := MulWad(a, b)
	if err != nil {
		t.Fatalf("mulwad: %v", err)
	}
	want := bigPow10(62)
	if got.Cmp(want) != 0 {
		t.Fatalf("mulwad: got %s want %s", got, want)
	}
}

func TestMulWadResultOverflow(t *testing.T) {
	a := bigPow10(60)
	b := bigPow10(60)
	if _, err := MulWad(a, b); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
}

func TestMulDivUpRoundsUp(t *testing.T) {
	got, err := MulDivUp(big.NewInt(10), big.NewInt(10), big.NewInt(3))
	if err != nil {
		t.Fatalf("muldivup: %v", err)
	}
	if got.Int64() != 34 {
		t.Fatalf("muldivup: got %d want 34", got.Int64())
	}
	exact, err := MulDivUp(big.NewInt(10), big.NewInt(9), big.NewInt(3))
	if err != nil {
		t.Fatalf("muldivup exact: %v", err)
	}
	if exact.Int64() != 30 {
		t.Fatalf("muldivup exact: got %d want 30", exact.Int64())
	}
}

func TestDivisionByZero(t *testing.T) {
	if _, err := DivWad(big.NewInt(1), big.NewInt(0)); !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("expected division by zero, got %v", err)
	}
	if _, err := MulDiv(big.NewInt(1), big.NewInt(1), nil); !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("expected division by zero for nil divisor, got %v", err)
	}
}

func TestNegativeOperandRejected(t *testing.T) {
	if _, err := MulWad(big.NewInt(-1), big.NewInt(1)); !errors.Is(err, ErrNegative) {
		t.Fatalf("expected negative rejection, got %v", err)
	}
}

func TestSqrtFloor(t *testing.T) {
	cases := []struct {
		in   int64
		want int64
	}{
		{0, 0}, {1, 1}, {3, 1}, {4, 2}, {15, 3}, {16, 4}, {17, 4}, {1 << 40, 1 << 20},
	}
	for _, tc := range cases {
		if got := Sqrt(big.NewInt(tc.in)); got.Int64() != tc.want {
			t.Fatalf("sqrt(%d): got %d want %d", tc.in, got.Int64(), tc.want)
		}
	}
}

func TestSqrtWideOperand(t *testing.T) {
	// Solver intermediates exceed 256 bits; the root must still be exact.
	root := bigPow10(40)
	square := new(big.Int).Mul(root, root)
	if got := Sqrt(square); got.Cmp(root) != 0 {
		t.Fatalf("sqrt: got %s want %s", got, root)
	}
	belowSquare := new(big.Int).Sub(square, big.NewInt(1))
	wantBelow := new(big.Int).Sub(root, big.NewInt(1))
	if got := Sqrt(belowSquare); got.Cmp(wantBelow) != 0 {
		t.Fatalf("sqrt floor: got %s want %s", got, wantBelow)
	}
}
