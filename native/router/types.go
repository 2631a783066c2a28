package router

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"altair/native/swap"
)

var (
	// ErrDeadlineExpired indicates the caller-supplied deadline passed before
	// execution began. Checked before any state-changing action.
	ErrDeadlineExpired = errors.New("router: transaction deadline expired")
	// ErrCallerNotSelf indicates a callback that was not initiated by this
	// router's own earlier call; a forged or misrouted settlement attempt.
	ErrCallerNotSelf = errors.New("router: callback not initiated by this router")
	// ErrCallerNotLedger indicates the callback's immediate caller is not the
	// ledger the intent declared.
	ErrCallerNotLedger = errors.New("router: callback caller is not the expected ledger")
	// ErrMalformedIntent indicates an intent payload that failed to decode.
	ErrMalformedIntent = errors.New("router: malformed intent payload")
	// ErrInsufficientProceeds indicates liquidation proceeds below the repay
	// amount owed to the borrowable ledger.
	ErrInsufficientProceeds = errors.New("router: liquidation proceeds below repay amount")

	errNilState       = errors.New("router: state not configured")
	errBadAggregator  = errors.New("router: unknown swap aggregator")
	errNilConverter   = errors.New("router: converter not configured")
	errUnknownLedger  = errors.New("router: ledger not registered")
	errInvalidAmount  = errors.New("router: amount must be positive")
	errNoPermitWiring = errors.New("router: permit supplied but no consumer configured")
)

// BorrowableLedger is the value-token side of a lending pair: it lends the
// stable asset, triggers the borrow and liquidate callbacks, and tracks
// outstanding debt. Interest accrual is owned by the ledger, never recomputed
// here.
type BorrowableLedger interface {
	Address() common.Address
	// Underlying is the stable value token the ledger lends.
	Underlying() common.Address
	// Borrow transfers borrowed value to the receiver and, when the receiver
	// is a router, re-enters it through the borrow callback before
	// finalizing. Returns the callback's result.
	Borrow(borrower, receiver common.Address, amount *big.Int, intent []byte) (*big.Int, error)
	// Liquidate repays on behalf of the borrower and seizes collateral
	// receipts to the receiver, re-entering through the liquidate callback
	// when an intent payload is attached.
	Liquidate(borrower, receiver common.Address, repayAmount *big.Int, intent []byte) (*big.Int, error)
	// BorrowBalance returns the borrower's principal and interest-inclusive
	// total owed.
	BorrowBalance(borrower common.Address) (principal, total *big.Int, err error)
	// AccrueInterest brings the ledger's indexes up to date; invoked before
	// any repay-cap computation.
	AccrueInterest() error
}

// CollateralLedger custodies LP collateral and issues pool-share receipt
// tokens against it. Its receipt token is addressed by Address itself.
type CollateralLedger interface {
	Address() common.Address
	// Underlying is the LP token backing the receipts.
	Underlying() common.Address
	// ExchangeRate is the wad-scaled LP assets redeemable per receipt share.
	ExchangeRate() (*big.Int, error)
	// Deposit locks LP assets from the caller and mints receipt shares to
	// the recipient.
	Deposit(assets *big.Int, recipient common.Address) (*big.Int, error)
	// FlashRedeem transfers LP assets to the redeemer before the backing
	// shares are settled. A non-empty intent re-enters the redeemer through
	// the redeem callback and the callback's result is relayed back.
	FlashRedeem(redeemer common.Address, assets *big.Int, intent []byte) (*big.Int, error)
	// SettleRedeem burns the owner's receipt shares backing a completed
	// flash redeem.
	SettleRedeem(owner common.Address, assets *big.Int) error
}

// Permit is an optional pre-authorization consumed before dispatching into
// the ledger, sparing the caller a separate approval transaction.
type Permit struct {
	Token     common.Address
	Owner     common.Address
	Value     *big.Int
	Deadline  int64
	Signature []byte
}

// PermitConsumer applies a permit, granting the spender an allowance over the
// owner's token.
type PermitConsumer interface {
	Consume(permit Permit, spender common.Address) error
}

// LeverageIntent describes a borrow-and-convert operation. Encoded by the
// initiator, carried opaquely through the ledger's borrow call, and decoded
// only inside the matching callback. Immutable once encoded.
type LeverageIntent struct {
	LpToken     common.Address
	Collateral  common.Address
	Borrowable  common.Address
	Recipient   common.Address
	LpAmountMin *big.Int
	Aggregator  swap.Aggregator
	SwapData    [][]byte
}

// DeleverageIntent describes a redeem-and-convert operation flowing through
// the collateral ledger's redeem callback.
type DeleverageIntent struct {
	LpToken      common.Address
	Collateral   common.Address
	Borrowable   common.Address
	Recipient    common.Address
	RedeemShares *big.Int
	UsdAmountMin *big.Int
	Aggregator   swap.Aggregator
	SwapData     [][]byte
}

// LiquidationIntent describes a flash-liquidation flowing through the
// borrowable ledger's liquidate callback.
type LiquidationIntent struct {
	LpToken     common.Address
	Collateral  common.Address
	Borrowable  common.Address
	Recipient   common.Address
	Borrower    common.Address
	RepayAmount *big.Int
	Aggregator  swap.Aggregator
	SwapData    [][]byte
}

// LeverageParams are the caller-facing arguments of the leverage entry point.
type LeverageParams struct {
	LpToken     common.Address
	Collateral  common.Address
	Borrowable  common.Address
	UsdAmount   *big.Int
	LpAmountMin *big.Int
	Deadline    int64
	Permit      *Permit
	Aggregator  swap.Aggregator
	SwapData    [][]byte
}

// DeleverageParams are the caller-facing arguments of the deleverage entry
// point. RedeemShares is denominated in collateral receipt shares.
type DeleverageParams struct {
	LpToken      common.Address
	Collateral   common.Address
	Borrowable   common.Address
	RedeemShares *big.Int
	UsdAmountMin *big.Int
	Deadline     int64
	Permit       *Permit
	Aggregator   swap.Aggregator
	SwapData     [][]byte
}

// LiquidateParams are the caller-facing arguments of the direct liquidation
// entry point; the caller funds the repayment itself.
type LiquidateParams struct {
	Collateral  common.Address
	Borrowable  common.Address
	Borrower    common.Address
	RepayAmount *big.Int
	Deadline    int64
	Permit      *Permit
}

// FlashLiquidateParams are the caller-facing arguments of the
// flash-liquidation entry point; repayment is funded from the seized
// collateral itself.
type FlashLiquidateParams struct {
	LpToken     common.Address
	Collateral  common.Address
	Borrowable  common.Address
	Borrower    common.Address
	RepayAmount *big.Int
	Deadline    int64
	Aggregator  swap.Aggregator
	SwapData    [][]byte
}
