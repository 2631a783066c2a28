package router

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"altair/native/bank"
	nativecommon "altair/native/common"
	"altair/native/converter"
	"altair/native/fpmath"
	"altair/native/swap"
	"altair/observability"
	"altair/observability/logging"
)

const moduleName = "router"

var tracer = otel.Tracer("altair/native/router")

// PositionConverter is the slice of the converter the router drives.
type PositionConverter interface {
	ValueToLiquidity(p converter.ValueToLiquidityParams) (*big.Int, error)
	LiquidityToValue(p converter.LiquidityToValueParams) (*big.Int, error)
}

// callTicket is the single-use sentinel minted by an entry point before it
// dispatches into a ledger. The ledger's re-entrant callback must consume the
// ticket exactly once; anything else is a forged settlement attempt.
type callTicket struct {
	id       uuid.UUID
	kind     intentKind
	ledger   common.Address
	consumed bool
}

// Router orchestrates leverage, deleverage and liquidation flows across a
// borrowable/collateral ledger pair. It holds no funds between transactions;
// every flow ends with residual balances swept out.
type Router struct {
	self      common.Address
	state     bank.State
	converter PositionConverter
	permits   PermitConsumer
	pauses    nativecommon.PauseView

	borrowables map[common.Address]BorrowableLedger
	collaterals map[common.Address]CollateralLedger

	quota nativecommon.Quota
	usage map[common.Address]nativecommon.QuotaNow

	pending *callTicket
	now     func() time.Time
	logger  *slog.Logger
}

// NewRouter constructs a router whose balances are accounted under self.
func NewRouter(self common.Address) *Router {
	return &Router{
		self:        self,
		borrowables: make(map[common.Address]BorrowableLedger),
		collaterals: make(map[common.Address]CollateralLedger),
		usage:       make(map[common.Address]nativecommon.QuotaNow),
		now:         time.Now,
		logger:      slog.Default(),
	}
}

// SetState wires the token accounting surface.
func (r *Router) SetState(state bank.State) {
	if r == nil {
		return
	}
	r.state = state
}

// SetConverter wires the position converter.
func (r *Router) SetConverter(c PositionConverter) {
	if r == nil {
		return
	}
	r.converter = c
}

// SetPermits wires the optional permit consumer.
func (r *Router) SetPermits(p PermitConsumer) {
	if r == nil {
		return
	}
	r.permits = p
}

// SetPauses wires the module pause view.
func (r *Router) SetPauses(p nativecommon.PauseView) {
	if r == nil {
		return
	}
	r.pauses = p
}

// SetQuota installs a per-address operations quota; the zero Quota disables
// enforcement.
func (r *Router) SetQuota(q nativecommon.Quota) {
	if r == nil {
		return
	}
	r.quota = q
}

// SetClock overrides the time source; nil restores the wall clock.
func (r *Router) SetClock(now func() time.Time) {
	if r == nil {
		return
	}
	if now == nil {
		now = time.Now
	}
	r.now = now
}

// SetLogger overrides the structured logger; nil restores the default.
func (r *Router) SetLogger(logger *slog.Logger) {
	if r == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	r.logger = logger
}

// RegisterBorrowable admits a borrowable ledger for routing.
func (r *Router) RegisterBorrowable(ledger BorrowableLedger) {
	if r == nil || ledger == nil {
		return
	}
	r.borrowables[ledger.Address()] = ledger
}

// RegisterCollateral admits a collateral ledger for routing.
func (r *Router) RegisterCollateral(ledger CollateralLedger) {
	if r == nil || ledger == nil {
		return
	}
	r.collaterals[ledger.Address()] = ledger
}

func (r *Router) ready() error {
	if r == nil || r.state == nil {
		return errNilState
	}
	if r.converter == nil {
		return errNilConverter
	}
	return nil
}

// checkDeadline rejects once the current time is strictly past the deadline.
func (r *Router) checkDeadline(deadline int64) error {
	if r.now().Unix() > deadline {
		return ErrDeadlineExpired
	}
	return nil
}

func (r *Router) checkQuota(caller common.Address) error {
	if !r.quota.Enabled() {
		return nil
	}
	epoch := uint64(r.now().Unix()) / uint64(r.quota.EpochSeconds)
	next, err := nativecommon.CheckQuota(r.quota, epoch, r.usage[caller], 1)
	if err != nil {
		return err
	}
	r.usage[caller] = next
	return nil
}

func (r *Router) consumePermit(permit *Permit) error {
	if permit == nil {
		return nil
	}
	if r.permits == nil {
		return errNoPermitWiring
	}
	return r.permits.Consume(*permit, r.self)
}

func (r *Router) mintTicket(kind intentKind, ledger common.Address) *callTicket {
	t := &callTicket{id: uuid.New(), kind: kind, ledger: ledger}
	r.pending = t
	return t
}

func (r *Router) clearTicket(t *callTicket) {
	if r.pending == t {
		r.pending = nil
	}
}

// consumeTicket validates and burns the pending sentinel. Kind mismatches and
// replays surface as ErrCallerNotSelf; a live ticket presented by the wrong
// ledger surfaces as ErrCallerNotLedger.
func (r *Router) consumeTicket(kind intentKind, caller common.Address) error {
	t := r.pending
	if t == nil || t.consumed || t.kind != kind {
		return ErrCallerNotSelf
	}
	if caller != t.ledger {
		return ErrCallerNotLedger
	}
	t.consumed = true
	return nil
}

func (r *Router) rejectCallback(op string, caller common.Address, err error) error {
	r.logger.Warn("router callback rejected",
		"operation", op,
		logging.MaskField("caller", caller.Hex()),
		"reason", err.Error(),
	)
	return err
}

func (r *Router) finish(span trace.Span, kind string, started time.Time, err error) {
	if err != nil {
		span.RecordError(err)
		var swapErr *swap.Error
		if errors.As(err, &swapErr) {
			observability.Router().RecordSwapFailure(swapErr.Aggregator.String())
		}
	}
	observability.Router().Observe(kind, r.now().Sub(started), err)
	span.End()
}

// Leverage borrows value from the borrowable ledger and, through the borrow
// callback, converts it into LP collateral credited to the caller. Returns
// the collateral receipt shares minted.
func (r *Router) Leverage(ctx context.Context, caller common.Address, p LeverageParams) (shares *big.Int, err error) {
	_, span := tracer.Start(ctx, "router.Leverage",
		trace.WithAttributes(attribute.String("aggregator", p.Aggregator.String())))
	started := r.now()
	defer func() { r.finish(span, "leverage", started, err) }()

	if err = r.ready(); err != nil {
		return nil, err
	}
	if err = r.checkDeadline(p.Deadline); err != nil {
		return nil, err
	}
	if err = nativecommon.Guard(r.pauses, moduleName); err != nil {
		return nil, err
	}
	if err = r.checkQuota(caller); err != nil {
		return nil, err
	}
	borrowable, ok := r.borrowables[p.Borrowable]
	if !ok {
		return nil, errUnknownLedger
	}
	if _, ok := r.collaterals[p.Collateral]; !ok {
		return nil, errUnknownLedger
	}
	if p.UsdAmount == nil || p.UsdAmount.Sign() <= 0 {
		return nil, errInvalidAmount
	}
	if !p.Aggregator.Valid() {
		return nil, errBadAggregator
	}
	if err = r.consumePermit(p.Permit); err != nil {
		return nil, err
	}

	intent := &LeverageIntent{
		LpToken:     p.LpToken,
		Collateral:  p.Collateral,
		Borrowable:  p.Borrowable,
		Recipient:   caller,
		LpAmountMin: p.LpAmountMin,
		Aggregator:  p.Aggregator,
		SwapData:    p.SwapData,
	}
	data, err := intent.Encode()
	if err != nil {
		return nil, err
	}

	ticket := r.mintTicket(kindLeverage, p.Borrowable)
	defer r.clearTicket(ticket)
	return borrowable.Borrow(caller, r.self, p.UsdAmount, data)
}

// BorrowCallback is re-entered by the borrowable ledger mid-borrow, with the
// borrowed value already credited to the router. It converts the value into
// LP shares and deposits them as collateral for the intent's recipient.
func (r *Router) BorrowCallback(caller, sender common.Address, borrowAmount *big.Int, data []byte) (*big.Int, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if sender != r.self {
		return nil, r.rejectCallback("borrow", caller, ErrCallerNotSelf)
	}
	if err := r.consumeTicket(kindLeverage, caller); err != nil {
		return nil, r.rejectCallback("borrow", caller, err)
	}
	intent, err := DecodeLeverageIntent(data)
	if err != nil {
		return nil, err
	}
	if caller != intent.Borrowable {
		return nil, r.rejectCallback("borrow", caller, ErrCallerNotLedger)
	}
	borrowable, ok := r.borrowables[intent.Borrowable]
	if !ok {
		return nil, errUnknownLedger
	}
	collateral, ok := r.collaterals[intent.Collateral]
	if !ok {
		return nil, errUnknownLedger
	}

	minted, err := r.converter.ValueToLiquidity(converter.ValueToLiquidityParams{
		LpToken:    intent.LpToken,
		ValueToken: borrowable.Underlying(),
		Amount:     borrowAmount,
		MinShares:  intent.LpAmountMin,
		Recipient:  intent.Recipient,
		Aggregator: intent.Aggregator,
		SwapData:   intent.SwapData,
	})
	if err != nil {
		return nil, err
	}
	if err := bank.EnsureAllowance(r.state, intent.LpToken, r.self, intent.Collateral, minted); err != nil {
		return nil, err
	}
	return collateral.Deposit(minted, intent.Recipient)
}

// Deleverage flash-redeems LP collateral through the collateral ledger and,
// through the redeem callback, converts it to value, repays the caller's debt
// and returns the surplus. Returns the value produced by the conversion.
func (r *Router) Deleverage(ctx context.Context, caller common.Address, p DeleverageParams) (out *big.Int, err error) {
	_, span := tracer.Start(ctx, "router.Deleverage",
		trace.WithAttributes(attribute.String("aggregator", p.Aggregator.String())))
	started := r.now()
	defer func() { r.finish(span, "deleverage", started, err) }()

	if err = r.ready(); err != nil {
		return nil, err
	}
	if err = r.checkDeadline(p.Deadline); err != nil {
		return nil, err
	}
	if err = nativecommon.Guard(r.pauses, moduleName); err != nil {
		return nil, err
	}
	if err = r.checkQuota(caller); err != nil {
		return nil, err
	}
	collateral, ok := r.collaterals[p.Collateral]
	if !ok {
		return nil, errUnknownLedger
	}
	if _, ok := r.borrowables[p.Borrowable]; !ok {
		return nil, errUnknownLedger
	}
	if p.RedeemShares == nil || p.RedeemShares.Sign() <= 0 {
		return nil, errInvalidAmount
	}
	if !p.Aggregator.Valid() {
		return nil, errBadAggregator
	}
	if err = r.consumePermit(p.Permit); err != nil {
		return nil, err
	}

	rate, err := collateral.ExchangeRate()
	if err != nil {
		return nil, err
	}
	assets, err := fpmath.MulWad(p.RedeemShares, rate)
	if err != nil {
		return nil, err
	}
	if assets.Sign() <= 0 {
		return nil, errInvalidAmount
	}

	intent := &DeleverageIntent{
		LpToken:      p.LpToken,
		Collateral:   p.Collateral,
		Borrowable:   p.Borrowable,
		Recipient:    caller,
		RedeemShares: p.RedeemShares,
		UsdAmountMin: p.UsdAmountMin,
		Aggregator:   p.Aggregator,
		SwapData:     p.SwapData,
	}
	data, err := intent.Encode()
	if err != nil {
		return nil, err
	}

	ticket := r.mintTicket(kindDeleverage, p.Collateral)
	defer r.clearTicket(ticket)
	return collateral.FlashRedeem(r.self, assets, data)
}

// RedeemCallback is re-entered by the collateral ledger mid-redeem, with the
// LP assets already transferred to the router. It converts them to value,
// repays the recipient's outstanding debt, forwards the surplus and settles
// the flash-redeemed shares.
func (r *Router) RedeemCallback(caller, sender common.Address, redeemAmount *big.Int, data []byte) (*big.Int, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if sender != r.self {
		return nil, r.rejectCallback("redeem", caller, ErrCallerNotSelf)
	}
	if err := r.consumeTicket(kindDeleverage, caller); err != nil {
		return nil, r.rejectCallback("redeem", caller, err)
	}
	intent, err := DecodeDeleverageIntent(data)
	if err != nil {
		return nil, err
	}
	if caller != intent.Collateral {
		return nil, r.rejectCallback("redeem", caller, ErrCallerNotLedger)
	}
	collateral, ok := r.collaterals[intent.Collateral]
	if !ok {
		return nil, errUnknownLedger
	}
	borrowable, ok := r.borrowables[intent.Borrowable]
	if !ok {
		return nil, errUnknownLedger
	}

	usdToken := borrowable.Underlying()
	usdOut, err := r.converter.LiquidityToValue(converter.LiquidityToValueParams{
		LpToken:    intent.LpToken,
		ValueToken: usdToken,
		LpAmount:   redeemAmount,
		MinOut:     intent.UsdAmountMin,
		Recipient:  intent.Recipient,
		Aggregator: intent.Aggregator,
		SwapData:   intent.SwapData,
	})
	if err != nil {
		return nil, err
	}

	// The ledger owns accrual; bring it current before reading the owed
	// total so the repay cap is exact.
	if err := borrowable.AccrueInterest(); err != nil {
		return nil, err
	}
	_, owed, err := borrowable.BorrowBalance(intent.Recipient)
	if err != nil {
		return nil, err
	}
	repay := new(big.Int).Set(usdOut)
	if owed.Cmp(repay) < 0 {
		repay = new(big.Int).Set(owed)
	}
	if repay.Sign() > 0 {
		if err := r.state.Transfer(usdToken, r.self, intent.Borrowable, repay); err != nil {
			return nil, err
		}
	}
	// Anything beyond the debt goes back to the position owner.
	if _, err := bank.TransferAll(r.state, usdToken, r.self, intent.Recipient); err != nil {
		return nil, err
	}
	if err := collateral.SettleRedeem(intent.Recipient, redeemAmount); err != nil {
		return nil, err
	}
	return usdOut, nil
}

// Liquidate repays a delinquent borrower's debt with value funded by the
// caller and seizes collateral receipts to the caller. Returns the seized
// share amount.
func (r *Router) Liquidate(ctx context.Context, caller common.Address, p LiquidateParams) (seized *big.Int, err error) {
	_, span := tracer.Start(ctx, "router.Liquidate")
	started := r.now()
	defer func() { r.finish(span, "liquidate", started, err) }()

	if err = r.ready(); err != nil {
		return nil, err
	}
	if err = r.checkDeadline(p.Deadline); err != nil {
		return nil, err
	}
	if err = nativecommon.Guard(r.pauses, moduleName); err != nil {
		return nil, err
	}
	if err = r.checkQuota(caller); err != nil {
		return nil, err
	}
	borrowable, ok := r.borrowables[p.Borrowable]
	if !ok {
		return nil, errUnknownLedger
	}
	if _, ok := r.collaterals[p.Collateral]; !ok {
		return nil, errUnknownLedger
	}
	if p.RepayAmount == nil || p.RepayAmount.Sign() <= 0 {
		return nil, errInvalidAmount
	}
	if err = r.consumePermit(p.Permit); err != nil {
		return nil, err
	}

	if err = borrowable.AccrueInterest(); err != nil {
		return nil, err
	}
	_, owed, err := borrowable.BorrowBalance(p.Borrower)
	if err != nil {
		return nil, err
	}
	repay := new(big.Int).Set(p.RepayAmount)
	if owed.Cmp(repay) < 0 {
		repay = new(big.Int).Set(owed)
	}
	if repay.Sign() == 0 {
		return nil, errInvalidAmount
	}
	// The caller funds the repayment directly; seized receipts land with the
	// caller too. No intent, no re-entry.
	if err = r.state.Transfer(borrowable.Underlying(), caller, p.Borrowable, repay); err != nil {
		return nil, err
	}
	return borrowable.Liquidate(p.Borrower, caller, repay, nil)
}

// FlashLiquidate liquidates a delinquent borrower funding the repayment from
// the seized collateral itself: the ledger seizes receipts to the router,
// the liquidate callback unwinds them to value, repays the ledger and pays
// the caller the liquidation bonus. Returns the value produced.
func (r *Router) FlashLiquidate(ctx context.Context, caller common.Address, p FlashLiquidateParams) (out *big.Int, err error) {
	_, span := tracer.Start(ctx, "router.FlashLiquidate",
		trace.WithAttributes(attribute.String("aggregator", p.Aggregator.String())))
	started := r.now()
	defer func() { r.finish(span, "flash_liquidate", started, err) }()

	if err = r.ready(); err != nil {
		return nil, err
	}
	if err = r.checkDeadline(p.Deadline); err != nil {
		return nil, err
	}
	if err = nativecommon.Guard(r.pauses, moduleName); err != nil {
		return nil, err
	}
	if err = r.checkQuota(caller); err != nil {
		return nil, err
	}
	borrowable, ok := r.borrowables[p.Borrowable]
	if !ok {
		return nil, errUnknownLedger
	}
	if _, ok := r.collaterals[p.Collateral]; !ok {
		return nil, errUnknownLedger
	}
	if p.RepayAmount == nil || p.RepayAmount.Sign() <= 0 {
		return nil, errInvalidAmount
	}
	if !p.Aggregator.Valid() {
		return nil, errBadAggregator
	}

	if err = borrowable.AccrueInterest(); err != nil {
		return nil, err
	}
	_, owed, err := borrowable.BorrowBalance(p.Borrower)
	if err != nil {
		return nil, err
	}
	repay := new(big.Int).Set(p.RepayAmount)
	if owed.Cmp(repay) < 0 {
		repay = new(big.Int).Set(owed)
	}
	if repay.Sign() == 0 {
		return nil, errInvalidAmount
	}

	intent := &LiquidationIntent{
		LpToken:     p.LpToken,
		Collateral:  p.Collateral,
		Borrowable:  p.Borrowable,
		Recipient:   caller,
		Borrower:    p.Borrower,
		RepayAmount: repay,
		Aggregator:  p.Aggregator,
		SwapData:    p.SwapData,
	}
	data, err := intent.Encode()
	if err != nil {
		return nil, err
	}

	ticket := r.mintTicket(kindLiquidation, p.Borrowable)
	defer r.clearTicket(ticket)
	return borrowable.Liquidate(p.Borrower, r.self, repay, data)
}

// LiquidateCallback is re-entered by the borrowable ledger mid-liquidation,
// with the seized collateral receipts already credited to the router but the
// repayment still owed. It unwinds the receipts to value, repays the ledger
// and forwards the bonus to the liquidator.
func (r *Router) LiquidateCallback(caller, sender common.Address, seizedShares, repayAmount *big.Int, data []byte) (*big.Int, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if sender != r.self {
		return nil, r.rejectCallback("liquidate", caller, ErrCallerNotSelf)
	}
	if err := r.consumeTicket(kindLiquidation, caller); err != nil {
		return nil, r.rejectCallback("liquidate", caller, err)
	}
	intent, err := DecodeLiquidationIntent(data)
	if err != nil {
		return nil, err
	}
	if caller != intent.Borrowable {
		return nil, r.rejectCallback("liquidate", caller, ErrCallerNotLedger)
	}
	collateral, ok := r.collaterals[intent.Collateral]
	if !ok {
		return nil, errUnknownLedger
	}
	borrowable, ok := r.borrowables[intent.Borrowable]
	if !ok {
		return nil, errUnknownLedger
	}
	if seizedShares == nil || seizedShares.Sign() <= 0 {
		return nil, errInvalidAmount
	}

	rate, err := collateral.ExchangeRate()
	if err != nil {
		return nil, err
	}
	assets, err := fpmath.MulWad(seizedShares, rate)
	if err != nil {
		return nil, err
	}
	// Hand the seized receipts back to the ledger backing the redeem, then
	// pull the LP assets out without re-entering (no nested intent).
	if err := r.state.Transfer(intent.Collateral, r.self, intent.Collateral, seizedShares); err != nil {
		return nil, err
	}
	if _, err := collateral.FlashRedeem(r.self, assets, nil); err != nil {
		return nil, err
	}

	usdToken := borrowable.Underlying()
	usdOut, err := r.converter.LiquidityToValue(converter.LiquidityToValueParams{
		LpToken:    intent.LpToken,
		ValueToken: usdToken,
		LpAmount:   assets,
		MinOut:     nil,
		Recipient:  intent.Recipient,
		Aggregator: intent.Aggregator,
		SwapData:   intent.SwapData,
	})
	if err != nil {
		return nil, err
	}
	repay := repayAmount
	if repay == nil {
		repay = intent.RepayAmount
	}
	if usdOut.Cmp(repay) < 0 {
		return nil, ErrInsufficientProceeds
	}
	if err := r.state.Transfer(usdToken, r.self, intent.Borrowable, repay); err != nil {
		return nil, err
	}
	// The remainder is the liquidator's incentive.
	if _, err := bank.TransferAll(r.state, usdToken, r.self, intent.Recipient); err != nil {
		return nil, err
	}
	return usdOut, nil
}
