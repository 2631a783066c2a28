package converter

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrNoExtension indicates no pool extension is wired for the requested
	// LP token; requires operator intervention.
	ErrNoExtension = errors.New("converter: no extension configured for pool")
	// ErrZeroReserves indicates a pool reported an empty reserve; conversion
	// math is undefined against it.
	ErrZeroReserves = errors.New("converter: pool reserves must be positive")
)

// PoolToken describes one constituent of a liquidity pool at read time.
// Reserves are live values and must never be cached across calls: the swap
// legs of the same operation shift them.
type PoolToken struct {
	Address common.Address
	// Reserve is the pool's current holding of this token.
	Reserve *big.Int
	// WeightBps is the normalized pool weight in basis points; a
	// constant-product pair reports 5000/5000.
	WeightBps uint64
	// Decimals is the token's display scale, used by the weighted solver.
	Decimals uint8
}

// LiquidityPool is the vault surface a conversion drives: fresh constituent
// reads, share supply, and the join/exit operations. One implementation per
// pool topology (constant-product pair, weighted pool) is registered as an
// extension.
type LiquidityPool interface {
	LpToken() common.Address
	// Tokens returns the ordered constituent set read live from the pool.
	Tokens() ([]PoolToken, error)
	TotalSupply() (*big.Int, error)
	SwapFeeBps() uint64
	// Join deposits the supplied per-constituent amounts (ordered as Tokens)
	// from the depositor and mints shares to it.
	Join(depositor common.Address, amounts []*big.Int) (*big.Int, error)
	// Exit burns the holder's shares and transfers each constituent out.
	Exit(holder common.Address, shares *big.Int) ([]*big.Int, error)
}

// Registry maps LP tokens to their wired pool extensions.
type Registry struct {
	pools map[common.Address]LiquidityPool
}

// NewRegistry returns an empty extension registry.
func NewRegistry() *Registry {
	return &Registry{pools: make(map[common.Address]LiquidityPool)}
}

// Register wires a pool extension under its LP token address.
func (r *Registry) Register(pool LiquidityPool) {
	if r == nil || pool == nil {
		return
	}
	r.pools[pool.LpToken()] = pool
}

// Extension resolves the pool wired for the LP token.
func (r *Registry) Extension(lpToken common.Address) (LiquidityPool, error) {
	if r == nil {
		return nil, ErrNoExtension
	}
	pool, ok := r.pools[lpToken]
	if !ok {
		return nil, ErrNoExtension
	}
	return pool, nil
}
