package config

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	nativecommon "altair/native/common"
	"altair/native/swap"
)

// SwapBackends parses the configured aggregator endpoints into runtime
// backends keyed by selector.
func (c *Config) SwapBackends() (map[swap.Aggregator]swap.Backend, error) {
	backends := make(map[swap.Aggregator]swap.Backend, len(c.Backends))
	for name, entry := range c.Backends {
		selector, err := swap.ParseAggregator(name)
		if err != nil {
			return nil, fmt.Errorf("invalid Backends.%s: %w", name, err)
		}
		backends[selector] = swap.Backend{
			Target:          common.HexToAddress(entry.Target),
			Spender:         common.HexToAddress(entry.Spender),
			AmountWordIndex: entry.AmountWordIndex,
		}
	}
	return backends, nil
}

// RouterQuota converts the configured quota into its runtime form.
func (c *Config) RouterQuota() nativecommon.Quota {
	return nativecommon.Quota{
		MaxOpsPerEpoch: c.Quota.MaxOpsPerEpoch,
		EpochSeconds:   c.Quota.EpochSeconds,
	}
}

// PauseSet materializes the configured circuit breakers.
func (c *Config) PauseSet() *nativecommon.PauseSet {
	pauses := nativecommon.NewPauseSet()
	pauses.SetPaused("router", c.Pauses.Router)
	pauses.SetPaused("converter", c.Pauses.Converter)
	pauses.SetPaused("swap", c.Pauses.Swap)
	return pauses
}
