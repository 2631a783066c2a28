package config

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"altair/native/swap"
)

// MaxAmountWordIndex bounds how deep into a legacy payload the source amount
// word may sit. Anything larger points at a descriptor no known backend uses.
const MaxAmountWordIndex = 32

// ValidateConfig checks the structural invariants of a loaded configuration.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil configuration")
	}
	if cfg.RouterAddress != "" && !common.IsHexAddress(cfg.RouterAddress) {
		return fmt.Errorf("config: RouterAddress %q is not a valid address", cfg.RouterAddress)
	}
	if cfg.Tokens.Usd != "" && !common.IsHexAddress(cfg.Tokens.Usd) {
		return fmt.Errorf("config: Tokens.Usd %q is not a valid address", cfg.Tokens.Usd)
	}
	if cfg.Tokens.WrappedNative != "" && !common.IsHexAddress(cfg.Tokens.WrappedNative) {
		return fmt.Errorf("config: Tokens.WrappedNative %q is not a valid address", cfg.Tokens.WrappedNative)
	}
	for name, backend := range cfg.Backends {
		if _, err := swap.ParseAggregator(name); err != nil {
			return fmt.Errorf("config: Backends.%s: %w", name, err)
		}
		if !common.IsHexAddress(backend.Target) {
			return fmt.Errorf("config: Backends.%s.Target %q is not a valid address", name, backend.Target)
		}
		if !common.IsHexAddress(backend.Spender) {
			return fmt.Errorf("config: Backends.%s.Spender %q is not a valid address", name, backend.Spender)
		}
		if backend.AmountWordIndex < 0 || backend.AmountWordIndex > MaxAmountWordIndex {
			return fmt.Errorf("config: Backends.%s.AmountWordIndex %d out of range", name, backend.AmountWordIndex)
		}
	}
	if cfg.Quota.MaxOpsPerEpoch > 0 && cfg.Quota.EpochSeconds == 0 {
		return fmt.Errorf("config: Quota.EpochSeconds required when MaxOpsPerEpoch is set")
	}
	if cfg.Logging.MaxSizeMB <= 0 || cfg.Logging.MaxBackups <= 0 || cfg.Logging.MaxAgeDays <= 0 {
		return fmt.Errorf("config: Logging rotation values must be positive")
	}
	return nil
}
