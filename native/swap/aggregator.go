package swap

import "fmt"

// Aggregator selects which external swap backend executes a payload and which
// amount-injection rule applies to it. The set is closed: adding a backend
// means adding a selector and wiring its Backend in configuration.
type Aggregator uint8

const (
	// AggregatorNativeDex is the on-chain DEX fallback path.
	AggregatorNativeDex Aggregator = iota
	// AggregatorOneInchLegacy executes 1inch payloads carrying a structured
	// descriptor whose source amount is re-patched before dispatch.
	AggregatorOneInchLegacy
	// AggregatorOneInchV2 executes pre-built opaque 1inch calldata.
	AggregatorOneInchV2
	// AggregatorParaswap executes pre-built Paraswap calldata.
	AggregatorParaswap
	// AggregatorZeroExLegacy executes 0x payloads with amount re-patching.
	AggregatorZeroExLegacy
	// AggregatorZeroExV2 executes pre-built opaque 0x calldata.
	AggregatorZeroExV2
	// AggregatorOpenOcean executes pre-built OpenOcean calldata.
	AggregatorOpenOcean
	// AggregatorOkx executes pre-built OKX calldata.
	AggregatorOkx
)

const aggregatorCount = 8

// Valid reports whether the selector names a known backend.
func (a Aggregator) Valid() bool {
	return a < aggregatorCount
}

// Legacy reports whether payloads for this backend carry a structured swap
// descriptor whose encoded source amount must be corrected against the live
// balance before dispatch. Optimized backends receive opaque calldata and are
// trusted to have embedded the exact amount.
func (a Aggregator) Legacy() bool {
	switch a {
	case AggregatorNativeDex, AggregatorOneInchLegacy, AggregatorZeroExLegacy:
		return true
	}
	return false
}

func (a Aggregator) String() string {
	switch a {
	case AggregatorNativeDex:
		return "native-dex"
	case AggregatorOneInchLegacy:
		return "oneinch-legacy"
	case AggregatorOneInchV2:
		return "oneinch-v2"
	case AggregatorParaswap:
		return "paraswap"
	case AggregatorZeroExLegacy:
		return "zeroex-legacy"
	case AggregatorZeroExV2:
		return "zeroex-v2"
	case AggregatorOpenOcean:
		return "openocean"
	case AggregatorOkx:
		return "okx"
	}
	return "unknown"
}

// ParseAggregator maps a canonical backend name to its selector.
func ParseAggregator(name string) (Aggregator, error) {
	for a := Aggregator(0); a.Valid(); a++ {
		if a.String() == name {
			return a, nil
		}
	}
	return 0, fmt.Errorf("swap: unknown aggregator %q", name)
}
