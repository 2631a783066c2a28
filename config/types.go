package config

// Backend describes one external swap aggregator endpoint: where payloads are
// dispatched, who is approved to pull funds, and for legacy payloads which
// calldata word carries the source amount.
type Backend struct {
	Target          string `toml:"Target"`
	Spender         string `toml:"Spender"`
	AmountWordIndex int    `toml:"AmountWordIndex"`
}

// Tokens names the well-known token addresses the router operates with.
type Tokens struct {
	Usd           string `toml:"Usd"`
	WrappedNative string `toml:"WrappedNative"`
}

// Pauses toggles per-module circuit breakers.
type Pauses struct {
	Router    bool `toml:"Router"`
	Converter bool `toml:"Converter"`
	Swap      bool `toml:"Swap"`
}

// Quota rate-limits router entry points per caller address. A zero
// MaxOpsPerEpoch disables enforcement.
type Quota struct {
	MaxOpsPerEpoch uint32 `toml:"MaxOpsPerEpoch"`
	EpochSeconds   uint32 `toml:"EpochSeconds"`
}

// Telemetry configures the optional OTLP trace exporter.
type Telemetry struct {
	Enabled  bool   `toml:"Enabled"`
	Endpoint string `toml:"Endpoint"`
	Insecure bool   `toml:"Insecure"`
}

// Logging controls the structured log output and optional file rotation.
type Logging struct {
	Env        string `toml:"Env"`
	File       string `toml:"File"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays"`
}
