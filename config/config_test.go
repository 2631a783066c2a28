package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"altair/native/swap"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "router.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const validConfig = `
RouterAddress = "0x0000000000000000000000000000000000000a11"

[Tokens]
Usd = "0x0000000000000000000000000000000000000001"
WrappedNative = "0x0000000000000000000000000000000000000002"

[Backends.paraswap]
Target = "0x0000000000000000000000000000000000000010"
Spender = "0x0000000000000000000000000000000000000011"
AmountWordIndex = 0

[Backends.oneinch-legacy]
Target = "0x0000000000000000000000000000000000000020"
Spender = "0x0000000000000000000000000000000000000021"
AmountWordIndex = 4

[Pauses]
Router = false

[Logging]
Env = "staging"
File = "router.log"
MaxSizeMB = 50
MaxBackups = 5
MaxAgeDays = 14
`

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)
	require.Equal(t, "staging", cfg.Logging.Env)
	require.Len(t, cfg.Backends, 2)

	backends, err := cfg.SwapBackends()
	require.NoError(t, err)
	legacy, ok := backends[swap.AggregatorOneInchLegacy]
	require.True(t, ok)
	require.Equal(t, 4, legacy.AmountWordIndex)
	_, ok = backends[swap.AggregatorParaswap]
	require.True(t, ok)
}

func TestLoadCreatesDefaultWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "router.toml")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.FileExists(t, path)
	require.Equal(t, "local", cfg.Logging.Env)
	require.NotNil(t, cfg.Backends)
	require.Positive(t, cfg.Logging.MaxSizeMB)

	// The persisted default must round-trip.
	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.Logging, reloaded.Logging)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, validConfig+"\nLegacyRouter = true\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown keys")
}

func TestValidateRejectsUnknownAggregator(t *testing.T) {
	body := `
[Backends.sushiswap]
Target = "0x0000000000000000000000000000000000000010"
Spender = "0x0000000000000000000000000000000000000011"
AmountWordIndex = 0
`
	_, err := Load(writeConfig(t, body))
	require.Error(t, err)
	require.Contains(t, err.Error(), "sushiswap")
}

func TestValidateRejectsBadAddresses(t *testing.T) {
	body := `
[Tokens]
Usd = "not-an-address"
`
	_, err := Load(writeConfig(t, body))
	require.Error(t, err)
	require.Contains(t, err.Error(), "Tokens.Usd")

	body = `
[Backends.paraswap]
Target = "0x123"
Spender = "0x0000000000000000000000000000000000000011"
AmountWordIndex = 0
`
	_, err = Load(writeConfig(t, body))
	require.Error(t, err)
	require.Contains(t, err.Error(), "Target")
}

func TestValidateRejectsWordIndexOutOfRange(t *testing.T) {
	body := `
[Backends.oneinch-legacy]
Target = "0x0000000000000000000000000000000000000010"
Spender = "0x0000000000000000000000000000000000000011"
AmountWordIndex = 33
`
	_, err := Load(writeConfig(t, body))
	require.Error(t, err)
	require.Contains(t, err.Error(), "AmountWordIndex")
}
