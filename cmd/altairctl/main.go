package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"altair/config"
	"altair/native/bank"
	"altair/native/converter"
	"altair/native/router"
	"altair/observability/logging"
	"altair/observability/otel"
	"altair/storage"
)

const envVar = "ALTAIR_ENV"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	env := strings.TrimSpace(os.Getenv(envVar))
	logger := logging.Setup("altairctl", env)

	var err error
	switch os.Args[1] {
	case "validate":
		err = runValidate(logger, os.Args[2:])
	case "decode-intent":
		err = runDecodeIntent(os.Args[2:])
	case "optimal-deposit":
		err = runOptimalDeposit(os.Args[2:])
	case "balance":
		err = runBalance(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: altairctl <command> [flags]

commands:
  validate         load and validate a router configuration file
  decode-intent    decode a hex-encoded callback intent payload
  optimal-deposit  solve the single-sided deposit swap amount for a pool
  balance          read a token balance from a router state directory`)
}

func runValidate(logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configFile := fs.String("config", "./router.toml", "path to the configuration file")
	fs.Parse(args)

	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}
	if cfg.Telemetry.Enabled {
		shutdown, err := otel.Init(context.Background(), otel.Config{
			ServiceName: "altairctl",
			Environment: cfg.Logging.Env,
			Endpoint:    cfg.Telemetry.Endpoint,
			Insecure:    cfg.Telemetry.Insecure,
		})
		if err != nil {
			return err
		}
		defer shutdown(context.Background())
	}

	backends, err := cfg.SwapBackends()
	if err != nil {
		return err
	}
	names := make([]string, 0, len(backends))
	for selector := range backends {
		names = append(names, selector.String())
	}
	sort.Strings(names)
	logger.Info("configuration valid",
		slog.Int("backends", len(backends)),
		slog.String("aggregators", strings.Join(names, ",")),
	)
	return nil
}

func runDecodeIntent(args []string) error {
	fs := flag.NewFlagSet("decode-intent", flag.ExitOnError)
	raw := fs.String("payload", "", "hex-encoded intent payload")
	fs.Parse(args)

	data, err := hex.DecodeString(strings.TrimPrefix(*raw, "0x"))
	if err != nil {
		return fmt.Errorf("decode hex: %w", err)
	}

	var decoded any
	var kind string
	if intent, err := router.DecodeLeverageIntent(data); err == nil {
		decoded, kind = intent, "leverage"
	} else if intent, err := router.DecodeDeleverageIntent(data); err == nil {
		decoded, kind = intent, "deleverage"
	} else if intent, err := router.DecodeLiquidationIntent(data); err == nil {
		decoded, kind = intent, "liquidation"
	} else {
		return fmt.Errorf("payload does not decode as any known intent")
	}

	out, err := json.MarshalIndent(map[string]any{"kind": kind, "intent": decoded}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runOptimalDeposit(args []string) error {
	fs := flag.NewFlagSet("optimal-deposit", flag.ExitOnError)
	amount0 := fs.String("amount0", "0", "holding of token0 in base units")
	amount1 := fs.String("amount1", "0", "holding of token1 in base units")
	reserve0 := fs.String("reserve0", "", "pool reserve of token0 in base units")
	reserve1 := fs.String("reserve1", "", "pool reserve of token1 in base units")
	decimals0 := fs.Uint("decimals0", 18, "token0 decimals")
	decimals1 := fs.Uint("decimals1", 18, "token1 decimals")
	feeBps := fs.Uint64("fee-bps", 30, "pool swap fee in basis points")
	fs.Parse(args)

	a0, err := parseAmount(*amount0)
	if err != nil {
		return fmt.Errorf("amount0: %w", err)
	}
	a1, err := parseAmount(*amount1)
	if err != nil {
		return fmt.Errorf("amount1: %w", err)
	}
	r0, err := parseAmount(*reserve0)
	if err != nil {
		return fmt.Errorf("reserve0: %w", err)
	}
	r1, err := parseAmount(*reserve1)
	if err != nil {
		return fmt.Errorf("reserve1: %w", err)
	}

	swapAmount, zeroForOne, err := converter.OptimalDepositWeighted(a0, a1, r0, r1, uint8(*decimals0), uint8(*decimals1), *feeBps)
	if err != nil {
		return err
	}
	direction := "token1->token0"
	if zeroForOne {
		direction = "token0->token1"
	}
	fmt.Printf("swap %s (%s)\n", swapAmount, direction)
	return nil
}

func runBalance(args []string) error {
	fs := flag.NewFlagSet("balance", flag.ExitOnError)
	dataDir := fs.String("data", "./altair-data", "router state directory")
	token := fs.String("token", "", "token address")
	owner := fs.String("owner", "", "holder address")
	fs.Parse(args)

	if !common.IsHexAddress(*token) {
		return fmt.Errorf("token %q is not a valid address", *token)
	}
	if !common.IsHexAddress(*owner) {
		return fmt.Errorf("owner %q is not a valid address", *owner)
	}

	db, err := storage.NewLevelDB(*dataDir)
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	defer db.Close()

	balance, err := bank.NewStore(db).BalanceOf(common.HexToAddress(*token), common.HexToAddress(*owner))
	if err != nil {
		return err
	}
	fmt.Println(balance)
	return nil
}

func parseAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("value required")
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("%q is not a decimal integer", raw)
	}
	return value, nil
}
