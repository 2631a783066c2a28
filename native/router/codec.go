package router

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
)

// Intent payloads are version-tagged RLP: one version byte, one kind byte,
// then the RLP body. The tag pins the schema so a payload built for one
// callback can never decode inside another.
const intentVersion byte = 0x01

type intentKind byte

const (
	kindLeverage    intentKind = 0x01
	kindDeleverage  intentKind = 0x02
	kindLiquidation intentKind = 0x03
)

func encodeIntent(kind intentKind, intent interface{}) ([]byte, error) {
	body, err := rlp.EncodeToBytes(intent)
	if err != nil {
		return nil, fmt.Errorf("router: encode intent: %w", err)
	}
	out := make([]byte, 0, len(body)+2)
	out = append(out, intentVersion, byte(kind))
	return append(out, body...), nil
}

func decodeIntent(kind intentKind, data []byte, intent interface{}) error {
	if len(data) < 2 {
		return ErrMalformedIntent
	}
	if data[0] != intentVersion || intentKind(data[1]) != kind {
		return ErrMalformedIntent
	}
	// DecodeBytes rejects truncated bodies and trailing garbage alike.
	if err := rlp.DecodeBytes(data[2:], intent); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedIntent, err)
	}
	return nil
}

// Encode serializes the intent for transport through the ledger's borrow
// call.
func (i *LeverageIntent) Encode() ([]byte, error) {
	return encodeIntent(kindLeverage, i)
}

// DecodeLeverageIntent parses a borrow-callback payload.
func DecodeLeverageIntent(data []byte) (*LeverageIntent, error) {
	intent := new(LeverageIntent)
	if err := decodeIntent(kindLeverage, data, intent); err != nil {
		return nil, err
	}
	return intent, nil
}

// Encode serializes the intent for transport through the ledger's redeem
// call.
func (i *DeleverageIntent) Encode() ([]byte, error) {
	return encodeIntent(kindDeleverage, i)
}

// DecodeDeleverageIntent parses a redeem-callback payload.
func DecodeDeleverageIntent(data []byte) (*DeleverageIntent, error) {
	intent := new(DeleverageIntent)
	if err := decodeIntent(kindDeleverage, data, intent); err != nil {
		return nil, err
	}
	return intent, nil
}

// Encode serializes the intent for transport through the ledger's liquidate
// call.
func (i *LiquidationIntent) Encode() ([]byte, error) {
	return encodeIntent(kindLiquidation, i)
}

// DecodeLiquidationIntent parses a liquidate-callback payload.
func DecodeLiquidationIntent(data []byte) (*LiquidationIntent, error) {
	intent := new(LiquidationIntent)
	if err := decodeIntent(kindLiquidation, data, intent); err != nil {
		return nil, err
	}
	return intent, nil
}
