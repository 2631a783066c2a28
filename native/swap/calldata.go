package swap

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

const (
	selectorLength = 4
	wordLength     = 32
)

var (
	// ErrShortCalldata indicates a legacy descriptor too small to hold the
	// addressed amount word.
	ErrShortCalldata = errors.New("swap: calldata shorter than descriptor layout")
	// ErrAmountRange indicates an amount outside the unsigned 256-bit range.
	ErrAmountRange = errors.New("swap: amount outside uint256 range")
)

// AmountWord reads the 32-byte amount word at the given word index of a legacy
// swap descriptor (4-byte selector followed by 32-byte words).
func AmountWord(calldata []byte, wordIndex int) (*big.Int, error) {
	offset := selectorLength + wordIndex*wordLength
	if wordIndex < 0 || len(calldata) < offset+wordLength {
		return nil, ErrShortCalldata
	}
	word := new(uint256.Int).SetBytes(calldata[offset : offset+wordLength])
	return word.ToBig(), nil
}

// PatchAmount returns a copy of the descriptor with the amount word at the
// given index overwritten. The input payload is never mutated; intents are
// immutable once encoded.
func PatchAmount(calldata []byte, wordIndex int, amount *big.Int) ([]byte, error) {
	offset := selectorLength + wordIndex*wordLength
	if wordIndex < 0 || len(calldata) < offset+wordLength {
		return nil, ErrShortCalldata
	}
	if amount == nil || amount.Sign() < 0 {
		return nil, ErrAmountRange
	}
	value, overflow := uint256.FromBig(amount)
	if overflow {
		return nil, ErrAmountRange
	}
	word := value.Bytes32()
	patched := append([]byte(nil), calldata...)
	copy(patched[offset:offset+wordLength], word[:])
	return patched, nil
}
