package swap

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"altair/native/bank"
)

type dispatchRecord struct {
	target common.Address
	value  *big.Int
	input  []byte
}

type mockDispatcher struct {
	calls   []dispatchRecord
	returns []byte
	err     error
}

func (d *mockDispatcher) Call(target common.Address, value *big.Int, input []byte) ([]byte, error) {
	d.calls = append(d.calls, dispatchRecord{target: target, value: value, input: append([]byte(nil), input...)})
	if d.err != nil {
		return nil, d.err
	}
	return d.returns, nil
}

func legacyDescriptor(amount int64) []byte {
	payload := make([]byte, selectorLength+2*wordLength)
	copy(payload, []byte{0xaa, 0xbb, 0xcc, 0xdd})
	word := uint256.NewInt(uint64(amount)).Bytes32()
	copy(payload[selectorLength:selectorLength+wordLength], word[:])
	return payload
}

func newTestAdapter(t *testing.T) (*Adapter, *bank.Memory, *mockDispatcher) {
	t.Helper()
	self := common.HexToAddress("0x1000000000000000000000000000000000000001")
	state := bank.NewMemory()
	dispatcher := &mockDispatcher{}
	adapter := NewAdapter(self)
	adapter.SetState(state)
	adapter.SetDispatcher(dispatcher)
	if err := adapter.SetBackend(AggregatorOneInchLegacy, Backend{
		Target:          common.HexToAddress("0x2000000000000000000000000000000000000002"),
		Spender:         common.HexToAddress("0x2000000000000000000000000000000000000003"),
		AmountWordIndex: 0,
	}); err != nil {
		t.Fatalf("set backend: %v", err)
	}
	if err := adapter.SetBackend(AggregatorParaswap, Backend{
		Target:  common.HexToAddress("0x3000000000000000000000000000000000000002"),
		Spender: common.HexToAddress("0x3000000000000000000000000000000000000003"),
	}); err != nil {
		t.Fatalf("set backend: %v", err)
	}
	return adapter, state, dispatcher
}

func TestLegacyAmountCorrection(t *testing.T) {
	adapter, state, dispatcher := newTestAdapter(t)
	srcToken := common.HexToAddress("0x4000000000000000000000000000000000000001")
	// Encoded amount is 100 but only 97 remains after upstream rounding.
	state.SetBalance(srcToken, adapter.self, big.NewInt(97))

	if _, err := adapter.Swap(AggregatorOneInchLegacy, legacyDescriptor(100), srcToken, big.NewInt(100), nil); err != nil {
		t.Fatalf("swap: %v", err)
	}
	if len(dispatcher.calls) != 1 {
		t.Fatalf("expected one dispatch, got %d", len(dispatcher.calls))
	}
	encoded, err := AmountWord(dispatcher.calls[0].input, 0)
	if err != nil {
		t.Fatalf("amount word: %v", err)
	}
	if encoded.Int64() != 97 {
		t.Fatalf("dispatched amount: got %d want 97", encoded.Int64())
	}
}

func TestLegacyPayloadNotMutated(t *testing.T) {
	adapter, state, _ := newTestAdapter(t)
	srcToken := common.HexToAddress("0x4000000000000000000000000000000000000001")
	state.SetBalance(srcToken, adapter.self, big.NewInt(50))
	payload := legacyDescriptor(100)
	original := append([]byte(nil), payload...)

	if _, err := adapter.Swap(AggregatorOneInchLegacy, payload, srcToken, big.NewInt(100), nil); err != nil {
		t.Fatalf("swap: %v", err)
	}
	for i := range payload {
		if payload[i] != original[i] {
			t.Fatalf("payload mutated at byte %d", i)
		}
	}
}

func TestOptimizedPayloadUntouched(t *testing.T) {
	adapter, state, dispatcher := newTestAdapter(t)
	srcToken := common.HexToAddress("0x4000000000000000000000000000000000000001")
	state.SetBalance(srcToken, adapter.self, big.NewInt(500))
	payload := []byte{0x01, 0x02, 0x03}

	if _, err := adapter.Swap(AggregatorParaswap, payload, srcToken, big.NewInt(500), nil); err != nil {
		t.Fatalf("swap: %v", err)
	}
	input := dispatcher.calls[0].input
	if len(input) != len(payload) {
		t.Fatalf("payload length changed: got %d want %d", len(input), len(payload))
	}
	for i := range payload {
		if input[i] != payload[i] {
			t.Fatalf("payload altered at byte %d", i)
		}
	}
}

func TestApprovalOnlyWhenInsufficient(t *testing.T) {
	adapter, state, _ := newTestAdapter(t)
	srcToken := common.HexToAddress("0x4000000000000000000000000000000000000001")
	spender := common.HexToAddress("0x3000000000000000000000000000000000000003")
	state.SetBalance(srcToken, adapter.self, big.NewInt(500))
	if err := state.Approve(srcToken, adapter.self, spender, big.NewInt(1_000)); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if _, err := adapter.Swap(AggregatorParaswap, []byte{0x01}, srcToken, big.NewInt(500), nil); err != nil {
		t.Fatalf("swap: %v", err)
	}
	allowance, err := state.Allowance(srcToken, adapter.self, spender)
	if err != nil {
		t.Fatalf("allowance: %v", err)
	}
	// Existing allowance already covered the amount; no re-approval issued.
	if allowance.Int64() != 1_000 {
		t.Fatalf("allowance reset: got %d want 1000", allowance.Int64())
	}
}

func TestSwapErrorCarriesAggregator(t *testing.T) {
	adapter, state, dispatcher := newTestAdapter(t)
	srcToken := common.HexToAddress("0x4000000000000000000000000000000000000001")
	state.SetBalance(srcToken, adapter.self, big.NewInt(500))
	backendErr := errors.New("backend down")
	dispatcher.err = backendErr

	_, err := adapter.Swap(AggregatorParaswap, []byte{0x01}, srcToken, big.NewInt(500), nil)
	var swapErr *Error
	if !errors.As(err, &swapErr) {
		t.Fatalf("expected *swap.Error, got %v", err)
	}
	if swapErr.Aggregator != AggregatorParaswap {
		t.Fatalf("aggregator: got %s want %s", swapErr.Aggregator, AggregatorParaswap)
	}
	if !errors.Is(err, backendErr) {
		t.Fatalf("expected wrapped backend reason")
	}
}

func TestUnknownBackendRejected(t *testing.T) {
	adapter, state, _ := newTestAdapter(t)
	srcToken := common.HexToAddress("0x4000000000000000000000000000000000000001")
	state.SetBalance(srcToken, adapter.self, big.NewInt(500))
	if _, err := adapter.Swap(AggregatorOkx, []byte{0x01}, srcToken, big.NewInt(500), nil); !errors.Is(err, errBackendNotConfigured) {
		t.Fatalf("expected backend-not-configured, got %v", err)
	}
	if _, err := adapter.Swap(Aggregator(99), []byte{0x01}, srcToken, big.NewInt(500), nil); !errors.Is(err, errUnknownAggregator) {
		t.Fatalf("expected unknown aggregator, got %v", err)
	}
}

func TestReturnedAmountIsEstimateDecoding(t *testing.T) {
	adapter, state, dispatcher := newTestAdapter(t)
	srcToken := common.HexToAddress("0x4000000000000000000000000000000000000001")
	state.SetBalance(srcToken, adapter.self, big.NewInt(500))
	word := uint256.NewInt(12345).Bytes32()
	dispatcher.returns = word[:]

	received, err := adapter.Swap(AggregatorParaswap, []byte{0x01}, srcToken, big.NewInt(500), nil)
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	if received.Int64() != 12345 {
		t.Fatalf("received: got %d want 12345", received.Int64())
	}

	dispatcher.returns = []byte{0x01}
	received, err = adapter.Swap(AggregatorParaswap, []byte{0x01}, srcToken, big.NewInt(500), nil)
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	if received.Sign() != 0 {
		t.Fatalf("short return should decode to zero, got %s", received)
	}
}
