package abi

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/govsync-org/govsync/internal/adapters/chain"
	"github.com/govsync-org/govsync/internal/usecase"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubLookup struct {
	signature string
	err       error
	calls     int
}

func (s *stubLookup) Lookup(ctx context.Context, selector [4]byte) (string, error) {
	s.calls++
	return s.signature, s.err
}

func approveCalldata(t *testing.T, proposalID, index int64) []byte {
	t.Helper()
	data, err := chain.GovernanceABI.Pack("approve", big.NewInt(proposalID), big.NewInt(index))
	require.NoError(t, err)
	return data
}

func TestDecoderDecode(t *testing.T) {
	ctx := context.Background()

	t.Run("known approve call decodes", func(t *testing.T) {
		d := NewDecoder(chain.GovernanceABI, nil, testLogger())

		call := d.Decode(ctx, approveCalldata(t, 42, 3))

		require.Equal(t, usecase.DecodeOK, call.Status)
		assert.Equal(t, "approve", call.Method)
		require.Len(t, call.Args, 2)
		assert.Equal(t, int64(42), call.Args[0].(*big.Int).Int64())
		assert.Equal(t, int64(3), call.Args[1].(*big.Int).Int64())
	})

	t.Run("short calldata is a decode error", func(t *testing.T) {
		d := NewDecoder(chain.GovernanceABI, nil, testLogger())

		call := d.Decode(ctx, []byte{0x32, 0x9f})

		assert.Equal(t, usecase.DecodeError, call.Status)
		assert.Error(t, call.Err)
	})

	t.Run("unknown selector without a registry", func(t *testing.T) {
		d := NewDecoder(chain.GovernanceABI, nil, testLogger())

		call := d.Decode(ctx, []byte{0xde, 0xad, 0xbe, 0xef})

		assert.Equal(t, usecase.DecodeUnknownSelector, call.Status)
		assert.Equal(t, [4]byte{0xde, 0xad, 0xbe, 0xef}, call.Selector)
	})

	t.Run("registry fallback resolves and decodes", func(t *testing.T) {
		lookup := &stubLookup{signature: "transfer(address,uint256)"}
		d := NewDecoder(chain.MultisigABI, lookup, testLogger())

		// transfer(address,uint256) calldata: selector a9059cbb plus two words.
		data := make([]byte, 4+64)
		copy(data, []byte{0xa9, 0x05, 0x9c, 0xbb})
		data[4+31] = 0x01                     // address 0x...01
		data[4+63] = 0x05                     // amount 5
		call := d.Decode(ctx, data)

		require.Equal(t, usecase.DecodeOK, call.Status)
		assert.Equal(t, "transfer", call.Method)
		require.Len(t, call.Args, 2)
		assert.Equal(t, int64(5), call.Args[1].(*big.Int).Int64())
	})

	t.Run("registry results are cached", func(t *testing.T) {
		lookup := &stubLookup{signature: "transfer(address,uint256)"}
		d := NewDecoder(chain.MultisigABI, lookup, testLogger())

		data := make([]byte, 4+64)
		copy(data, []byte{0xa9, 0x05, 0x9c, 0xbb})
		d.Decode(ctx, data)
		d.Decode(ctx, data)

		assert.Equal(t, 1, lookup.calls)
	})

	t.Run("negative registry results are cached too", func(t *testing.T) {
		lookup := &stubLookup{signature: ""}
		d := NewDecoder(chain.MultisigABI, lookup, testLogger())

		first := d.Decode(ctx, []byte{0xde, 0xad, 0xbe, 0xef})
		second := d.Decode(ctx, []byte{0xde, 0xad, 0xbe, 0xef})

		assert.Equal(t, usecase.DecodeUnknownSelector, first.Status)
		assert.Equal(t, usecase.DecodeUnknownSelector, second.Status)
		assert.Equal(t, 1, lookup.calls)
	})

	t.Run("registry failure degrades to unknown selector", func(t *testing.T) {
		lookup := &stubLookup{err: fmt.Errorf("registry down")}
		d := NewDecoder(chain.MultisigABI, lookup, testLogger())

		call := d.Decode(ctx, []byte{0xde, 0xad, 0xbe, 0xef})

		assert.Equal(t, usecase.DecodeUnknownSelector, call.Status)
	})
}

func TestMethodFromSignature(t *testing.T) {
	t.Run("flat signature parses", func(t *testing.T) {
		method, err := methodFromSignature("approve(uint256,uint256)")
		require.NoError(t, err)
		assert.Equal(t, "approve", method.Name)
		assert.Len(t, method.Inputs, 2)
	})

	t.Run("no-arg signature parses", func(t *testing.T) {
		method, err := methodFromSignature("pause()")
		require.NoError(t, err)
		assert.Empty(t, method.Inputs)
	})

	t.Run("tuple types are rejected", func(t *testing.T) {
		_, err := methodFromSignature("submit((address,uint256)[])")
		assert.Error(t, err)
	})

	t.Run("malformed signatures are rejected", func(t *testing.T) {
		_, err := methodFromSignature("no-parens")
		assert.Error(t, err)
		_, err = methodFromSignature("(uint256)")
		assert.Error(t, err)
	})
}
