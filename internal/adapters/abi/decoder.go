package abi

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/govsync-org/govsync/internal/usecase"
)

// Decoder decodes contract calldata against a known ABI, falling back to a
// remote signature registry for selectors outside it. Results never panic or
// error out of band; everything comes back as a typed DecodedCall.
type Decoder struct {
	known  map[[4]byte]ethabi.Method
	lookup SignatureLookup
	log    *slog.Logger

	// cache holds registry-resolved methods (and negative entries) so repeat
	// selectors cost no network round trip.
	mu    sync.Mutex
	cache map[[4]byte]*ethabi.Method
}

// NewDecoder indexes the contract ABI's methods by selector. lookup may be
// nil, in which case unknown selectors are reported without a registry trip.
func NewDecoder(contractABI *ethabi.ABI, lookup SignatureLookup, log *slog.Logger) *Decoder {
	known := make(map[[4]byte]ethabi.Method, len(contractABI.Methods))
	for _, method := range contractABI.Methods {
		var sel [4]byte
		copy(sel[:], method.ID)
		known[sel] = method
	}
	return &Decoder{
		known:  known,
		lookup: lookup,
		log:    log.With("component", "CalldataDecoder"),
		cache:  make(map[[4]byte]*ethabi.Method),
	}
}

// Decode implements usecase.CalldataDecoder.
func (d *Decoder) Decode(ctx context.Context, data []byte) usecase.DecodedCall {
	if len(data) < 4 {
		return usecase.DecodedCall{
			Status: usecase.DecodeError,
			Err:    fmt.Errorf("calldata too short: %d bytes", len(data)),
		}
	}
	var sel [4]byte
	copy(sel[:], data[:4])

	method, ok := d.known[sel]
	if !ok {
		resolved := d.resolve(ctx, sel)
		if resolved == nil {
			return usecase.DecodedCall{Status: usecase.DecodeUnknownSelector, Selector: sel}
		}
		method = *resolved
	}

	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return usecase.DecodedCall{
			Status:   usecase.DecodeError,
			Selector: sel,
			Method:   method.Name,
			Err:      fmt.Errorf("unpack %s: %w", method.Name, err),
		}
	}
	return usecase.DecodedCall{Status: usecase.DecodeOK, Selector: sel, Method: method.Name, Args: args}
}

// resolve consults the cache, then the remote registry. Negative results are
// cached too.
func (d *Decoder) resolve(ctx context.Context, sel [4]byte) *ethabi.Method {
	d.mu.Lock()
	cached, seen := d.cache[sel]
	d.mu.Unlock()
	if seen {
		return cached
	}

	var resolved *ethabi.Method
	if d.lookup != nil {
		signature, err := d.lookup.Lookup(ctx, sel)
		if err != nil {
			d.log.Debug("signature registry lookup failed", "selector", fmt.Sprintf("%x", sel), "err", err)
		} else if signature != "" {
			method, err := methodFromSignature(signature)
			if err != nil {
				d.log.Debug("unusable registry signature", "signature", signature, "err", err)
			} else {
				resolved = method
			}
		}
	}

	d.mu.Lock()
	d.cache[sel] = resolved
	d.mu.Unlock()
	return resolved
}

// methodFromSignature builds an abi.Method from a textual signature like
// "approve(uint256,uint256)". Nested tuple types are not supported; registry
// hits for the contracts tracked here are flat.
func methodFromSignature(signature string) (*ethabi.Method, error) {
	open := strings.Index(signature, "(")
	if open <= 0 || !strings.HasSuffix(signature, ")") {
		return nil, fmt.Errorf("malformed signature %q", signature)
	}
	name := signature[:open]
	inner := signature[open+1 : len(signature)-1]

	var inputs ethabi.Arguments
	if inner != "" {
		for _, typeName := range strings.Split(inner, ",") {
			typeName = strings.TrimSpace(typeName)
			if strings.Contains(typeName, "(") {
				return nil, fmt.Errorf("tuple type in %q not supported", signature)
			}
			t, err := ethabi.NewType(typeName, "", nil)
			if err != nil {
				return nil, fmt.Errorf("type %q: %w", typeName, err)
			}
			inputs = append(inputs, ethabi.Argument{Type: t})
		}
	}
	method := ethabi.NewMethod(name, name, ethabi.Function, "", false, false, inputs, nil)
	return &method, nil
}
