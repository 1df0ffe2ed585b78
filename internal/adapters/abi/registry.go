package abi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SignatureLookup resolves a 4-byte selector to a textual function signature.
type SignatureLookup interface {
	Lookup(ctx context.Context, selector [4]byte) (string, error)
}

// openchainURL is the public signature database lookup endpoint.
const openchainURL = "https://api.openchain.xyz/signature-database/v1/lookup"

// OpenchainLookup queries the openchain.xyz signature database.
type OpenchainLookup struct {
	httpClient *http.Client
}

func NewOpenchainLookup() *OpenchainLookup {
	return &OpenchainLookup{
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type openchainResponse struct {
	Result struct {
		Function map[string][]struct {
			Name string `json:"name"`
		} `json:"function"`
	} `json:"result"`
}

// Lookup returns the first known signature for the selector, or "" when the
// registry has none.
func (o *OpenchainLookup) Lookup(ctx context.Context, selector [4]byte) (string, error) {
	hexSel := fmt.Sprintf("0x%x", selector)
	url := fmt.Sprintf("%s?function=%s&filter=true", openchainURL, hexSel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("signature lookup: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("signature lookup: status %d", resp.StatusCode)
	}

	var parsed openchainResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode lookup response: %w", err)
	}
	matches := parsed.Result.Function[hexSel]
	if len(matches) == 0 {
		return "", nil
	}
	return matches[0].Name, nil
}
