package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"github.com/synth-squad/payout-engine/internal/config"
)

var ethAddressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// TrustWallet sends ether to the player's wallet address through an
// Ethereum JSON-RPC node that holds the payout account. Tokens settle at
// the fixed token/ETH rate.
type TrustWallet struct {
	cfg    config.TrustConfig
	client *http.Client
}

func NewTrustWallet(cfg config.TrustConfig) *TrustWallet {
	return &TrustWallet{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int    `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (t *TrustWallet) Payout(ctx context.Context, amount int64, details map[string]string) Outcome {
	to := details["walletAddress"]
	if !ethAddressPattern.MatchString(to) {
		return Failed("invalid wallet address")
	}

	gasPrice, err := t.call(ctx, "eth_gasPrice", nil)
	if err != nil {
		return Failed(err.Error())
	}

	tx := map[string]any{
		"from":     t.cfg.FromAddress,
		"to":       to,
		"value":    weiHex(TokensToETH(amount)),
		"gas":      "0x5208", // 21000, a plain value transfer
		"gasPrice": gasPrice,
	}
	txHash, err := t.call(ctx, "eth_sendTransaction", []any{tx})
	if err != nil {
		return Failed(err.Error())
	}
	if txHash == "" {
		return Failed("node returned no transaction hash")
	}
	return Succeeded(txHash)
}

func (t *TrustWallet) call(ctx context.Context, method string, params []any) (string, error) {
	if params == nil {
		params = []any{}
	}
	body, _ := json.Marshal(rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: 1})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.RPCURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("rpc node returned %d", resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return "", err
	}
	if rpcResp.Error != nil {
		return "", fmt.Errorf("%s: %s", method, rpcResp.Error.Message)
	}
	var result string
	if err := json.Unmarshal(rpcResp.Result, &result); err != nil {
		return "", fmt.Errorf("%s: unexpected result: %w", method, err)
	}
	return result, nil
}

// weiHex converts an ether amount to a hex-encoded wei quantity.
func weiHex(eth decimal.Decimal) string {
	wei := eth.Mul(decimal.New(1, 18)).Truncate(0)
	return "0x" + wei.BigInt().Text(16)
}
