package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/abcfe/abcfe-wallet/common/utils"
	prt "github.com/abcfe/abcfe-wallet/protocol"
)

// Client talks to a ledger node over its REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// RestResp API response envelope
type RestResp struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// APIError is a request the node answered with success=false
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

type Status struct {
	GenesisTime  int64  `json:"genesisTime"`
	CurrentEpoch uint64 `json:"currentEpoch"`
	EpochSec     int    `json:"epochSec"`
	GasPrice     uint64 `json:"gasPrice"`
	CoinSeq      uint64 `json:"coinSeq"`
	NetworkID    string `json:"networkId"`
}

func (c *Client) GetStatus(ctx context.Context) (*Status, error) {
	var status Status
	if err := c.get(ctx, "/api/v1/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) GetCoins(ctx context.Context, owner prt.Address, coinType string) ([]prt.Coin, error) {
	path := fmt.Sprintf("/api/v1/address/%s/coins?coinType=%s", utils.AddressToString(owner), url.QueryEscape(coinType))

	var coins []prt.Coin
	if err := c.get(ctx, path, &coins); err != nil {
		return nil, err
	}
	return coins, nil
}

func (c *Client) GetBalance(ctx context.Context, owner prt.Address, coinType string) (string, error) {
	path := fmt.Sprintf("/api/v1/address/%s/balance?coinType=%s", utils.AddressToString(owner), url.QueryEscape(coinType))

	var resp struct {
		Balance string `json:"balance"`
	}
	if err := c.get(ctx, path, &resp); err != nil {
		return "", err
	}
	return resp.Balance, nil
}

func (c *Client) GetReferenceGasPrice(ctx context.Context) (uint64, error) {
	var resp struct {
		GasPrice uint64 `json:"gasPrice"`
	}
	if err := c.get(ctx, "/api/v1/gas-price", &resp); err != nil {
		return 0, err
	}
	return resp.GasPrice, nil
}

func (c *Client) CurrentEpoch(ctx context.Context) (uint64, error) {
	var resp struct {
		Epoch uint64 `json:"epoch"`
	}
	if err := c.get(ctx, "/api/v1/epoch", &resp); err != nil {
		return 0, err
	}
	return resp.Epoch, nil
}

func (c *Client) BuildTransaction(ctx context.Context, req prt.TransferRequest) ([]byte, error) {
	var resp struct {
		TxBytes []byte `json:"txBytes"`
	}
	if err := c.post(ctx, "/api/v1/tx/build", req, &resp); err != nil {
		return nil, err
	}
	return resp.TxBytes, nil
}

func (c *Client) Execute(ctx context.Context, txBytes []byte, sig prt.Signature) (*prt.ExecutionResult, error) {
	body := struct {
		TxBytes   []byte        `json:"txBytes"`
		Signature prt.Signature `json:"signature"`
	}{txBytes, sig}

	var result prt.ExecutionResult
	if err := c.post(ctx, "/api/v1/tx/execute", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) QueryTransactions(ctx context.Context, filter prt.TxFilter, page prt.Page) ([]prt.TxBlock, error) {
	body := struct {
		Filter prt.TxFilter `json:"filter"`
		Page   prt.Page     `json:"page"`
	}{filter, page}

	var resp struct {
		Transactions []prt.TxBlock `json:"transactions"`
	}
	if err := c.post(ctx, "/api/v1/txs/query", body, &resp); err != nil {
		return nil, err
	}
	return resp.Transactions, nil
}

func (c *Client) GetTransaction(ctx context.Context, digest string) (*prt.TxBlock, error) {
	var blk prt.TxBlock
	if err := c.get(ctx, "/api/v1/tx/"+url.PathEscape(digest), &blk); err != nil {
		return nil, err
	}
	return &blk, nil
}

// RequestFaucet asks a devnet node to mint test coins to address
func (c *Client) RequestFaucet(ctx context.Context, address prt.Address) (*prt.ExecutionResult, error) {
	body := map[string]string{"address": utils.AddressToString(address)}

	var result prt.ExecutionResult
	if err := c.post(ctx, "/api/v1/faucet", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var result RestResp
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("decode response (%d): %w", resp.StatusCode, err)
	}

	if !result.Success {
		return &APIError{StatusCode: resp.StatusCode, Message: result.Error}
	}

	if out == nil || len(result.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(result.Data, out); err != nil {
		return fmt.Errorf("parse %s: %w", req.URL.Path, err)
	}
	return nil
}
