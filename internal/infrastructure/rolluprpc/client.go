// Package rolluprpc implements spec.md §4.5 (the account resolver) and the
// rollup-RPC method shapes spec.md §6 lists: getAccountIdByScriptHash,
// getScriptHash and getBalance. It is a thin JSON-RPC client ported from the
// teacher's internal/infrastructure/ethrpc/client.go request/response
// envelope — only the method names and the scriptHash/EOA-classification
// logic on top of it are new.
package rolluprpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"pjgateway/internal/domain"
)

type Client struct {
	url        string
	httpClient *http.Client
	idCounter  uint64

	ethAccountLockCodeHash [32]byte
	rollupScriptHash       [32]byte
}

type Config struct {
	URL                    string
	EthAccountLockCodeHash [32]byte
	RollupScriptHash       [32]byte
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, domain.NewConfigError("rollup rpc url is required")
	}
	return &Client{
		url:                    cfg.URL,
		httpClient:             &http.Client{},
		ethAccountLockCodeHash: cfg.EthAccountLockCodeHash,
		rollupScriptHash:       cfg.RollupScriptHash,
	}, nil
}

// AccountIDOf resolves the rollup account id registered for address, per
// spec.md §4.5's accountIdOf. It first derives address's layer-2 script
// hash (ethAddressToAccountId, spec.md §6) and looks that up.
func (c *Client) AccountIDOf(ctx context.Context, address [20]byte) (uint32, bool, error) {
	scriptHash := common.Hash(c.eoaScriptHash(address))
	var result *hexutil.Uint
	if err := c.call(ctx, "getAccountIdByScriptHash", []any{scriptHash}, &result); err != nil {
		return 0, false, domain.NewUpstreamError("getAccountIdByScriptHash", err)
	}
	if result == nil {
		return 0, false, nil
	}
	return uint32(*result), true, nil
}

// IsEoa classifies the account registered at id as externally owned by
// comparing its on-chain script hash to address's EOA script hash, per
// spec.md §4.5.
func (c *Client) IsEoa(ctx context.Context, address [20]byte, id uint32) (bool, error) {
	var result common.Hash
	if err := c.call(ctx, "getScriptHash", []any{hexutil.Uint(id)}, &result); err != nil {
		return false, domain.NewUpstreamError("getScriptHash", err)
	}
	return result == common.Hash(c.eoaScriptHash(address)), nil
}

// GetBalance returns the sudt balance for address, per spec.md §6.
func (c *Client) GetBalance(ctx context.Context, address [20]byte, sudtID uint32) (*big.Int, error) {
	var result hexutil.Big
	if err := c.call(ctx, "getBalance", []any{common.Address(address), hexutil.Uint(sudtID)}, &result); err != nil {
		return nil, domain.NewUpstreamError("getBalance", err)
	}
	return (*big.Int)(&result), nil
}

// TipBlockHash returns the rollup's current tip block hash, the input the
// pending-view projector bumps into a sentinel (spec.md §4.7).
func (c *Client) TipBlockHash(ctx context.Context) ([32]byte, error) {
	var result common.Hash
	if err := c.call(ctx, "get_tip_block_hash", nil, &result); err != nil {
		return [32]byte{}, domain.NewUpstreamError("get_tip_block_hash", err)
	}
	return result, nil
}

// TipBlockNumber returns the rollup's current tip block number.
func (c *Client) TipBlockNumber(ctx context.Context, tipBlockHash [32]byte) (uint64, error) {
	var result hexutil.Uint64
	if err := c.call(ctx, "get_block_number_by_hash", []any{common.Hash(tipBlockHash)}, &result); err != nil {
		return 0, domain.NewUpstreamError("get_block_number_by_hash", err)
	}
	return uint64(result), nil
}

// eoaScriptHash derives the domain-specific EOA script hash for address,
// per spec.md §4.5. See DESIGN.md for why this uses Keccak-256 rather than
// Godwoken's production Blake2b/CKB script hash.
func (c *Client) eoaScriptHash(address [20]byte) [32]byte {
	buf := make([]byte, 0, 32+1+32+20)
	buf = append(buf, c.ethAccountLockCodeHash[:]...)
	buf = append(buf, 0x01) // hash_type: type
	buf = append(buf, c.rollupScriptHash[:]...)
	buf = append(buf, address[:]...)
	return crypto.Keccak256Hash(buf)
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *Client) call(ctx context.Context, method string, params []any, result any) error {
	if params == nil {
		params = []any{}
	}
	id := atomic.AddUint64(&c.idCounter, 1)
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("rpc status %d", resp.StatusCode)
	}

	var decoded rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return err
	}
	if decoded.Error != nil {
		return fmt.Errorf("rpc error %d: %s", decoded.Error.Code, decoded.Error.Message)
	}
	if result == nil {
		return nil
	}
	if len(decoded.Result) == 0 {
		return nil
	}
	return json.Unmarshal(decoded.Result, result)
}
