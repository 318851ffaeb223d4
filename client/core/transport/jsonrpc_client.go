package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// JSONRPCClient JSON-RPC 2.0 客户端实现
// 对接节点的标准RPC接口（getBalance/getAccountInfo/sendTransaction等）
type JSONRPCClient struct {
	endpoint   string
	httpClient *http.Client
	nextID     atomic.Uint64
	logger     zerolog.Logger
}

// NewJSONRPCClient 创建JSON-RPC客户端
func NewJSONRPCClient(endpoint string, timeout time.Duration, logger zerolog.Logger) *JSONRPCClient {
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &JSONRPCClient{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: logger.With().Str("component", "jsonrpc").Str("endpoint", endpoint).Logger(),
	}
}

// jsonrpcRequest JSON-RPC 2.0 请求
type jsonrpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
	ID      uint64        `json:"id"`
}

// jsonrpcResponse JSON-RPC 2.0 响应
type jsonrpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *jsonrpcError   `json:"error,omitempty"`
	ID      uint64          `json:"id"`
}

// jsonrpcError JSON-RPC 2.0 错误
type jsonrpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// call 统一的JSON-RPC调用方法
func (c *JSONRPCClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	req := &jsonrpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Debug().Str("method", method).Msg("rpc call")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn().Err(err).Msg("close response body")
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var jsonResp jsonrpcResponse
	if err := json.Unmarshal(respBody, &jsonResp); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	if jsonResp.Error != nil {
		return c.convertError(method, jsonResp.Error)
	}

	if result != nil && len(jsonResp.Result) > 0 {
		if err := json.Unmarshal(jsonResp.Result, result); err != nil {
			return fmt.Errorf("unmarshal result: %w", err)
		}
	}

	return nil
}

// convertError 转换JSON-RPC错误
// sendTransaction预检失败时，节点在error.data.logs中附带模拟执行日志，
// 必须逐行原样保留（这是用户唯一的排障依据）
func (c *JSONRPCClient) convertError(method string, rpcErr *jsonrpcError) error {
	if len(rpcErr.Data) > 0 {
		var data struct {
			Logs []string `json:"logs"`
		}
		if err := json.Unmarshal(rpcErr.Data, &data); err == nil && len(data.Logs) > 0 {
			return &RejectedError{
				Reason: rpcErr.Message,
				Logs:   data.Logs,
			}
		}
	}

	// 预检失败但无日志：仍属于确定性拒绝
	if method == "sendTransaction" {
		return &RejectedError{Reason: rpcErr.Message}
	}

	return fmt.Errorf("jsonrpc error %d: %s", rpcErr.Code, rpcErr.Message)
}

// contextEnvelope 大部分查询方法的返回值外层包装
type contextEnvelope struct {
	Context struct {
		Slot uint64 `json:"slot"`
	} `json:"context"`
	Value json.RawMessage `json:"value"`
}

// ===== 接口实现 =====

func (c *JSONRPCClient) GetBalance(ctx context.Context, address string) (uint64, error) {
	var envelope contextEnvelope
	params := []interface{}{address, map[string]interface{}{"commitment": string(CommitmentConfirmed)}}
	if err := c.call(ctx, "getBalance", params, &envelope); err != nil {
		return 0, err
	}

	var balance uint64
	if err := json.Unmarshal(envelope.Value, &balance); err != nil {
		return 0, fmt.Errorf("parse balance: %w", err)
	}

	return balance, nil
}

func (c *JSONRPCClient) GetAccountInfo(ctx context.Context, address string) (*AccountInfo, error) {
	var envelope contextEnvelope
	params := []interface{}{address, map[string]interface{}{"encoding": "base64"}}
	if err := c.call(ctx, "getAccountInfo", params, &envelope); err != nil {
		return nil, err
	}

	// value为null表示账户不在链上
	if len(envelope.Value) == 0 || string(envelope.Value) == "null" {
		return nil, nil
	}

	var info AccountInfo
	if err := json.Unmarshal(envelope.Value, &info); err != nil {
		return nil, fmt.Errorf("parse account info: %w", err)
	}

	return &info, nil
}

func (c *JSONRPCClient) GetLatestBlockhash(ctx context.Context) (string, error) {
	var envelope contextEnvelope
	params := []interface{}{map[string]interface{}{"commitment": string(CommitmentConfirmed)}}
	if err := c.call(ctx, "getLatestBlockhash", params, &envelope); err != nil {
		return "", err
	}

	var value struct {
		Blockhash            string `json:"blockhash"`
		LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
	}
	if err := json.Unmarshal(envelope.Value, &value); err != nil {
		return "", fmt.Errorf("parse blockhash: %w", err)
	}

	if value.Blockhash == "" {
		return "", fmt.Errorf("node returned empty blockhash")
	}

	return value.Blockhash, nil
}

func (c *JSONRPCClient) GetFeeForMessage(ctx context.Context, messageBase64 string) (uint64, bool, error) {
	var envelope contextEnvelope
	params := []interface{}{messageBase64, map[string]interface{}{"commitment": string(CommitmentConfirmed)}}
	if err := c.call(ctx, "getFeeForMessage", params, &envelope); err != nil {
		return 0, false, err
	}

	// value为null表示节点无法定价（例如区块哈希已过期）
	if len(envelope.Value) == 0 || string(envelope.Value) == "null" {
		return 0, false, nil
	}

	var fee uint64
	if err := json.Unmarshal(envelope.Value, &fee); err != nil {
		return 0, false, fmt.Errorf("parse fee: %w", err)
	}

	return fee, true, nil
}

func (c *JSONRPCClient) SendTransaction(ctx context.Context, signedTxBase64 string) (string, error) {
	var signature string
	params := []interface{}{signedTxBase64, map[string]interface{}{
		"encoding":            "base64",
		"preflightCommitment": string(CommitmentConfirmed),
	}}
	if err := c.call(ctx, "sendTransaction", params, &signature); err != nil {
		return "", err
	}

	c.logger.Debug().Str("signature", signature).Msg("transaction sent")
	return signature, nil
}

func (c *JSONRPCClient) ConfirmSignature(ctx context.Context, signature string, commitment Commitment) (*ConfirmationStatus, error) {
	var envelope contextEnvelope
	params := []interface{}{[]string{signature}}
	if err := c.call(ctx, "getSignatureStatuses", params, &envelope); err != nil {
		return nil, err
	}

	var values []*struct {
		Slot               uint64          `json:"slot"`
		Confirmations      *uint64         `json:"confirmations"`
		Err                json.RawMessage `json:"err"`
		ConfirmationStatus string          `json:"confirmationStatus"`
	}
	if err := json.Unmarshal(envelope.Value, &values); err != nil {
		return nil, fmt.Errorf("parse signature statuses: %w", err)
	}

	// 节点尚未见到该签名
	if len(values) == 0 || values[0] == nil {
		return &ConfirmationStatus{State: ConfirmationPending}, nil
	}

	status := values[0]

	// 执行失败：确定性拒绝，补查交易日志随结果一起返回
	if len(status.Err) > 0 && string(status.Err) != "null" {
		result := &ConfirmationStatus{
			State: ConfirmationRejected,
			Slot:  status.Slot,
			Err:   string(status.Err),
		}
		if record, err := c.GetTransaction(ctx, signature); err == nil && record != nil {
			result.Logs = record.Logs
		}
		return result, nil
	}

	if commitmentReached(status.ConfirmationStatus, commitment) {
		return &ConfirmationStatus{State: ConfirmationConfirmed, Slot: status.Slot}, nil
	}

	return &ConfirmationStatus{State: ConfirmationPending, Slot: status.Slot}, nil
}

// commitmentReached 判断实际确认级别是否满足要求
func commitmentReached(actual string, required Commitment) bool {
	rank := map[string]int{
		string(CommitmentProcessed): 1,
		string(CommitmentConfirmed): 2,
		string(CommitmentFinalized): 3,
	}

	actualRank, ok := rank[actual]
	if !ok {
		return false
	}

	return actualRank >= rank[string(required)]
}

func (c *JSONRPCClient) GetTransaction(ctx context.Context, signature string) (*TransactionRecord, error) {
	var result json.RawMessage
	params := []interface{}{signature, map[string]interface{}{
		"encoding":   "json",
		"commitment": string(CommitmentConfirmed),
	}}
	if err := c.call(ctx, "getTransaction", params, &result); err != nil {
		return nil, err
	}

	// 交易不存在
	if len(result) == 0 || string(result) == "null" {
		return nil, nil
	}

	var tx struct {
		Slot      uint64 `json:"slot"`
		BlockTime *int64 `json:"blockTime"`
		Meta      *struct {
			Err         json.RawMessage `json:"err"`
			Fee         uint64          `json:"fee"`
			LogMessages []string        `json:"logMessages"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(result, &tx); err != nil {
		return nil, fmt.Errorf("parse transaction: %w", err)
	}

	record := &TransactionRecord{
		Signature: signature,
		Slot:      tx.Slot,
		Success:   true,
	}

	if tx.BlockTime != nil {
		record.BlockTime = time.Unix(*tx.BlockTime, 0).UTC()
	}

	if tx.Meta != nil {
		record.Fee = tx.Meta.Fee
		record.Logs = tx.Meta.LogMessages
		if len(tx.Meta.Err) > 0 && string(tx.Meta.Err) != "null" {
			record.Success = false
			record.Err = string(tx.Meta.Err)
		}
	}

	return record, nil
}

func (c *JSONRPCClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
