package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// RetryConfig 重试策略配置
type RetryConfig struct {
	Attempts int           `json:"attempts"` // 每次调用的最大尝试次数
	Backoff  time.Duration `json:"backoff"`  // 尝试间隔（线性退避基数）
}

// RetryClient 带重试策略的客户端包装
//
// 重试策略属于传输层自身，上层业务不再重复实现（上层只看到最终结果）。
// 只有网络层面的失败会被重试；节点的确定性拒绝（*RejectedError）原样上抛，
// 重复提交一笔已被拒绝的交易没有意义
type RetryClient struct {
	inner  Client
	config RetryConfig
	logger zerolog.Logger
}

// NewRetryClient 创建带重试策略的客户端
func NewRetryClient(inner Client, config RetryConfig, logger zerolog.Logger) *RetryClient {
	if config.Attempts <= 0 {
		config.Attempts = 3
	}
	if config.Backoff <= 0 {
		config.Backoff = time.Second
	}

	return &RetryClient{
		inner:  inner,
		config: config,
		logger: logger.With().Str("component", "retry").Logger(),
	}
}

// retryable 判断错误是否可重试
func retryable(err error) bool {
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

// do 按策略执行单次操作
// 重试耗尽后返回 ErrNetworkUnavailable，并保留最后一次失败原因
func (c *RetryClient) do(ctx context.Context, op string, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= c.config.Attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !retryable(lastErr) {
			return lastErr
		}

		c.logger.Warn().
			Str("op", op).
			Int("attempt", attempt).
			Err(lastErr).
			Msg("rpc call failed")

		if attempt == c.config.Attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.config.Backoff * time.Duration(attempt)):
		}
	}

	return fmt.Errorf("%w: %s after %d attempts: %v", ErrNetworkUnavailable, op, c.config.Attempts, lastErr)
}

// ===== 接口实现 =====

func (c *RetryClient) GetBalance(ctx context.Context, address string) (uint64, error) {
	var balance uint64
	err := c.do(ctx, "getBalance", func() error {
		var err error
		balance, err = c.inner.GetBalance(ctx, address)
		return err
	})
	return balance, err
}

func (c *RetryClient) GetAccountInfo(ctx context.Context, address string) (*AccountInfo, error) {
	var info *AccountInfo
	err := c.do(ctx, "getAccountInfo", func() error {
		var err error
		info, err = c.inner.GetAccountInfo(ctx, address)
		return err
	})
	return info, err
}

func (c *RetryClient) GetLatestBlockhash(ctx context.Context) (string, error) {
	var blockhash string
	err := c.do(ctx, "getLatestBlockhash", func() error {
		var err error
		blockhash, err = c.inner.GetLatestBlockhash(ctx)
		return err
	})
	return blockhash, err
}

func (c *RetryClient) GetFeeForMessage(ctx context.Context, messageBase64 string) (uint64, bool, error) {
	var fee uint64
	var ok bool
	err := c.do(ctx, "getFeeForMessage", func() error {
		var err error
		fee, ok, err = c.inner.GetFeeForMessage(ctx, messageBase64)
		return err
	})
	return fee, ok, err
}

// SendTransaction 提交交易（不重试）
//
// 提交在网络层面不是幂等操作：第一次尝试可能已经落地，
// 盲目重发依赖账本的同签名去重机制兜底。这里保持单次发送，
// 把"发送后结果未知"的情况交给确认轮询去解决
func (c *RetryClient) SendTransaction(ctx context.Context, signedTxBase64 string) (string, error) {
	signature, err := c.inner.SendTransaction(ctx, signedTxBase64)
	if err != nil && retryable(err) {
		return "", fmt.Errorf("%w: sendTransaction: %v", ErrNetworkUnavailable, err)
	}
	return signature, err
}

func (c *RetryClient) ConfirmSignature(ctx context.Context, signature string, commitment Commitment) (*ConfirmationStatus, error) {
	var status *ConfirmationStatus
	err := c.do(ctx, "getSignatureStatuses", func() error {
		var err error
		status, err = c.inner.ConfirmSignature(ctx, signature, commitment)
		return err
	})
	return status, err
}

func (c *RetryClient) GetTransaction(ctx context.Context, signature string) (*TransactionRecord, error) {
	var record *TransactionRecord
	err := c.do(ctx, "getTransaction", func() error {
		var err error
		record, err = c.inner.GetTransaction(ctx, signature)
		return err
	})
	return record, err
}

func (c *RetryClient) Close() error {
	return c.inner.Close()
}
