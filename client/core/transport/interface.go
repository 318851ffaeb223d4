// Package transport provides transport interface definitions for client operations.
package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Client 统一传输客户端接口 - CLI与RPC节点通信的唯一通道
// 所有网络调用必须经由此接口，调用方不得绕过它直接访问节点
type Client interface {
	// ===== 账户查询 =====

	// GetBalance 查询账户余额（lamports）
	// address: Base58编码的账户公钥
	GetBalance(ctx context.Context, address string) (uint64, error)

	// GetAccountInfo 查询账户元数据
	// 账户不存在时返回 nil（不视为错误）
	GetAccountInfo(ctx context.Context, address string) (*AccountInfo, error)

	// ===== 交易构建辅助 =====

	// GetLatestBlockhash 获取最新区块哈希（交易新鲜度凭证）
	// 凭证在网络定义的窗口后过期，过期后交易会被节点拒收
	GetLatestBlockhash(ctx context.Context) (string, error)

	// GetFeeForMessage 估算消息的打包费用（lamports）
	// messageBase64: Base64编码的未签名消息
	// 节点无法定价时返回 ok=false（例如区块哈希已过期）
	GetFeeForMessage(ctx context.Context, messageBase64 string) (uint64, bool, error)

	// ===== 交易提交与查询 =====

	// SendTransaction 提交已签名交易
	// signedTxBase64: Base64编码的完整签名交易
	// 返回Base58编码的交易签名；节点预检失败时返回 *RejectedError
	SendTransaction(ctx context.Context, signedTxBase64 string) (string, error)

	// ConfirmSignature 查询签名的确认状态
	// commitment: 要求的确认级别
	ConfirmSignature(ctx context.Context, signature string, commitment Commitment) (*ConfirmationStatus, error)

	// GetTransaction 按签名查询交易详情（纯读操作，可在任意时刻调用）
	// 交易不存在时返回 nil
	GetTransaction(ctx context.Context, signature string) (*TransactionRecord, error)

	// Close 关闭客户端连接
	Close() error
}

// Commitment 确认级别
type Commitment string

const (
	CommitmentProcessed Commitment = "processed" // 节点已处理
	CommitmentConfirmed Commitment = "confirmed" // 集群多数确认
	CommitmentFinalized Commitment = "finalized" // 不可回滚
)

// Valid 检查确认级别是否合法
func (c Commitment) Valid() bool {
	switch c {
	case CommitmentProcessed, CommitmentConfirmed, CommitmentFinalized:
		return true
	}
	return false
}

// AccountInfo 账户元数据
type AccountInfo struct {
	Owner      string `json:"owner"`      // 所属程序（Base58）
	Lamports   uint64 `json:"lamports"`   // 余额
	Executable bool   `json:"executable"` // 是否为可执行程序账户
}

// ConfirmationState 确认状态
type ConfirmationState int

const (
	// ConfirmationPending 尚未达到要求的确认级别
	ConfirmationPending ConfirmationState = iota
	// ConfirmationConfirmed 已达到要求的确认级别
	ConfirmationConfirmed
	// ConfirmationRejected 执行失败（确定性拒绝）
	ConfirmationRejected
)

// ConfirmationStatus 签名确认查询结果
type ConfirmationStatus struct {
	State ConfirmationState
	Slot  uint64   // 交易所在slot（已确认时有效）
	Err   string   // 节点报告的执行错误（拒绝时有效）
	Logs  []string // 节点诊断日志（原样保留，不做裁剪）
}

// TransactionRecord 交易详情
type TransactionRecord struct {
	Signature string    // Base58签名
	Slot      uint64    // 所在slot
	BlockTime time.Time // 出块时间（可能为零值）
	Fee       uint64    // 实际扣除的费用（lamports）
	Success   bool      // 是否执行成功
	Err       string    // 执行错误（失败时有效）
	Logs      []string  // 执行日志
}

// ErrNetworkUnavailable 网络不可用（重试耗尽后的最终错误）
var ErrNetworkUnavailable = errors.New("network unavailable")

// RejectedError 节点确定性拒绝
// 携带节点返回的原始诊断日志，这是用户排障的首要信号，任何一层都不得吞掉
type RejectedError struct {
	Reason string   // 拒绝原因
	Logs   []string // 节点诊断日志（逐行原样保留）
}

// Error 实现error接口
func (e *RejectedError) Error() string {
	if len(e.Logs) == 0 {
		return fmt.Sprintf("transaction rejected: %s", e.Reason)
	}
	return fmt.Sprintf("transaction rejected: %s\n%s", e.Reason, strings.Join(e.Logs, "\n"))
}
