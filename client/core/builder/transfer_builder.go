package builder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/solflow/v1/client/core/transport"
	"github.com/solflow/v1/client/core/wallet"
)

const (
	// BaseSignatureFee 单签名交易的基础费用（lamports）
	// 节点无法定价时的兜底值，与网络默认费率一致
	BaseSignatureFee = 5000

	// StaleAfter 费用估算的有效窗口
	// 区块哈希在网络上约60秒后过期，这里提前在30秒处刷新，
	// 避免拿着临界过期的凭证去签名
	StaleAfter = 30 * time.Second
)

// ErrNonSignerAccount 发送方账户不具备签名能力（归属非系统程序）
var ErrNonSignerAccount = errors.New("sender account is not signer-capable")

// InsufficientBalanceError 余额不足
// 携带精确的差额（lamports）供用户展示
type InsufficientBalanceError struct {
	Balance   uint64 // 当前余额
	Required  uint64 // 需要的总额（金额+费用）
	Shortfall uint64 // 差额
}

// Error 实现error接口
func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: have %d lamports, need %d (short %d)",
		e.Balance, e.Required, e.Shortfall)
}

// TransferRequest 转账请求参数
type TransferRequest struct {
	From   *wallet.Identity // 发送方身份（同时是付费方）
	To     wallet.PublicKey // 接收方公钥
	Amount *Amount          // 转账金额
}

// FeeEstimate 费用估算结果
// 估算只对其携带的区块哈希有效：凭证过期后估算随之失效，
// 提交前必须重新获取
type FeeEstimate struct {
	Fee       *Amount   // 打包费用
	Blockhash string    // 估算所依据的新鲜度凭证
	FetchedAt time.Time // 凭证获取时刻
}

// Stale 判断估算是否已过有效窗口
func (e *FeeEstimate) Stale(now time.Time) bool {
	return now.Sub(e.FetchedAt) > StaleAfter
}

// TransferBuilder 转账构建器
// 负责费用估算与签名交易的组装，不做任何提交动作
type TransferBuilder struct {
	client transport.Client
	logger zerolog.Logger
}

// NewTransferBuilder 创建转账构建器
func NewTransferBuilder(client transport.Client, logger zerolog.Logger) *TransferBuilder {
	return &TransferBuilder{
		client: client,
		logger: logger.With().Str("component", "builder").Logger(),
	}
}

// EstimateFee 估算转账费用
//
// 流程：取最新区块哈希 → 构建未签名消息 → 请节点定价。
// 定价本身是一次网络往返，拿到的估算可能在提交前就过期，
// 调用方（或BuildAndSign）须在签名前检查新鲜度
func (tb *TransferBuilder) EstimateFee(ctx context.Context, req *TransferRequest) (*FeeEstimate, error) {
	if err := tb.validateRequest(req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	blockhash, err := tb.client.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("get latest blockhash: %w", err)
	}

	msg, err := NewTransferMessage(req.From.PublicKey(), req.To, req.Amount.Lamports(), blockhash)
	if err != nil {
		return nil, fmt.Errorf("build message: %w", err)
	}

	fee, ok, err := tb.client.GetFeeForMessage(ctx, msg.Base64())
	if err != nil {
		return nil, fmt.Errorf("get fee for message: %w", err)
	}

	if !ok {
		// 节点无法定价：回退到基础签名费
		tb.logger.Warn().Uint64("fallback_fee", BaseSignatureFee).Msg("fee unavailable, using base signature fee")
		fee = BaseSignatureFee
	}

	return &FeeEstimate{
		Fee:       NewAmountFromLamports(fee),
		Blockhash: blockhash,
		FetchedAt: time.Now(),
	}, nil
}

// BuildAndSign 构建并签名转账交易
//
// 前置条件（全部满足才会签名）：
//  1. 发送方账户可签名（归属系统程序或尚未上链）
//  2. 费用估算仍然新鲜（过期则就地刷新，不打断调用方）
//  3. 余额 >= 金额 + 费用（签名前即时查询，不复用早先的检查结果，
//     以收窄并发转账的竞争窗口）
//
// 返回的交易绑定：发送方、接收方、金额、付费方（=发送方）与签名时刻的区块哈希
func (tb *TransferBuilder) BuildAndSign(ctx context.Context, req *TransferRequest, est *FeeEstimate) (*SignedTransfer, error) {
	if err := tb.validateRequest(req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	// 1. 能力认证：非签名账户直接拒绝，不做签名尝试
	class, err := wallet.ClassifyAccount(ctx, tb.client, req.From.PublicKey())
	if err != nil {
		return nil, fmt.Errorf("classify sender: %w", err)
	}
	if class != wallet.CapabilitySigner {
		return nil, fmt.Errorf("%w: owner is not the system program", ErrNonSignerAccount)
	}

	// 2. 新鲜度检查：过期的估算就地刷新
	if est == nil || est.Stale(time.Now()) {
		tb.logger.Debug().Msg("fee estimate stale, refreshing blockhash")
		est, err = tb.EstimateFee(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("refresh fee estimate: %w", err)
		}
	}

	// 3. 余额检查：签名前即时查询
	balance, err := tb.client.GetBalance(ctx, req.From.Address())
	if err != nil {
		return nil, fmt.Errorf("get balance: %w", err)
	}

	required := req.Amount.Add(est.Fee)
	if NewAmountFromLamports(balance).LessThan(required) {
		shortfall, _ := required.Sub(NewAmountFromLamports(balance))
		return nil, &InsufficientBalanceError{
			Balance:   balance,
			Required:  required.Lamports(),
			Shortfall: shortfall.Lamports(),
		}
	}

	// 4. 构建并签名
	msg, err := NewTransferMessage(req.From.PublicKey(), req.To, req.Amount.Lamports(), est.Blockhash)
	if err != nil {
		return nil, fmt.Errorf("build message: %w", err)
	}

	signed := signTransfer(req.From, msg, req.Amount, est.Blockhash)

	tb.logger.Debug().
		Str("signature", signed.Signature).
		Str("from", signed.From.String()).
		Str("to", signed.To.String()).
		Str("amount", req.Amount.StringLamports()).
		Str("fee", est.Fee.StringLamports()).
		Msg("transfer signed")

	return signed, nil
}

// validateRequest 验证转账请求
func (tb *TransferBuilder) validateRequest(req *TransferRequest) error {
	if req == nil {
		return fmt.Errorf("request is nil")
	}

	if req.From == nil {
		return fmt.Errorf("sender identity is nil")
	}

	if req.Amount == nil || !req.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}

	return nil
}
