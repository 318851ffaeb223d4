// Package transfer provides the end-to-end transfer pipeline for client operations.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/solflow/v1/client/core/builder"
	"github.com/solflow/v1/client/core/transport"
	"github.com/solflow/v1/client/core/wallet"
)

// ConfirmAttempts 确认轮询的次数上限
// 超限后结论是 TimedOut 而非 Rejected：交易的真实结局对客户端未知，
// 事后可随时凭签名调 GetTransactionDetails 追查
const ConfirmAttempts = 3

// OutcomeStatus 提交结局
// 状态机：Built -> Sent -> {Confirmed | Rejected | TimedOut}，终态不再迁移
type OutcomeStatus int

const (
	// OutcomeConfirmed 已按要求的确认级别写入账本
	OutcomeConfirmed OutcomeStatus = iota

	// OutcomeRejected 网络确定性拒绝执行（附带诊断日志）
	OutcomeRejected

	// OutcomeTimedOut 轮询次数耗尽，结局未知
	OutcomeTimedOut
)

// String 返回结局的可读名称
func (s OutcomeStatus) String() string {
	switch s {
	case OutcomeConfirmed:
		return "confirmed"
	case OutcomeRejected:
		return "rejected"
	case OutcomeTimedOut:
		return "timed-out"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Outcome 提交结局（终值，创建后不再修改）
type Outcome struct {
	Status    OutcomeStatus
	Signature string   // 交易签名（已发送即有值，TimedOut时用于事后追查）
	Slot      uint64   // 确认所在slot（Confirmed时有效）
	Reason    string   // 拒绝原因（Rejected时有效）
	Logs      []string // 节点诊断日志，逐行原样保留（Rejected时有效）
}

// Request 转账请求（CLI边界格式：金额为SOL字符串）
type Request struct {
	SenderKey string // 发送方私钥（Base58或JSON整数数组）
	To        string // 接收方地址（Base58）
	Amount    string // 转账金额（SOL单位字符串）
}

// Result 转账结果
type Result struct {
	Outcome *Outcome
	Fee     *builder.Amount // 估算费用
	Amount  *builder.Amount // 实际转账金额
}

// Service 转账业务服务
//
// 单笔转账严格串行执行：认证 → 估费 → 余额检查 → 签名 → 提交 → 确认，
// 每一步都是一次网络往返，前一步未返回不会推进。
// 已知竞争窗口：并发的多笔转账若共享同一发送方，各自独立读取提交前余额，
// 可能同时通过余额检查。本核心不做跨进程协调（需要外部协调，超出范围），
// 只在此处如实记录
type Service struct {
	builder        *builder.TransferBuilder
	client         transport.Client
	commitment     transport.Commitment
	confirmBackoff time.Duration
	logger         zerolog.Logger
}

// NewService 创建转账业务服务
func NewService(client transport.Client, commitment transport.Commitment, confirmBackoff time.Duration, logger zerolog.Logger) *Service {
	if !commitment.Valid() {
		commitment = transport.CommitmentConfirmed
	}
	if confirmBackoff <= 0 {
		confirmBackoff = 2 * time.Second
	}

	return &Service{
		builder:        builder.NewTransferBuilder(client, logger),
		client:         client,
		commitment:     commitment,
		confirmBackoff: confirmBackoff,
		logger:         logger.With().Str("component", "transfer").Logger(),
	}
}

// ExecuteTransfer 执行单笔转账
//
// 完整流程：
//  1. 解析发送方身份与接收方地址
//  2. 估算费用（携带新鲜度凭证）
//  3. 构建并签名（内部完成能力认证与签名前余额检查）
//  4. 提交并确认
func (s *Service) ExecuteTransfer(ctx context.Context, req *Request) (*Result, error) {
	if req == nil {
		return nil, fmt.Errorf("request is nil")
	}

	identity, err := wallet.ParseIdentity(req.SenderKey)
	if err != nil {
		return nil, fmt.Errorf("parse sender key: %w", err)
	}

	to, err := wallet.ParsePublicKey(req.To)
	if err != nil {
		return nil, fmt.Errorf("parse recipient: %w", err)
	}

	amount, err := builder.NewAmountFromString(req.Amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", builder.ErrInvalidAmount)
	}

	transferReq := &builder.TransferRequest{
		From:   identity,
		To:     to,
		Amount: amount,
	}

	est, err := s.builder.EstimateFee(ctx, transferReq)
	if err != nil {
		return nil, fmt.Errorf("estimate fee: %w", err)
	}

	s.logger.Info().
		Str("from", identity.Address()).
		Str("to", to.String()).
		Str("amount", amount.StringTrimmed()).
		Str("fee", est.Fee.StringLamports()).
		Msg("transfer prepared")

	signed, err := s.builder.BuildAndSign(ctx, transferReq, est)
	if err != nil {
		return nil, err
	}

	outcome, err := s.SubmitAndConfirm(ctx, signed)
	if err != nil {
		return nil, err
	}

	return &Result{
		Outcome: outcome,
		Fee:     est.Fee,
		Amount:  amount,
	}, nil
}

// SubmitAndConfirm 提交已签名交易并解析到确定结局
//
// 发送只做一次（至少一次语义：若首次其实已落地，账本按同签名去重兜底）。
// 之后按固定上限轮询确认状态：
//   - 达到要求的确认级别 → Confirmed
//   - 节点报告执行失败 → Rejected（诊断日志逐行原样带回）
//   - 次数耗尽仍未确认 → TimedOut（结局未知，不是拒绝）
func (s *Service) SubmitAndConfirm(ctx context.Context, signed *builder.SignedTransfer) (*Outcome, error) {
	if signed == nil {
		return nil, fmt.Errorf("signed transfer is nil")
	}

	// Built -> Sent
	signature, err := s.client.SendTransaction(ctx, signed.Base64())
	if err != nil {
		var rejected *transport.RejectedError
		if errors.As(err, &rejected) {
			// 预检拒绝：带着节点日志直接进入终态
			return &Outcome{
				Status:    OutcomeRejected,
				Signature: signed.Signature,
				Reason:    rejected.Reason,
				Logs:      rejected.Logs,
			}, nil
		}
		return nil, fmt.Errorf("send transaction: %w", err)
	}

	s.logger.Info().Str("signature", signature).Msg("transaction sent")

	// Sent -> {Confirmed | Rejected | TimedOut}
	for attempt := 1; attempt <= ConfirmAttempts; attempt++ {
		select {
		case <-ctx.Done():
			// 中断的提交按TimedOut处理：交易可能已在途
			return &Outcome{Status: OutcomeTimedOut, Signature: signature}, nil
		case <-time.After(s.confirmBackoff):
		}

		status, err := s.client.ConfirmSignature(ctx, signature, s.commitment)
		if err != nil {
			s.logger.Warn().Int("attempt", attempt).Err(err).Msg("confirmation poll failed")
			continue
		}

		switch status.State {
		case transport.ConfirmationConfirmed:
			s.logger.Info().Str("signature", signature).Uint64("slot", status.Slot).Msg("transaction confirmed")
			return &Outcome{
				Status:    OutcomeConfirmed,
				Signature: signature,
				Slot:      status.Slot,
			}, nil

		case transport.ConfirmationRejected:
			return &Outcome{
				Status:    OutcomeRejected,
				Signature: signature,
				Reason:    status.Err,
				Logs:      status.Logs,
			}, nil

		case transport.ConfirmationPending:
			s.logger.Debug().Int("attempt", attempt).Msg("transaction pending")
		}
	}

	s.logger.Warn().Str("signature", signature).Msg("confirmation attempts exhausted")
	return &Outcome{Status: OutcomeTimedOut, Signature: signature}, nil
}

// EstimateFee 估算转账费用（供UI显示）
func (s *Service) EstimateFee(ctx context.Context, senderKey, to, amount string) (*builder.FeeEstimate, error) {
	identity, err := wallet.ParseIdentity(senderKey)
	if err != nil {
		return nil, fmt.Errorf("parse sender key: %w", err)
	}

	toKey, err := wallet.ParsePublicKey(to)
	if err != nil {
		return nil, fmt.Errorf("parse recipient: %w", err)
	}

	amt, err := builder.NewAmountFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}

	return s.builder.EstimateFee(ctx, &builder.TransferRequest{
		From:   identity,
		To:     toKey,
		Amount: amt,
	})
}

// GetBalance 查询地址余额（供UI显示）
func (s *Service) GetBalance(ctx context.Context, address string) (*builder.Amount, error) {
	if _, err := wallet.ParsePublicKey(address); err != nil {
		return nil, fmt.Errorf("parse address: %w", err)
	}

	lamports, err := s.client.GetBalance(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("get balance: %w", err)
	}

	return builder.NewAmountFromLamports(lamports), nil
}

// GetTransactionDetails 按签名查询交易详情
// 纯读操作，独立于提交状态机，可在任意时刻调用（用于事后解析TimedOut结局）
func (s *Service) GetTransactionDetails(ctx context.Context, signature string) (*transport.TransactionRecord, error) {
	record, err := s.client.GetTransaction(ctx, signature)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return record, nil
}
