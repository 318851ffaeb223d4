package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/solflow/v1/client/core/builder"
	"github.com/solflow/v1/client/core/transfer"
	"github.com/solflow/v1/client/core/transport"
	"github.com/solflow/v1/client/core/wallet"
)

var (
	transferKeyFile string
	transferTo      string
	transferAmount  string
)

// transferCmd 转账相关命令
var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "原生转账",
	Long:  "构建、签名并提交原生转账，轮询到确定结局",
}

// transferSendCmd 执行转账
var transferSendCmd = &cobra.Command{
	Use:   "send",
	Short: "执行转账",
	Long: `执行单笔原生转账。

完整流程（严格串行，每步一次网络往返）：
  能力认证 → 费用估算 → 签名前余额检查 → 签名 → 提交 → 确认轮询

结局三选一：
  confirmed  已写入账本（打印签名与slot）
  rejected   网络确定性拒绝（附节点诊断日志）
  timed-out  轮询耗尽、结局未知（事后用 solflow tx get <签名> 追查）

示例：
  solflow transfer send --to <地址> --amount 1.5
  solflow transfer send --key-file k.json --to <地址> --amount 0.001`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if transferTo == "" || transferAmount == "" {
			return fmt.Errorf("必须指定 --to 和 --amount")
		}

		senderKey, err := readTransferKey()
		if err != nil {
			return err
		}

		client, profile, err := getClient()
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()

		service := transfer.NewService(
			client,
			transport.Commitment(profile.Commitment),
			time.Duration(profile.ConfirmBackoff),
			logger,
		)

		result, err := service.ExecuteTransfer(context.Background(), &transfer.Request{
			SenderKey: senderKey,
			To:        transferTo,
			Amount:    transferAmount,
		})
		if err != nil {
			return explainTransferError(err)
		}

		return printOutcome(result)
	},
}

// transferEstimateFeeCmd 估算转账费用
var transferEstimateFeeCmd = &cobra.Command{
	Use:   "estimate-fee",
	Short: "估算转账费用",
	Long:  "估算转账的打包费用（估算只对当前区块哈希有效，提交时会自动刷新）",
	RunE: func(cmd *cobra.Command, args []string) error {
		if transferTo == "" || transferAmount == "" {
			return fmt.Errorf("必须指定 --to 和 --amount")
		}

		senderKey, err := readTransferKey()
		if err != nil {
			return err
		}

		client, profile, err := getClient()
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()

		service := transfer.NewService(
			client,
			transport.Commitment(profile.Commitment),
			time.Duration(profile.ConfirmBackoff),
			logger,
		)

		est, err := service.EstimateFee(context.Background(), senderKey, transferTo, transferAmount)
		if err != nil {
			return explainTransferError(err)
		}

		return formatter.Print(map[string]interface{}{
			"fee_lamports": est.Fee.Lamports(),
			"fee_sol":      est.Fee.StringTrimmed(),
			"blockhash":    est.Blockhash,
		})
	},
}

// readTransferKey 读取发送方私钥
func readTransferKey() (string, error) {
	if transferKeyFile != "" {
		data, err := os.ReadFile(transferKeyFile)
		if err != nil {
			return "", fmt.Errorf("读取私钥文件: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	return promptSecret("请输入发送方私钥")
}

// printOutcome 打印转账结局
// 退出码约定：只有confirmed返回0
func printOutcome(result *transfer.Result) error {
	outcome := result.Outcome

	data := map[string]interface{}{
		"status":    outcome.Status.String(),
		"signature": outcome.Signature,
		"amount":    result.Amount.StringTrimmed(),
		"fee":       result.Fee.StringLamports(),
	}

	switch outcome.Status {
	case transfer.OutcomeConfirmed:
		data["slot"] = outcome.Slot
		formatter.Success("转账已确认，签名: %s", outcome.Signature)
		return formatter.Print(data)

	case transfer.OutcomeRejected:
		data["reason"] = outcome.Reason
		data["logs"] = outcome.Logs
		formatter.Error("转账被网络拒绝: %s", outcome.Reason)
		// 节点诊断日志逐行原样展示
		for _, line := range outcome.Logs {
			formatter.Info("  %s", line)
		}
		_ = formatter.Print(data)
		return fmt.Errorf("转账被拒绝")

	default: // OutcomeTimedOut
		formatter.Warn("确认超时，结局未知。请稍后执行: solflow tx get %s", outcome.Signature)
		_ = formatter.Print(data)
		return fmt.Errorf("确认超时")
	}
}

// explainTransferError 将错误翻译为用户指引
// 所有错误都在这里被"回收"：打印指引并让用户重试，绝不panic
func explainTransferError(err error) error {
	var insufficient *builder.InsufficientBalanceError
	if errors.As(err, &insufficient) {
		formatter.Error("余额不足：还差 %d lamports（余额 %d，需要 %d）",
			insufficient.Shortfall, insufficient.Balance, insufficient.Required)
		return err
	}

	if errors.Is(err, builder.ErrNonSignerAccount) {
		formatter.Error("发送方账户归属非系统程序，不能作为付费方。请换用普通账户")
		return err
	}

	if errors.Is(err, wallet.ErrInvalidKeyFormat) {
		formatter.Error("私钥格式无效：支持Base58或JSON整数数组，须解码为64字节")
		return err
	}

	if errors.Is(err, transport.ErrNetworkUnavailable) {
		formatter.Error("网络不可用（重试已耗尽）。请检查RPC端点或稍后再试")
		return err
	}

	return err
}

func init() {
	for _, cmd := range []*cobra.Command{transferSendCmd, transferEstimateFeeCmd} {
		cmd.Flags().StringVar(&transferKeyFile, "key-file", "", "发送方私钥文件路径")
		cmd.Flags().StringVar(&transferTo, "to", "", "接收方地址（Base58）")
		cmd.Flags().StringVar(&transferAmount, "amount", "", "转账金额（SOL单位，如 1.5）")
	}

	transferCmd.AddCommand(transferSendCmd)
	transferCmd.AddCommand(transferEstimateFeeCmd)
}
