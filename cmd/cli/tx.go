package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// txCmd 交易查询命令
var txCmd = &cobra.Command{
	Use:   "tx",
	Short: "交易查询",
	Long:  "按签名查询交易详情",
}

// txGetCmd 查询交易详情
var txGetCmd = &cobra.Command{
	Use:   "get <signature>",
	Short: "查询交易详情",
	Long: `按签名查询交易详情。

纯读操作，可在任意时刻调用；同一已确认签名的两次查询结果一致。
主要用于事后追查确认超时（timed-out）的转账。`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		signature := args[0]

		client, _, err := getClient()
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()

		record, err := client.GetTransaction(context.Background(), signature)
		if err != nil {
			return fmt.Errorf("查询交易: %w", err)
		}

		if record == nil {
			formatter.Warn("交易不存在（可能从未落地，或尚未达到查询的确认级别）")
			return formatter.Print(map[string]interface{}{
				"signature": signature,
				"found":     false,
			})
		}

		data := map[string]interface{}{
			"signature": record.Signature,
			"found":     true,
			"slot":      record.Slot,
			"success":   record.Success,
			"fee":       record.Fee,
		}
		if !record.BlockTime.IsZero() {
			data["block_time"] = record.BlockTime
		}
		if record.Err != "" {
			data["error"] = record.Err
		}
		if len(record.Logs) > 0 {
			data["logs"] = record.Logs
		}

		return formatter.Print(data)
	},
}

func init() {
	txCmd.AddCommand(txGetCmd)
}
