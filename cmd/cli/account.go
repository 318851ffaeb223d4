package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/solflow/v1/client/core/builder"
	"github.com/solflow/v1/client/core/wallet"
)

var (
	accountKeyFile   string
	accountShowKey   bool
	accountJSONArray bool
)

// accountCmd 账户相关命令
var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "账户管理",
	Long:  "导入、生成和查询账户",
}

// accountImportCmd 从私钥导入账户
var accountImportCmd = &cobra.Command{
	Use:   "import",
	Short: "从私钥导入账户",
	Long: `从用户提供的私钥导入账户。

支持两种编码（按顺序尝试，全部失败才报错）：
1. Base58字符串
2. JSON整数数组（keypair文件格式）

私钥只在进程内存中使用，不会写入任何文件。

示例：
  solflow account import                    # 隐藏输入私钥
  solflow account import --key-file k.json  # 从keypair文件读取`,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readKeyMaterial()
		if err != nil {
			return err
		}

		identity, err := wallet.ParseIdentity(raw)
		if err != nil {
			// 本地可恢复错误：提示后让用户换一份输入重试
			return fmt.Errorf("私钥格式无效（支持Base58或JSON整数数组，须解码为64字节）: %w", err)
		}

		client, _, err := getClient()
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()

		class, err := wallet.ClassifyAccount(context.Background(), client, identity.PublicKey())
		if err != nil {
			return fmt.Errorf("账户能力认证失败: %w", err)
		}

		result := map[string]interface{}{
			"address":    identity.Address(),
			"capability": class.String(),
		}

		if class != wallet.CapabilitySigner {
			formatter.Warn("该账户归属非系统程序，不能作为转账付费方")
		}

		formatter.Success("账户导入成功: %s", identity.Address())
		return formatter.Print(result)
	},
}

// accountNewCmd 生成一次性账户
var accountNewCmd = &cobra.Command{
	Use:   "new",
	Short: "生成新账户",
	Long: `生成全新的随机账户（测试/一次性用途）。

私钥使用密码学安全随机源生成，仅打印一次，本工具不做任何保存。

示例：
  solflow account new                # 打印地址，隐藏私钥
  solflow account new --show-key     # 同时打印Base58私钥
  solflow account new --show-key --json-array  # 打印keypair文件格式`,
	RunE: func(cmd *cobra.Command, args []string) error {
		identity, err := wallet.GenerateIdentity()
		if err != nil {
			return fmt.Errorf("生成账户: %w", err)
		}

		result := map[string]interface{}{
			"address": identity.Address(),
		}

		if accountShowKey {
			if accountJSONArray {
				result["private_key"] = identity.EncodeJSONArray()
			} else {
				result["private_key"] = identity.EncodeBase58()
			}
			formatter.Warn("私钥仅打印一次，请立即妥善保存")
		}

		formatter.Success("账户生成成功: %s", identity.Address())
		return formatter.Print(result)
	},
}

// accountBalanceCmd 查询余额
var accountBalanceCmd = &cobra.Command{
	Use:   "balance <address>",
	Short: "查询账户余额",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		address := args[0]
		if _, err := wallet.ParsePublicKey(address); err != nil {
			return fmt.Errorf("地址格式无效: %w", err)
		}

		client, _, err := getClient()
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()

		lamports, err := client.GetBalance(context.Background(), address)
		if err != nil {
			return fmt.Errorf("查询余额: %w", err)
		}

		amount := builder.NewAmountFromLamports(lamports)
		return formatter.Print(map[string]interface{}{
			"address":  address,
			"lamports": lamports,
			"sol":      amount.StringTrimmed(),
		})
	},
}

// readKeyMaterial 读取私钥输入
// 优先级：--key-file > 终端隐藏输入
func readKeyMaterial() (string, error) {
	if accountKeyFile != "" {
		data, err := os.ReadFile(accountKeyFile)
		if err != nil {
			return "", fmt.Errorf("读取私钥文件: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	return promptSecret("请输入私钥")
}

// promptSecret 终端隐藏输入
func promptSecret(prompt string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", prompt)
	data, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("读取输入: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func init() {
	accountImportCmd.Flags().StringVar(&accountKeyFile, "key-file", "", "私钥文件路径")

	accountNewCmd.Flags().BoolVar(&accountShowKey, "show-key", false, "打印私钥")
	accountNewCmd.Flags().BoolVar(&accountJSONArray, "json-array", false, "私钥使用JSON整数数组格式")

	accountCmd.AddCommand(accountImportCmd)
	accountCmd.AddCommand(accountNewCmd)
	accountCmd.AddCommand(accountBalanceCmd)
}
