package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/solflow/v1/client/core/config"
	"github.com/solflow/v1/client/core/output"
	"github.com/solflow/v1/client/core/transport"
)

// GlobalFlags 全局标志
type GlobalFlags struct {
	Profile      string // Profile名称
	ConfigDir    string // 配置目录
	OutputFormat string // 输出格式
	Silent       bool   // 静默模式
	Verbose      bool   // 详细模式
}

var (
	globalFlags GlobalFlags
	profileMgr  *config.ProfileManager
	formatter   *output.Formatter
	logger      zerolog.Logger
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "solflow",
	Short: "Solana轻量命令行客户端",
	Long: `solflow - Solana账户与转账命令行工具

独立实现密钥解析、交易构建、费用估算与提交确认，
不依赖任何链上SDK，与网络的规范wire格式逐字节兼容。

核心能力:
- 从私钥导入账户（Base58 / JSON整数数组两种编码）
- 查询账户余额与能力分类
- 构建、签名并提交原生转账，轮询到确定结局
- 凭签名事后追查交易详情`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		profileMgr, err = config.NewProfileManager(globalFlags.ConfigDir)
		if err != nil {
			return fmt.Errorf("初始化配置: %w", err)
		}

		formatter = output.NewFormatter(output.Format(globalFlags.OutputFormat), os.Stdout)
		formatter.SetSilent(globalFlags.Silent)

		level := zerolog.WarnLevel
		if globalFlags.Verbose {
			level = zerolog.DebugLevel
		}
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
			Level(level).
			With().Timestamp().Logger()

		return nil
	},
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalFlags.Profile, "profile", "", "使用指定的Profile (默认使用当前Profile)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.ConfigDir, "config-dir", "", "配置目录 (默认: ~/.solflow)")
	rootCmd.PersistentFlags().StringVarP(&globalFlags.OutputFormat, "output", "o", "pretty", "输出格式: json|pretty|text")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.Silent, "silent", false, "静默模式 (仅输出结果)")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "详细输出")

	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(transferCmd)
	rootCmd.AddCommand(txCmd)
	rootCmd.AddCommand(profileCmd)
}

// currentProfile 获取生效的profile
func currentProfile() (*config.Profile, error) {
	if globalFlags.Profile != "" {
		return profileMgr.GetProfile(globalFlags.Profile)
	}
	return profileMgr.GetCurrentProfile()
}

// getClient 获取传输客户端
// 重试策略由传输层自持（profile配置），业务层不再重复实现
func getClient() (transport.Client, *config.Profile, error) {
	profile, err := currentProfile()
	if err != nil {
		return nil, nil, fmt.Errorf("获取Profile: %w", err)
	}

	endpoint, err := profile.PrimaryEndpoint()
	if err != nil {
		return nil, nil, err
	}

	rpc := transport.NewJSONRPCClient(endpoint.JSONRPC, time.Duration(profile.Timeout), logger)
	client := transport.NewRetryClient(rpc, transport.RetryConfig{
		Attempts: profile.RetryAttempts,
		Backoff:  time.Duration(profile.RetryBackoff),
	}, logger)

	return client, profile, nil
}
