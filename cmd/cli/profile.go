package main

import (
	"github.com/spf13/cobra"
)

// profileCmd Profile管理命令
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Profile管理",
	Long:  "查看和切换网络Profile（mainnet-beta/devnet/localnet）",
}

// profileListCmd 列出所有Profile
var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出所有Profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		current, _ := profileMgr.GetCurrentProfile()

		names := profileMgr.ListProfiles()
		profiles := make([]map[string]interface{}, 0, len(names))
		for _, name := range names {
			p, err := profileMgr.GetProfile(name)
			if err != nil {
				continue
			}

			endpoint, _ := p.PrimaryEndpoint()
			profiles = append(profiles, map[string]interface{}{
				"name":       p.Name,
				"endpoint":   endpoint.JSONRPC,
				"commitment": p.Commitment,
				"current":    current != nil && current.Name == p.Name,
			})
		}

		return formatter.Print(profiles)
	},
}

// profileUseCmd 切换当前Profile
var profileUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "切换当前Profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := profileMgr.SetCurrentProfile(args[0]); err != nil {
			return err
		}

		formatter.Success("已切换到Profile: %s", args[0])
		return nil
	},
}

func init() {
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileUseCmd)
}
