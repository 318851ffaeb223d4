// Package config provides profile management functionality for client configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Profile CLI配置Profile
//
// 只保存网络参数，绝不保存任何密钥材料：
// 私钥只存在于进程内存，由用户每次输入
type Profile struct {
	Name string `json:"name"` // Profile名称: mainnet-beta/devnet/localnet

	// RPC端点(按优先级排序)
	Endpoints []EndpointConfig `json:"endpoints"`

	// 确认级别
	Commitment string `json:"commitment"`

	// 网络配置
	Timeout       Duration `json:"timeout"`        // 请求超时
	RetryAttempts int      `json:"retry_attempts"` // 重试次数
	RetryBackoff  Duration `json:"retry_backoff"`  // 退避时间

	// 确认轮询间隔
	ConfirmBackoff Duration `json:"confirm_backoff"`
}

// EndpointConfig 端点配置
type EndpointConfig struct {
	Name     string `json:"name"`     // 端点名称
	Priority int    `json:"priority"` // 优先级(数字越小越优先)
	JSONRPC  string `json:"jsonrpc"`  // JSON-RPC地址
}

// PrimaryEndpoint 返回优先级最高的端点
func (p *Profile) PrimaryEndpoint() (EndpointConfig, error) {
	if len(p.Endpoints) == 0 {
		return EndpointConfig{}, fmt.Errorf("profile %s has no endpoints", p.Name)
	}

	best := p.Endpoints[0]
	for _, ep := range p.Endpoints[1:] {
		if ep.Priority < best.Priority {
			best = ep
		}
	}

	return best, nil
}

// Duration 时间duration(支持JSON序列化)
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}

	*d = Duration(dur)
	return nil
}

// ProfileManager Profile管理器
type ProfileManager struct {
	configDir      string
	currentProfile string
	profiles       map[string]*Profile
}

// NewProfileManager 创建Profile管理器
func NewProfileManager(configDir string) (*ProfileManager, error) {
	if configDir == "" {
		// 默认配置目录: ~/.solflow
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		configDir = filepath.Join(homeDir, ".solflow")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	pm := &ProfileManager{
		configDir: configDir,
		profiles:  make(map[string]*Profile),
	}

	if err := pm.loadProfiles(); err != nil {
		return nil, err
	}

	if err := pm.loadCurrentProfile(); err != nil {
		pm.currentProfile = "devnet"
	}

	return pm, nil
}

// loadProfiles 加载所有profiles
func (pm *ProfileManager) loadProfiles() error {
	profilesDir := filepath.Join(pm.configDir, "profiles")

	// profiles目录不存在时写入内置默认profiles
	if _, err := os.Stat(profilesDir); os.IsNotExist(err) {
		if err := os.MkdirAll(profilesDir, 0700); err != nil {
			return fmt.Errorf("create profiles dir: %w", err)
		}

		if err := pm.createDefaultProfiles(); err != nil {
			return err
		}
	}

	entries, err := os.ReadDir(profilesDir)
	if err != nil {
		return fmt.Errorf("read profiles dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		profile, err := pm.loadProfile(filepath.Join(profilesDir, entry.Name()))
		if err != nil {
			// 单个profile损坏不阻塞其余profiles
			fmt.Fprintf(os.Stderr, "Warning: failed to load profile %s: %v\n", entry.Name(), err)
			continue
		}

		pm.profiles[profile.Name] = profile
	}

	return nil
}

// loadProfile 加载单个profile并填充默认值
func (pm *ProfileManager) loadProfile(filePath string) (*Profile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	var profile Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}

	applyDefaults(&profile)
	return &profile, nil
}

// applyDefaults 填充默认网络配置
func applyDefaults(p *Profile) {
	if p.Commitment == "" {
		p.Commitment = "confirmed"
	}
	if p.Timeout == 0 {
		p.Timeout = Duration(30 * time.Second)
	}
	if p.RetryAttempts == 0 {
		p.RetryAttempts = 3
	}
	if p.RetryBackoff == 0 {
		p.RetryBackoff = Duration(time.Second)
	}
	if p.ConfirmBackoff == 0 {
		p.ConfirmBackoff = Duration(2 * time.Second)
	}
}

// loadCurrentProfile 加载当前profile名称
func (pm *ProfileManager) loadCurrentProfile() error {
	data, err := os.ReadFile(filepath.Join(pm.configDir, "current"))
	if err != nil {
		return err
	}

	pm.currentProfile = strings.TrimSpace(string(data))
	return nil
}

// createDefaultProfiles 写入内置默认profiles
func (pm *ProfileManager) createDefaultProfiles() error {
	profiles := []*Profile{
		{
			Name: "mainnet-beta",
			Endpoints: []EndpointConfig{
				{Name: "mainnet", Priority: 1, JSONRPC: "https://api.mainnet-beta.solana.com"},
			},
			Commitment: "finalized",
		},
		{
			Name: "devnet",
			Endpoints: []EndpointConfig{
				{Name: "devnet", Priority: 1, JSONRPC: "https://api.devnet.solana.com"},
			},
			Commitment: "confirmed",
		},
		{
			Name: "localnet",
			Endpoints: []EndpointConfig{
				{Name: "localnet", Priority: 1, JSONRPC: "http://127.0.0.1:8899"},
			},
			Commitment: "processed",
		},
	}

	for _, p := range profiles {
		applyDefaults(p)
		if err := pm.SaveProfile(p); err != nil {
			return err
		}
	}

	return nil
}

// SaveProfile 保存profile到配置目录
func (pm *ProfileManager) SaveProfile(p *Profile) error {
	if p.Name == "" {
		return fmt.Errorf("profile name is empty")
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	path := filepath.Join(pm.configDir, "profiles", p.Name+".json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}

	pm.profiles[p.Name] = p
	return nil
}

// GetProfile 按名称获取profile
func (pm *ProfileManager) GetProfile(name string) (*Profile, error) {
	profile, ok := pm.profiles[name]
	if !ok {
		return nil, fmt.Errorf("profile not found: %s", name)
	}
	return profile, nil
}

// GetCurrentProfile 获取当前profile
func (pm *ProfileManager) GetCurrentProfile() (*Profile, error) {
	return pm.GetProfile(pm.currentProfile)
}

// SetCurrentProfile 切换当前profile
func (pm *ProfileManager) SetCurrentProfile(name string) error {
	if _, ok := pm.profiles[name]; !ok {
		return fmt.Errorf("profile not found: %s", name)
	}

	pm.currentProfile = name
	return os.WriteFile(filepath.Join(pm.configDir, "current"), []byte(name), 0600)
}

// ListProfiles 列出所有profile名称
func (pm *ProfileManager) ListProfiles() []string {
	names := make([]string, 0, len(pm.profiles))
	for name := range pm.profiles {
		names = append(names, name)
	}
	return names
}
