package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProfileManager_CreatesDefaults(t *testing.T) {
	dir := t.TempDir()

	pm, err := NewProfileManager(dir)
	require.NoError(t, err)

	// 首次启动写入三个内置profiles
	names := pm.ListProfiles()
	assert.Len(t, names, 3)
	assert.Contains(t, names, "mainnet-beta")
	assert.Contains(t, names, "devnet")
	assert.Contains(t, names, "localnet")

	// 未切换过时默认devnet
	current, err := pm.GetCurrentProfile()
	require.NoError(t, err)
	assert.Equal(t, "devnet", current.Name)
	assert.Equal(t, "confirmed", current.Commitment)
}

func TestProfileManager_SaveAndReload(t *testing.T) {
	dir := t.TempDir()

	pm, err := NewProfileManager(dir)
	require.NoError(t, err)

	custom := &Profile{
		Name: "testnet",
		Endpoints: []EndpointConfig{
			{Name: "backup", Priority: 2, JSONRPC: "https://backup.example.com"},
			{Name: "primary", Priority: 1, JSONRPC: "https://primary.example.com"},
		},
		Commitment:     "finalized",
		Timeout:        Duration(10 * time.Second),
		RetryAttempts:  5,
		RetryBackoff:   Duration(500 * time.Millisecond),
		ConfirmBackoff: Duration(time.Second),
	}
	require.NoError(t, pm.SaveProfile(custom))

	// 重新构建管理器，从磁盘读回
	pm2, err := NewProfileManager(dir)
	require.NoError(t, err)

	loaded, err := pm2.GetProfile("testnet")
	require.NoError(t, err)
	assert.Equal(t, custom.Commitment, loaded.Commitment)
	assert.Equal(t, custom.RetryAttempts, loaded.RetryAttempts)
	assert.Equal(t, custom.Timeout, loaded.Timeout)

	// 优先级最小者胜出
	primary, err := loaded.PrimaryEndpoint()
	require.NoError(t, err)
	assert.Equal(t, "primary", primary.Name)
}

func TestProfileManager_SetCurrentProfile(t *testing.T) {
	dir := t.TempDir()

	pm, err := NewProfileManager(dir)
	require.NoError(t, err)

	require.NoError(t, pm.SetCurrentProfile("localnet"))

	// 切换结果落盘，新实例可见
	pm2, err := NewProfileManager(dir)
	require.NoError(t, err)

	current, err := pm2.GetCurrentProfile()
	require.NoError(t, err)
	assert.Equal(t, "localnet", current.Name)

	// 不存在的profile不可切换
	assert.Error(t, pm.SetCurrentProfile("no-such-profile"))
}

func TestProfileManager_AppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	profilesDir := filepath.Join(dir, "profiles")
	require.NoError(t, os.MkdirAll(profilesDir, 0700))

	// 最小profile：缺省字段由加载时填充
	minimal := []byte(`{"name":"sparse","endpoints":[{"name":"only","priority":1,"jsonrpc":"http://127.0.0.1:8899"}]}`)
	require.NoError(t, os.WriteFile(filepath.Join(profilesDir, "sparse.json"), minimal, 0600))

	pm, err := NewProfileManager(dir)
	require.NoError(t, err)

	p, err := pm.GetProfile("sparse")
	require.NoError(t, err)
	assert.Equal(t, "confirmed", p.Commitment)
	assert.Equal(t, 3, p.RetryAttempts)
	assert.Equal(t, Duration(30*time.Second), p.Timeout)
	assert.Equal(t, Duration(2*time.Second), p.ConfirmBackoff)
}

func TestProfileManager_CorruptProfileSkipped(t *testing.T) {
	dir := t.TempDir()

	pm, err := NewProfileManager(dir)
	require.NoError(t, err)

	// 写入一个损坏的profile文件，不应阻塞其余profiles
	profilesDir := filepath.Join(dir, "profiles")
	require.NoError(t, os.WriteFile(filepath.Join(profilesDir, "broken.json"), []byte("{not json"), 0600))

	pm2, err := NewProfileManager(dir)
	require.NoError(t, err)
	assert.Len(t, pm2.ListProfiles(), len(pm.ListProfiles()))
}

func TestProfile_NeverStoresKeyMaterial(t *testing.T) {
	// 序列化后的profile只含网络参数
	p := &Profile{
		Name: "devnet",
		Endpoints: []EndpointConfig{
			{Name: "devnet", Priority: 1, JSONRPC: "https://api.devnet.solana.com"},
		},
	}
	applyDefaults(p)

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.NotContains(t, fields, "private_key")
	assert.NotContains(t, fields, "key")
	assert.NotContains(t, fields, "seed")
}

func TestDuration_JSONRoundTrip(t *testing.T) {
	original := Duration(90 * time.Second)

	data, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(data))

	var decoded Duration
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)
}
