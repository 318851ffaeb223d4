// Package wallet provides signing identity management for client operations.
package wallet

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

const (
	// PrivateKeySize 私钥字节长度（32字节种子 + 32字节公钥）
	PrivateKeySize = 64

	// PublicKeySize 公钥字节长度
	PublicKeySize = 32
)

// ErrInvalidKeyFormat 私钥格式无效
// 本地可恢复错误：调用方提示用户重新输入即可，不应终止进程
var ErrInvalidKeyFormat = errors.New("invalid key format")

// PublicKey 账户公钥
type PublicKey [PublicKeySize]byte

// ParsePublicKey 从Base58字符串解析公钥
func ParsePublicKey(s string) (PublicKey, error) {
	var pk PublicKey

	decoded, err := base58.Decode(strings.TrimSpace(s))
	if err != nil {
		return pk, fmt.Errorf("%w: %s", ErrInvalidKeyFormat, err)
	}

	if len(decoded) != PublicKeySize {
		return pk, fmt.Errorf("%w: public key must be %d bytes, got %d", ErrInvalidKeyFormat, PublicKeySize, len(decoded))
	}

	copy(pk[:], decoded)
	return pk, nil
}

// String 返回Base58编码
func (pk PublicKey) String() string {
	return base58.Encode(pk[:])
}

// Bytes 返回字节副本
func (pk PublicKey) Bytes() []byte {
	out := make([]byte, PublicKeySize)
	copy(out, pk[:])
	return out
}

// Identity 签名身份
//
// 包装一把ed25519私钥及其派生公钥。公钥只能由私钥派生得到，
// 不可独立设置。身份只存在于进程内存中，本核心不做任何持久化
type Identity struct {
	priv ed25519.PrivateKey
	pub  PublicKey
}

// keyDecoder 私钥解码策略
// 每个策略都是无副作用的纯函数：解码成功返回原始字节，失败返回错误
type keyDecoder func(raw string) ([]byte, error)

// keyDecoders 按顺序尝试的解码策略表
// 先Base58、后JSON整数数组是实现选择而非优先级承诺：
// 全部策略尝试失败后才报 ErrInvalidKeyFormat
var keyDecoders = []keyDecoder{
	decodeBase58Key,
	decodeJSONArrayKey,
}

// decodeBase58Key 解码Base58编码的私钥
func decodeBase58Key(raw string) ([]byte, error) {
	return base58.Decode(strings.TrimSpace(raw))
}

// decodeJSONArrayKey 解码JSON整数数组编码的私钥（keypair文件格式）
func decodeJSONArrayKey(raw string) ([]byte, error) {
	var values []int
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, err
	}

	buf := make([]byte, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("element %d out of byte range: %d", i, v)
		}
		buf[i] = byte(v)
	}

	return buf, nil
}

// ParseIdentity 从用户输入解析签名身份
//
// 支持两种编码：Base58字符串、JSON整数数组。
// 解码结果必须恰好是64字节，且后32字节（公钥）必须与前32字节（种子）
// 派生出的公钥一致，否则视为格式无效
func ParseIdentity(raw string) (*Identity, error) {
	for _, decode := range keyDecoders {
		keyBytes, err := decode(raw)
		if err != nil {
			continue
		}

		if len(keyBytes) != PrivateKeySize {
			continue
		}

		identity, err := newIdentity(keyBytes)
		if err != nil {
			continue
		}

		return identity, nil
	}

	return nil, ErrInvalidKeyFormat
}

// GenerateIdentity 生成全新的随机身份（测试/一次性账户用）
// 随机源为 crypto/rand
func GenerateIdentity() (*Identity, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	return newIdentity(priv)
}

// newIdentity 从64字节原始私钥构造身份
func newIdentity(keyBytes []byte) (*Identity, error) {
	if len(keyBytes) != PrivateKeySize {
		return nil, fmt.Errorf("%w: private key must be %d bytes, got %d", ErrInvalidKeyFormat, PrivateKeySize, len(keyBytes))
	}

	// 校验公钥半区与种子半区的一致性，拒绝拼接错误或被篡改的密钥
	derived := ed25519.NewKeyFromSeed(keyBytes[:ed25519.SeedSize])
	if !bytes.Equal(derived[ed25519.SeedSize:], keyBytes[ed25519.SeedSize:]) {
		return nil, fmt.Errorf("%w: embedded public key does not match seed", ErrInvalidKeyFormat)
	}

	identity := &Identity{
		priv: make(ed25519.PrivateKey, PrivateKeySize),
	}
	copy(identity.priv, keyBytes)
	copy(identity.pub[:], keyBytes[ed25519.SeedSize:])

	return identity, nil
}

// PublicKey 返回派生公钥
func (id *Identity) PublicKey() PublicKey {
	return id.pub
}

// Address 返回Base58编码的账户地址（即公钥）
func (id *Identity) Address() string {
	return id.pub.String()
}

// Sign 对消息做ed25519签名
func (id *Identity) Sign(message []byte) []byte {
	return ed25519.Sign(id.priv, message)
}

// EncodeBase58 导出Base58编码的完整私钥
func (id *Identity) EncodeBase58() string {
	return base58.Encode(id.priv)
}

// EncodeJSONArray 导出JSON整数数组编码的完整私钥（keypair文件格式）
func (id *Identity) EncodeJSONArray() string {
	values := make([]int, len(id.priv))
	for i, b := range id.priv {
		values[i] = int(b)
	}

	data, _ := json.Marshal(values)
	return string(data)
}
