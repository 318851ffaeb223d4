package wallet

import (
	"context"
	"fmt"

	"github.com/solflow/v1/client/core/transport"
)

// SystemProgramAddress 系统程序地址
// 原生转账账户必须归属于系统程序，否则无权作为付费方签名
const SystemProgramAddress = "11111111111111111111111111111111"

// CapabilityClass 账户能力分类
//
// 双态标签而非bool：调用方必须显式处理两种情况
type CapabilityClass int

const (
	// CapabilitySigner 可签名账户（归属系统程序，可作为转账付费方）
	CapabilitySigner CapabilityClass = iota

	// CapabilityNonSigner 非签名账户（归属其他程序，例如代币账户或程序派生地址）
	CapabilityNonSigner
)

// String 返回分类的可读名称
func (c CapabilityClass) String() string {
	switch c {
	case CapabilitySigner:
		return "signer"
	case CapabilityNonSigner:
		return "non-signer"
	default:
		return fmt.Sprintf("unknown(%d)", int(c))
	}
}

// ClassifyAccount 查询并认证账户的能力分类
//
// 单次只读网络查询。账户不在链上时视为可签名（首笔入账时由系统程序创建）。
// 注意这是乐观假设：一个尚未创建的地址将来可能被分配给任意程序，
// 这里选择放行，不在本层收紧
func ClassifyAccount(ctx context.Context, client transport.Client, pub PublicKey) (CapabilityClass, error) {
	info, err := client.GetAccountInfo(ctx, pub.String())
	if err != nil {
		return CapabilityNonSigner, fmt.Errorf("get account info: %w", err)
	}

	if info == nil {
		return CapabilitySigner, nil
	}

	if info.Owner != SystemProgramAddress {
		return CapabilityNonSigner, nil
	}

	return CapabilitySigner, nil
}
