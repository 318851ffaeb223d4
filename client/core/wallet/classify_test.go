package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/solflow/v1/client/core/transport"
)

// fakeQueryClient 只实现分类所需查询的假客户端
type fakeQueryClient struct {
	transport.Client // 其余方法未用到，调用即panic

	accountInfo *transport.AccountInfo
	err         error
}

func (f *fakeQueryClient) GetAccountInfo(ctx context.Context, address string) (*transport.AccountInfo, error) {
	return f.accountInfo, f.err
}

func TestClassifyAccount(t *testing.T) {
	tests := []struct {
		name string
		info *transport.AccountInfo
		want CapabilityClass
	}{
		// 从未上链的账户视为可签名（首笔入账时创建），
		// 这是乐观假设，见实现注释
		{"AbsentAccount", nil, CapabilitySigner},
		{"SystemOwned", &transport.AccountInfo{Owner: SystemProgramAddress, Lamports: 100}, CapabilitySigner},
		{"TokenAccount", &transport.AccountInfo{Owner: "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"}, CapabilityNonSigner},
		{"ExecutableProgram", &transport.AccountInfo{Owner: "BPFLoaderUpgradeab1e11111111111111111111111", Executable: true}, CapabilityNonSigner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := GenerateIdentity()
			if err != nil {
				t.Fatalf("GenerateIdentity() error = %v", err)
			}

			client := &fakeQueryClient{accountInfo: tt.info}
			got, err := ClassifyAccount(context.Background(), client, identity.PublicKey())
			if err != nil {
				t.Fatalf("ClassifyAccount() error = %v", err)
			}

			if got != tt.want {
				t.Errorf("ClassifyAccount() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyAccount_QueryError(t *testing.T) {
	identity, err := GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity() error = %v", err)
	}

	queryErr := errors.New("connection refused")
	client := &fakeQueryClient{err: queryErr}

	if _, err := ClassifyAccount(context.Background(), client, identity.PublicKey()); !errors.Is(err, queryErr) {
		t.Errorf("ClassifyAccount() error = %v, want wrapped %v", err, queryErr)
	}
}
