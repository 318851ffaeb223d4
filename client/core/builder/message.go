package builder

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/solflow/v1/client/core/wallet"
)

// 网络规定的wire格式常量
const (
	// BlockhashSize 区块哈希字节长度
	BlockhashSize = 32

	// SignatureSize ed25519签名字节长度
	SignatureSize = 64

	// systemTransferIndex 系统程序transfer指令的编号（u32小端）
	systemTransferIndex = 2
)

// MessageHeader 消息头
// 三个计数字段决定账户表中各区段的读写/签名属性
type MessageHeader struct {
	NumRequiredSignatures       uint8 // 需要签名的账户数
	NumReadonlySignedAccounts   uint8 // 签名账户中的只读数
	NumReadonlyUnsignedAccounts uint8 // 非签名账户中的只读数
}

// Instruction 消息内指令
// 账户与程序均以账户表下标引用，不重复存放公钥
type Instruction struct {
	ProgramIDIndex uint8   // 程序在账户表中的下标
	Accounts       []uint8 // 参与账户的下标列表
	Data           []byte  // 指令数据
}

// Message 未签名消息（legacy格式）
//
// 序列化布局：
//
//	header(3字节) ||
//	compact-u16(账户数) || 账户公钥×32字节 ||
//	区块哈希(32字节) ||
//	compact-u16(指令数) || 指令...
//
// 与网络规范逐字节一致，签名覆盖整个序列化结果
type Message struct {
	Header          MessageHeader
	AccountKeys     []wallet.PublicKey
	RecentBlockhash [BlockhashSize]byte
	Instructions    []Instruction
}

// NewTransferMessage 构建原生转账消息
//
// 指令图只有一条系统程序transfer指令。账户表布局：
//
//	[0] 发送方（可写、签名、付费方）
//	[1] 接收方（可写）
//	[2] 系统程序（只读）
//
// 自转账时账户表去重为 [发送方, 系统程序]
func NewTransferMessage(from, to wallet.PublicKey, lamports uint64, blockhash string) (*Message, error) {
	if lamports == 0 {
		return nil, fmt.Errorf("%w: zero lamports", ErrInvalidAmount)
	}

	hashBytes, err := base58.Decode(blockhash)
	if err != nil {
		return nil, fmt.Errorf("decode blockhash: %w", err)
	}
	if len(hashBytes) != BlockhashSize {
		return nil, fmt.Errorf("blockhash must be %d bytes, got %d", BlockhashSize, len(hashBytes))
	}

	systemProgram, err := wallet.ParsePublicKey(wallet.SystemProgramAddress)
	if err != nil {
		return nil, fmt.Errorf("parse system program address: %w", err)
	}

	msg := &Message{
		Header: MessageHeader{
			NumRequiredSignatures:       1,
			NumReadonlySignedAccounts:   0,
			NumReadonlyUnsignedAccounts: 1, // 系统程序
		},
	}
	copy(msg.RecentBlockhash[:], hashBytes)

	instruction := Instruction{
		Data: encodeTransferData(lamports),
	}

	if from == to {
		// 自转账：账户表去重，发送方同时作为接收方出现在指令中
		msg.AccountKeys = []wallet.PublicKey{from, systemProgram}
		instruction.ProgramIDIndex = 1
		instruction.Accounts = []uint8{0, 0}
	} else {
		msg.AccountKeys = []wallet.PublicKey{from, to, systemProgram}
		instruction.ProgramIDIndex = 2
		instruction.Accounts = []uint8{0, 1}
	}

	msg.Instructions = []Instruction{instruction}
	return msg, nil
}

// encodeTransferData 编码transfer指令数据
// 布局：u32小端指令编号(2) || u64小端lamports
func encodeTransferData(lamports uint64) []byte {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:4], systemTransferIndex)
	binary.LittleEndian.PutUint64(data[4:12], lamports)
	return data
}

// Serialize 序列化消息（签名覆盖的就是这段字节）
func (m *Message) Serialize() []byte {
	buf := make([]byte, 0, 3+1+len(m.AccountKeys)*wallet.PublicKeySize+BlockhashSize+64)

	buf = append(buf, m.Header.NumRequiredSignatures, m.Header.NumReadonlySignedAccounts, m.Header.NumReadonlyUnsignedAccounts)

	buf = appendCompactU16(buf, uint16(len(m.AccountKeys)))
	for _, key := range m.AccountKeys {
		buf = append(buf, key[:]...)
	}

	buf = append(buf, m.RecentBlockhash[:]...)

	buf = appendCompactU16(buf, uint16(len(m.Instructions)))
	for _, ins := range m.Instructions {
		buf = append(buf, ins.ProgramIDIndex)
		buf = appendCompactU16(buf, uint16(len(ins.Accounts)))
		buf = append(buf, ins.Accounts...)
		buf = appendCompactU16(buf, uint16(len(ins.Data)))
		buf = append(buf, ins.Data...)
	}

	return buf
}

// Base64 返回Base64编码的序列化消息（费用估算接口的入参格式）
func (m *Message) Base64() string {
	return base64.StdEncoding.EncodeToString(m.Serialize())
}

// appendCompactU16 追加compact-u16编码（shortvec）
// 每字节低7位承载数值，最高位为续读标记，小端序，1~3字节
func appendCompactU16(buf []byte, v uint16) []byte {
	for {
		if v < 0x80 {
			return append(buf, byte(v))
		}
		buf = append(buf, byte(v&0x7f)|0x80)
		v >>= 7
	}
}

// SignedTransfer 已签名的转账交易
//
// 绑定了签名时刻的发送方、接收方、金额与新鲜度凭证；
// 序列化布局：compact-u16(签名数) || 签名×64字节 || 消息字节
type SignedTransfer struct {
	From      wallet.PublicKey
	To        wallet.PublicKey
	Amount    *Amount
	Blockhash string // 签名时使用的新鲜度凭证
	Signature string // Base58编码的交易签名（首个签名）

	raw []byte // 完整序列化交易
}

// signTransfer 对消息签名并组装完整交易
func signTransfer(identity *wallet.Identity, msg *Message, amount *Amount, blockhash string) *SignedTransfer {
	msgBytes := msg.Serialize()
	signature := identity.Sign(msgBytes)

	raw := make([]byte, 0, 1+SignatureSize+len(msgBytes))
	raw = appendCompactU16(raw, 1)
	raw = append(raw, signature...)
	raw = append(raw, msgBytes...)

	return &SignedTransfer{
		From:      msg.AccountKeys[0],
		To:        recipientOf(msg),
		Amount:    amount.Copy(),
		Blockhash: blockhash,
		Signature: base58.Encode(signature),
		raw:       raw,
	}
}

// recipientOf 从消息中取回接收方
func recipientOf(msg *Message) wallet.PublicKey {
	ins := msg.Instructions[0]
	return msg.AccountKeys[ins.Accounts[1]]
}

// Serialized 返回完整交易字节的副本
func (s *SignedTransfer) Serialized() []byte {
	out := make([]byte, len(s.raw))
	copy(out, s.raw)
	return out
}

// Base64 返回Base64编码的完整交易（提交接口的入参格式）
func (s *SignedTransfer) Base64() string {
	return base64.StdEncoding.EncodeToString(s.raw)
}
