// Package builder provides transfer construction functionality for client operations.
package builder

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Amount 表示SOL金额（使用最小单位lamport）
//
// 金额系统：
//   - 1 SOL = 10^9 lamports
//   - 使用 *big.Int 确保精确计算，避免浮点数精度问题
//   - 余额/费用/比较等全部算术都在lamport整数域进行，
//     SOL单位只出现在与用户交互的输入输出边界
type Amount struct {
	value *big.Int // lamports
}

const (
	// DecimalPlaces SOL的小数位数
	DecimalPlaces = 9

	// LamportsPerSOL 1 SOL对应的lamport数量
	LamportsPerSOL = 1_000_000_000 // 10^9
)

var (
	// ErrInvalidAmount 无效的金额
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrNegativeAmount 负数金额
	ErrNegativeAmount = errors.New("negative amount")

	// ErrInsufficientAmount 金额不足
	ErrInsufficientAmount = errors.New("insufficient amount")

	// lamportsPerSOL 预计算的big.Int
	lamportsPerSOL = big.NewInt(LamportsPerSOL)
)

// NewAmountFromString 从字符串创建Amount
//
// 支持格式：
//   - "100" → 100 lamports
//   - "1.5" → 1500000000 lamports（作为SOL解析）
//   - "0.000000001" → 1 lamport
//
// 带小数点的输入按十进制定点数逐位换算，不经过float64，
// 保证任意合法输入都精确
func NewAmountFromString(s string) (*Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty string", ErrInvalidAmount)
	}

	if strings.HasPrefix(s, "-") {
		return nil, ErrNegativeAmount
	}

	// 带小数点：作为SOL单位解析
	if strings.Contains(s, ".") {
		return parseSOL(s)
	}

	// 纯整数：作为lamport解析
	value, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, s)
	}

	return &Amount{value: value}, nil
}

// parseSOL 解析十进制SOL字符串为lamports
func parseSOL(s string) (*Amount, error) {
	parts := strings.SplitN(s, ".", 2)
	whole, frac := parts[0], parts[1]

	if whole == "" {
		whole = "0"
	}

	if len(frac) > DecimalPlaces {
		return nil, fmt.Errorf("%w: more than %d decimal places: %s", ErrInvalidAmount, DecimalPlaces, s)
	}

	// 小数部分右侧补零到9位后拼接
	frac = frac + strings.Repeat("0", DecimalPlaces-len(frac))

	wholeValue, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, s)
	}

	fracValue := big.NewInt(0)
	if frac != "" {
		if _, err := strconv.ParseUint(frac, 10, 64); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, s)
		}
		fracValue, _ = new(big.Int).SetString(frac, 10)
	}

	value := new(big.Int).Mul(wholeValue, lamportsPerSOL)
	value.Add(value, fracValue)

	return &Amount{value: value}, nil
}

// NewAmountFromLamports 从lamport数量创建Amount
func NewAmountFromLamports(lamports uint64) *Amount {
	return &Amount{value: new(big.Int).SetUint64(lamports)}
}

// NewAmountFromBigInt 从big.Int创建Amount
func NewAmountFromBigInt(value *big.Int) (*Amount, error) {
	if value == nil {
		return nil, fmt.Errorf("%w: nil value", ErrInvalidAmount)
	}

	if value.Sign() < 0 {
		return nil, ErrNegativeAmount
	}

	// 复制value，避免外部修改
	return &Amount{value: new(big.Int).Set(value)}, nil
}

// Zero 返回零金额
func Zero() *Amount {
	return &Amount{value: big.NewInt(0)}
}

// Add 加法：a + b
func (a *Amount) Add(b *Amount) *Amount {
	if a == nil || b == nil {
		return Zero()
	}

	return &Amount{value: new(big.Int).Add(a.value, b.value)}
}

// Sub 减法：a - b
// 如果结果为负数，返回错误
func (a *Amount) Sub(b *Amount) (*Amount, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("%w: nil amount", ErrInvalidAmount)
	}

	result := new(big.Int).Sub(a.value, b.value)

	if result.Sign() < 0 {
		return nil, ErrInsufficientAmount
	}

	return &Amount{value: result}, nil
}

// Cmp 比较两个金额
// 返回值：
//
//	-1: a < b
//	 0: a == b
//	 1: a > b
func (a *Amount) Cmp(b *Amount) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}

	return a.value.Cmp(b.value)
}

// IsZero 判断金额是否为零
func (a *Amount) IsZero() bool {
	return a == nil || a.value.Sign() == 0
}

// IsPositive 判断金额是否为正
func (a *Amount) IsPositive() bool {
	return a != nil && a.value.Sign() > 0
}

// LessThan 判断 a < b
func (a *Amount) LessThan(b *Amount) bool {
	return a.Cmp(b) < 0
}

// GreaterThan 判断 a > b
func (a *Amount) GreaterThan(b *Amount) bool {
	return a.Cmp(b) > 0
}

// Equal 判断 a == b
func (a *Amount) Equal(b *Amount) bool {
	return a.Cmp(b) == 0
}

// Lamports 返回lamport数量
func (a *Amount) Lamports() uint64 {
	if a == nil || !a.value.IsUint64() {
		return 0
	}
	return a.value.Uint64()
}

// BigInt 返回big.Int副本
func (a *Amount) BigInt() *big.Int {
	if a == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(a.value)
}

// String 转换为SOL单位字符串（保留9位小数）
//
// 示例：
//
//	1500000000 → "1.500000000"
//	1 → "0.000000001"
func (a *Amount) String() string {
	if a == nil {
		return "0.000000000"
	}

	quo, rem := new(big.Int).QuoRem(a.value, lamportsPerSOL, new(big.Int))
	return fmt.Sprintf("%s.%09s", quo.String(), rem.String())
}

// StringTrimmed 转换为SOL单位字符串（移除末尾的0）
//
// 示例：
//
//	1500000000 → "1.5"
//	1000000000 → "1"
func (a *Amount) StringTrimmed() string {
	str := a.String()
	str = strings.TrimRight(str, "0")
	str = strings.TrimRight(str, ".")
	return str
}

// StringLamports 转换为lamport字符串
func (a *Amount) StringLamports() string {
	if a == nil {
		return "0"
	}
	return a.value.String()
}

// Copy 创建副本
func (a *Amount) Copy() *Amount {
	if a == nil {
		return Zero()
	}
	return &Amount{value: new(big.Int).Set(a.value)}
}

// SumAmounts 计算多个金额的总和
func SumAmounts(amounts ...*Amount) *Amount {
	total := Zero()
	for _, amt := range amounts {
		if amt != nil {
			total = total.Add(amt)
		}
	}
	return total
}
