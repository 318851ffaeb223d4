package builder

import (
	"errors"
	"math/big"
	"testing"
)

func TestNewAmountFromString(t *testing.T) {
	tests := []struct {
		name    string
		str     string
		want    uint64
		wantErr bool
	}{
		{"100 lamports", "100", 100, false},
		{"1.5 SOL", "1.5", 1_500_000_000, false},
		{"1 lamport as SOL", "0.000000001", 1, false},
		{"Whole SOL", "2.000000000", 2_000_000_000, false},
		{"Trailing dot digits", "0.5", 500_000_000, false},
		{"Empty", "", 0, true},
		{"Invalid", "abc", 0, true},
		{"Negative", "-1", 0, true},
		{"TooManyDecimals", "0.0000000001", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewAmountFromString(tt.str)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewAmountFromString() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && got.Lamports() != tt.want {
				t.Errorf("NewAmountFromString() = %v, want %v", got.Lamports(), tt.want)
			}
		})
	}
}

func TestAmount_ExactArithmetic(t *testing.T) {
	// 余额/费用核算必须在lamport整数域精确进行
	balance := NewAmountFromLamports(1_000_000_000)
	amount := NewAmountFromLamports(500_000_000)
	fee := NewAmountFromLamports(5_000)

	required := amount.Add(fee)
	if required.Lamports() != 500_005_000 {
		t.Fatalf("required = %v, want 500005000", required.Lamports())
	}

	if balance.LessThan(required) {
		t.Errorf("balance %v should cover required %v", balance.Lamports(), required.Lamports())
	}

	// 余额不足时差额精确
	shortBalance := NewAmountFromLamports(400_000_000)
	if !shortBalance.LessThan(required) {
		t.Fatalf("balance %v should not cover required %v", shortBalance.Lamports(), required.Lamports())
	}

	shortfall, err := required.Sub(shortBalance)
	if err != nil {
		t.Fatalf("Sub() error = %v", err)
	}
	if shortfall.Lamports() != 100_005_000 {
		t.Errorf("shortfall = %v, want 100005000", shortfall.Lamports())
	}
}

func TestAmount_Sub_Insufficient(t *testing.T) {
	a := NewAmountFromLamports(50)
	b := NewAmountFromLamports(100)

	if _, err := a.Sub(b); !errors.Is(err, ErrInsufficientAmount) {
		t.Errorf("Sub() error = %v, want ErrInsufficientAmount", err)
	}
}

func TestAmount_String(t *testing.T) {
	tests := []struct {
		name     string
		lamports uint64
		want     string
	}{
		{"1 SOL", 1_000_000_000, "1.000000000"},
		{"1.5 SOL", 1_500_000_000, "1.500000000"},
		{"1 lamport", 1, "0.000000001"},
		{"Zero", 0, "0.000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amt := NewAmountFromLamports(tt.lamports)
			if got := amt.String(); got != tt.want {
				t.Errorf("String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAmount_StringTrimmed(t *testing.T) {
	if got := NewAmountFromLamports(1_500_000_000).StringTrimmed(); got != "1.5" {
		t.Errorf("StringTrimmed() = %v, want 1.5", got)
	}
	if got := NewAmountFromLamports(1_000_000_000).StringTrimmed(); got != "1" {
		t.Errorf("StringTrimmed() = %v, want 1", got)
	}
}

func TestAmount_StringRoundTrip(t *testing.T) {
	// SOL字符串表示经解析往返精确一致
	original := NewAmountFromLamports(123_456_789_012)

	parsed, err := NewAmountFromString(original.String())
	if err != nil {
		t.Fatalf("NewAmountFromString() error = %v", err)
	}

	if !parsed.Equal(original) {
		t.Errorf("round-trip = %v, want %v", parsed.StringLamports(), original.StringLamports())
	}
}

func TestAmount_LargeNumbers(t *testing.T) {
	large := new(big.Int)
	large.SetString("999999999999999999999999", 10) // 远超uint64

	amt, err := NewAmountFromBigInt(large)
	if err != nil {
		t.Fatalf("NewAmountFromBigInt() error = %v", err)
	}

	doubled := amt.Add(amt)
	want := new(big.Int).Mul(large, big.NewInt(2))
	if doubled.BigInt().Cmp(want) != 0 {
		t.Errorf("Add() failed for large numbers")
	}
}

func TestSumAmounts(t *testing.T) {
	total := SumAmounts(
		NewAmountFromLamports(100),
		NewAmountFromLamports(200),
		nil,
		NewAmountFromLamports(300),
	)

	if total.Lamports() != 600 {
		t.Errorf("SumAmounts() = %v, want 600", total.Lamports())
	}
}
