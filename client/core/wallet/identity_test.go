package wallet

import (
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mr-tron/base58"
)

// testKeyBytes 构造一份合法的64字节私钥
func testKeyBytes(t *testing.T, seedByte byte) []byte {
	t.Helper()

	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = seedByte
	}

	return ed25519.NewKeyFromSeed(seed)
}

func TestParseIdentity_Base58RoundTrip(t *testing.T) {
	keyBytes := testKeyBytes(t, 7)
	encoded := base58.Encode(keyBytes)

	identity, err := ParseIdentity(encoded)
	if err != nil {
		t.Fatalf("ParseIdentity() error = %v", err)
	}

	// 派生公钥经同一编码往返一致
	if got := identity.EncodeBase58(); got != encoded {
		t.Errorf("EncodeBase58() = %v, want %v", got, encoded)
	}

	wantAddr := base58.Encode(keyBytes[ed25519.SeedSize:])
	if identity.Address() != wantAddr {
		t.Errorf("Address() = %v, want %v", identity.Address(), wantAddr)
	}
}

func TestParseIdentity_JSONArrayRoundTrip(t *testing.T) {
	keyBytes := testKeyBytes(t, 42)

	values := make([]int, len(keyBytes))
	for i, b := range keyBytes {
		values[i] = int(b)
	}
	encoded, _ := json.Marshal(values)

	identity, err := ParseIdentity(string(encoded))
	if err != nil {
		t.Fatalf("ParseIdentity() error = %v", err)
	}

	if got := identity.EncodeJSONArray(); got != string(encoded) {
		t.Errorf("EncodeJSONArray() = %v, want %v", got, string(encoded))
	}
}

func TestParseIdentity_Malformed(t *testing.T) {
	// 公钥半区被篡改的密钥
	corrupted := testKeyBytes(t, 9)
	corrupted[40] ^= 0x01

	// 长度错误的JSON数组
	shortArray, _ := json.Marshal(make([]int, 63))

	tests := []struct {
		name string
		raw  string
	}{
		{"Empty", ""},
		{"NotDecodable", "this is not a key!"},
		{"Base58WrongLength", base58.Encode(make([]byte, 32))},
		{"Base58CorruptedPublicHalf", base58.Encode(corrupted)},
		{"JSONArrayWrongLength", string(shortArray)},
		{"JSONArrayOutOfRange", `[300,1,2]`},
		{"JSONNotArray", `{"key": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := ParseIdentity(tt.raw)
			if !errors.Is(err, ErrInvalidKeyFormat) {
				t.Errorf("ParseIdentity() error = %v, want ErrInvalidKeyFormat", err)
			}
			if identity != nil {
				t.Errorf("ParseIdentity() = %v, want nil", identity)
			}
		})
	}
}

func TestGenerateIdentity(t *testing.T) {
	a, err := GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity() error = %v", err)
	}

	b, err := GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity() error = %v", err)
	}

	if a.Address() == b.Address() {
		t.Errorf("two generated identities share the same address")
	}

	// 生成的身份可经Base58编码往返
	parsed, err := ParseIdentity(a.EncodeBase58())
	if err != nil {
		t.Fatalf("ParseIdentity(generated) error = %v", err)
	}
	if parsed.Address() != a.Address() {
		t.Errorf("round-trip address = %v, want %v", parsed.Address(), a.Address())
	}
}

func TestIdentity_Sign(t *testing.T) {
	identity, err := GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity() error = %v", err)
	}

	message := []byte("solflow test message")
	signature := identity.Sign(message)

	if len(signature) != ed25519.SignatureSize {
		t.Fatalf("signature length = %d, want %d", len(signature), ed25519.SignatureSize)
	}

	pub := ed25519.PublicKey(identity.PublicKey().Bytes())
	if !ed25519.Verify(pub, message, signature) {
		t.Errorf("signature does not verify against derived public key")
	}
}

func TestParsePublicKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SystemProgram", SystemProgramAddress, false},
		{"Empty", "", true},
		{"WrongLength", base58.Encode(make([]byte, 16)), true},
		{"NotBase58", "0OIl+/=", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pk, err := ParsePublicKey(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParsePublicKey() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && pk.String() != tt.input {
				t.Errorf("String() = %v, want %v", pk.String(), tt.input)
			}
		})
	}
}
