package crypto

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestAddressRoundTrip(t *testing.T) {
	addr := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	encoded := FormatAddress(addr)
	if !strings.HasPrefix(encoded, CasePrefix+"1") {
		t.Fatalf("expected case1 prefix, got %s", encoded)
	}
	parsed, err := ParseAddress(encoded)
	if err != nil {
		t.Fatalf("parse bech32: %v", err)
	}
	if parsed != addr {
		t.Fatalf("expected %s, got %s", addr.Hex(), parsed.Hex())
	}
	parsed, err = ParseAddress(addr.Hex())
	if err != nil || parsed != addr {
		t.Fatalf("parse hex: %v %s", err, parsed.Hex())
	}
}

func TestParseAddressRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "0x1234", "nhb1qqqqqq", "not-an-address"} {
		if _, err := ParseAddress(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
	if FormatAddress(common.Address{}) != "" {
		t.Fatalf("zero address must render empty")
	}
}

func TestGeneratedKeyAddress(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	restored, err := PrivateKeyFromBytes(key.Bytes())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.Address() != key.Address() {
		t.Fatalf("address mismatch after restore")
	}
}
