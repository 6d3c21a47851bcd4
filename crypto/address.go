package crypto

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// CasePrefix is the human-readable part used for bech32 encoded addresses.
const CasePrefix = "case"

// FormatAddress renders a 20-byte address using the bech32 "case" prefix.
// The zero address renders as an empty string.
func FormatAddress(addr common.Address) string {
	if addr == (common.Address{}) {
		return ""
	}
	conv, err := bech32.ConvertBits(addr.Bytes(), 8, 5, true)
	if err != nil {
		panic(err)
	}
	encoded, err := bech32.Encode(CasePrefix, conv)
	if err != nil {
		panic(err)
	}
	return encoded
}

// ParseAddress accepts either a bech32 "case1..." string or a 0x-prefixed
// hex address.
func ParseAddress(raw string) (common.Address, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return common.Address{}, fmt.Errorf("address required")
	}
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		if !common.IsHexAddress(trimmed) {
			return common.Address{}, fmt.Errorf("invalid hex address %q", trimmed)
		}
		return common.HexToAddress(trimmed), nil
	}
	prefix, decoded, err := bech32.Decode(trimmed)
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid bech32 string: %w", err)
	}
	if prefix != CasePrefix {
		return common.Address{}, fmt.Errorf("unexpected address prefix %q", prefix)
	}
	conv, err := bech32.ConvertBits(decoded, 5, 8, false)
	if err != nil {
		return common.Address{}, fmt.Errorf("error converting bits: %w", err)
	}
	if len(conv) != common.AddressLength {
		return common.Address{}, fmt.Errorf("address must be %d bytes long", common.AddressLength)
	}
	return common.BytesToAddress(conv), nil
}

// MustParseAddress is ParseAddress for static inputs.
func MustParseAddress(raw string) common.Address {
	addr, err := ParseAddress(raw)
	if err != nil {
		panic(err)
	}
	return addr
}

// --- Key Management ---

type PrivateKey struct {
	*ecdsa.PrivateKey
}

func GeneratePrivateKey() (*PrivateKey, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

// Bytes returns the byte representation of the private key.
func (k *PrivateKey) Bytes() []byte {
	return crypto.FromECDSA(k.PrivateKey)
}

// Address derives the account address controlled by the key.
func (k *PrivateKey) Address() common.Address {
	return crypto.PubkeyToAddress(k.PrivateKey.PublicKey)
}

func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	key, err := crypto.ToECDSA(b)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}
