package config

import (
	"fmt"
	"math/big"
	"strings"

	"casechain/native/reward"
	"casechain/native/token"
)

var (
	unitRat = new(big.Rat).SetInt(token.Unit)
	// one percent expressed in rate precision
	percentRat = new(big.Rat).SetFrac(new(big.Int).SetUint64(reward.RatePrecision), big.NewInt(100))
)

// ParseAmount converts a decimal CASE amount into base units. Fractions finer
// than one base unit are rejected rather than rounded.
func ParseAmount(raw string) (*big.Int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return big.NewInt(0), nil
	}
	value, ok := new(big.Rat).SetString(raw)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("negative amount %q", raw)
	}
	value.Mul(value, unitRat)
	if !value.IsInt() {
		return nil, fmt.Errorf("amount %q has more than %d decimals", raw, token.Decimals)
	}
	return new(big.Int).Set(value.Num()), nil
}

// parseRate converts a decimal percentage into an 18-digit fixed-point rate.
func parseRate(raw string) (uint64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	value, ok := new(big.Rat).SetString(raw)
	if !ok {
		return 0, fmt.Errorf("invalid rate %q", raw)
	}
	if value.Sign() < 0 {
		return 0, fmt.Errorf("negative rate %q", raw)
	}
	value.Mul(value, percentRat)
	if !value.IsInt() {
		return 0, fmt.Errorf("rate %q is finer than 1e-16%%", raw)
	}
	if !value.Num().IsUint64() || value.Num().Uint64() > reward.RatePrecision {
		return 0, fmt.Errorf("rate %q exceeds 100%%", raw)
	}
	return value.Num().Uint64(), nil
}

func parseAmounts(field string, raws []string) ([]*big.Int, error) {
	out := make([]*big.Int, 0, len(raws))
	for i, raw := range raws {
		amount, err := ParseAmount(raw)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", field, i, err)
		}
		out = append(out, amount)
	}
	return out, nil
}

// FormatAmount renders base units as a decimal CASE amount.
func FormatAmount(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return trimDecimal(new(big.Rat).SetFrac(amount, token.Unit).FloatString(int(token.Decimals)))
}

func formatRate(rate uint64) string {
	value := new(big.Rat).SetInt(new(big.Int).SetUint64(rate))
	value.Quo(value, percentRat)
	return trimDecimal(value.FloatString(16))
}

func trimDecimal(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
