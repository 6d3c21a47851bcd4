package staking

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// Precision is the fixed-point scale used for interest rates (18 digits).
const Precision uint64 = 1_000_000_000_000_000_000

// InterestParams shapes the interest curve. Rates carry 18 digits of
// precision; amounts are CASE base units (8 decimals).
type InterestParams struct {
	// DailyBaseReward is the linear per-day rate.
	DailyBaseReward uint64 `toml:"DailyBaseReward"`
	// DailyGrowingReward grows the per-day rate with every additional day.
	DailyGrowingReward uint64 `toml:"DailyGrowingReward"`
	// BiggerBonusDivisor scales the yearly size bonus with the principal.
	BiggerBonusDivisor uint64 `toml:"BiggerBonusDivisor"`
	// MaxBiggerBonus caps the yearly size bonus.
	MaxBiggerBonus uint64 `toml:"MaxBiggerBonus"`
	YearInDays     uint64 `toml:"YearInDays"`
}

// DefaultInterestParams returns the production curve.
func DefaultInterestParams() InterestParams {
	return InterestParams{
		DailyBaseReward:    15 * 100_000_000_000_000, // 0.15% per day
		DailyGrowingReward: 1_000_000_000_000,        // +0.0001% per day
		BiggerBonusDivisor: 1_000_000_000_000_000,    // 10M CASE for the full bonus
		MaxBiggerBonus:     100_000_000_000_000_000,  // 10% per year
		YearInDays:         365,
	}
}

// Validate performs static validation of the parameters.
func (p InterestParams) Validate() error {
	if p.BiggerBonusDivisor == 0 {
		return fmt.Errorf("BiggerBonusDivisor must be positive")
	}
	if p.YearInDays == 0 {
		return fmt.Errorf("YearInDays must be positive")
	}
	return nil
}

// Interest returns the interest earned by locking principal for days. Every
// multiplication is followed by a floor division, so the result never
// exceeds the exact value.
func (p InterestParams) Interest(principal *big.Int, days uint64) (*big.Int, error) {
	if principal == nil || principal.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if days == 0 || principal.Sign() == 0 {
		return big.NewInt(0), nil
	}
	amount, overflow := uint256.FromBig(principal)
	if overflow {
		return nil, fmt.Errorf("%w: principal overflows 256 bits", ErrInvalidAmount)
	}
	precision := uint256.NewInt(Precision)
	d := uint256.NewInt(days)

	// yearly size bonus, capped, then prorated to the stake duration
	bigger, overflow := new(uint256.Int).MulOverflow(amount, precision)
	if overflow {
		return nil, fmt.Errorf("%w: principal too large", ErrInvalidAmount)
	}
	bigger.Div(bigger, uint256.NewInt(p.BiggerBonusDivisor))
	if maxBonus := uint256.NewInt(p.MaxBiggerBonus); bigger.Gt(maxBonus) {
		bigger.Set(maxBonus)
	}
	bigger.Mul(bigger, d)
	bigger.Div(bigger, uint256.NewInt(p.YearInDays))

	// duration bonus: base*days + growing*days*(days+1)/2
	longer := new(uint256.Int).Mul(uint256.NewInt(p.DailyBaseReward), d)
	growing := new(uint256.Int).Mul(uint256.NewInt(p.DailyGrowingReward), d)
	growing.Mul(growing, new(uint256.Int).AddUint64(d, 1))
	growing.Rsh(growing, 1)
	longer.Add(longer, growing)

	rate := new(uint256.Int).Add(bigger, longer)
	interest, overflow := new(uint256.Int).MulOverflow(amount, rate)
	if overflow {
		return nil, fmt.Errorf("%w: interest overflows 256 bits", ErrInvalidAmount)
	}
	interest.Div(interest, precision)
	return interest.ToBig(), nil
}
