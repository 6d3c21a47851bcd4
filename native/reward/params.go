package reward

import (
	"fmt"
	"math/big"
)

// RatePrecision scales commission rates: 1e18 is 100%.
const RatePrecision uint64 = 1_000_000_000_000_000_000

// MaxLevels is the depth of the ancestor fan-out.
const MaxLevels = 8

var caseUnit = big.NewInt(100_000_000)

func cases(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), caseUnit)
}

// Params configures the commission distributor and the rank engine.
type Params struct {
	// ReferredBonusRate credits a referred staker with a share of their own
	// interest.
	ReferredBonusRate uint64
	// LevelRates holds one rate per ancestor level, nearest first.
	LevelRates [MaxLevels]uint64
	// CvThresholds is the ascending career value table behind CvRankOf.
	CvThresholds []*big.Int
	// RankRewards is paid once when entering rank i+1. Missing entries pay
	// nothing.
	RankRewards []*big.Int
	// DownlineRequirement is the number of direct referrals that must hold
	// the previous rank before an address enters rank 2 or above.
	DownlineRequirement uint64
	// MintCap bounds the aggregate mint counter when positive.
	MintCap *big.Int
}

// DefaultParams returns the production schedule.
func DefaultParams() Params {
	return Params{
		ReferredBonusRate: 30_000_000_000_000_000, // 3%
		LevelRates: [MaxLevels]uint64{
			80_000_000_000_000_000, // 8%
			50_000_000_000_000_000, // 5%
			25_000_000_000_000_000, // 2.5%
			15_000_000_000_000_000,
			10_000_000_000_000_000,
			7_500_000_000_000_000,
			5_000_000_000_000_000,
			2_500_000_000_000_000,
		},
		CvThresholds: []*big.Int{
			cases(1_000),
			cases(10_000),
			cases(50_000),
			cases(100_000),
			cases(250_000),
		},
		RankRewards: []*big.Int{
			cases(1_000),
			cases(5_000),
		},
		DownlineRequirement: 2,
	}
}

// Validate performs static validation of the parameters.
func (p Params) Validate() error {
	if p.ReferredBonusRate > RatePrecision {
		return fmt.Errorf("referred bonus rate exceeds 100%%")
	}
	total := p.ReferredBonusRate
	for i, rate := range p.LevelRates {
		if rate > RatePrecision {
			return fmt.Errorf("level %d rate exceeds 100%%", i+1)
		}
		total += rate
	}
	if total > RatePrecision {
		return fmt.Errorf("commission rates exceed 100%% of interest")
	}
	for i, threshold := range p.CvThresholds {
		if threshold == nil || threshold.Sign() <= 0 {
			return fmt.Errorf("cv threshold %d must be positive", i+1)
		}
		if i > 0 && threshold.Cmp(p.CvThresholds[i-1]) <= 0 {
			return fmt.Errorf("cv thresholds must be strictly ascending")
		}
	}
	for i, reward := range p.RankRewards {
		if reward != nil && reward.Sign() < 0 {
			return fmt.Errorf("rank reward %d must not be negative", i+1)
		}
	}
	if p.MintCap != nil && p.MintCap.Sign() < 0 {
		return fmt.Errorf("mint cap must not be negative")
	}
	return nil
}

// rankReward returns the reward for entering rank, or zero when unset.
func (p Params) rankReward(rank uint64) *big.Int {
	if rank == 0 || rank > uint64(len(p.RankRewards)) || p.RankRewards[rank-1] == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(p.RankRewards[rank-1])
}

func applyRate(amount *big.Int, rate uint64) *big.Int {
	out := new(big.Int).Mul(amount, new(big.Int).SetUint64(rate))
	return out.Quo(out, new(big.Int).SetUint64(RatePrecision))
}
