package reward

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"casechain/core/events"
)

// CareerValue returns the accumulated commission income of addr.
func (e *Engine) CareerValue(addr common.Address) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.state.RewardCareerValue(addr)
}

// CvRankOf maps career value onto the threshold table: the result is the
// number of thresholds the value has reached.
func (e *Engine) CvRankOf(addr common.Address) (uint64, error) {
	cv, err := e.CareerValue(addr)
	if err != nil {
		return 0, err
	}
	return e.params.cvTier(cv), nil
}

func (p Params) cvTier(cv *big.Int) uint64 {
	var tier uint64
	for _, threshold := range p.CvThresholds {
		if cv.Cmp(threshold) < 0 {
			break
		}
		tier++
	}
	return tier
}

// RankOf returns the staged rank of addr.
func (e *Engine) RankOf(addr common.Address) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	return e.state.RewardRank(addr)
}

// RankEligibility reports the rank addr would enter next and the error RankUp
// would fail with, without changing state.
func (e *Engine) RankEligibility(addr common.Address) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	rank, err := e.state.RewardRank(addr)
	if err != nil {
		return 0, err
	}
	target := rank + 1
	tier, err := e.CvRankOf(addr)
	if err != nil {
		return target, err
	}
	if tier < target {
		return target, ErrCareerValueInsufficient
	}
	if target > 1 {
		qualified, err := e.qualifiedDownline(addr, target-1)
		if err != nil {
			return target, err
		}
		if qualified < e.params.DownlineRequirement {
			return target, ErrDownlineQualificationUnmet
		}
	}
	return target, nil
}

func (e *Engine) qualifiedDownline(addr common.Address, minRank uint64) (uint64, error) {
	referrals, err := e.state.RewardReferrals(addr)
	if err != nil {
		return 0, err
	}
	var qualified uint64
	for _, referral := range referrals {
		rank, err := e.state.RewardRank(referral)
		if err != nil {
			return 0, err
		}
		if rank >= minRank {
			qualified++
		}
	}
	return qualified, nil
}

// RankUp advances addr by exactly one rank and pays the one-time reward for
// the rank entered.
func (e *Engine) RankUp(addr common.Address) (uint64, *big.Int, error) {
	if addr == (common.Address{}) {
		return 0, nil, ErrZeroAddress
	}
	target, err := e.RankEligibility(addr)
	if err != nil {
		return 0, nil, err
	}
	if err := e.state.SetRewardRank(addr, target); err != nil {
		return 0, nil, err
	}
	reward := e.params.rankReward(target)
	if reward.Sign() > 0 {
		paid, err := e.mint(addr, reward, "rank")
		if err != nil {
			return 0, nil, err
		}
		if !paid {
			reward = big.NewInt(0)
		}
	}
	e.emit(events.RankAdvanced{Account: addr, From: target - 1, To: target, Reward: reward})
	return target, reward, nil
}

// IsRankBlocked reports whether err is one of the expected rank-up refusals
// rather than an infrastructure failure.
func IsRankBlocked(err error) bool {
	return errors.Is(err, ErrCareerValueInsufficient) ||
		errors.Is(err, ErrDownlineQualificationUnmet)
}
