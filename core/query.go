package core

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"casechain/native/staking"
)

// AccountSummary aggregates everything the engine knows about one address.
type AccountSummary struct {
	Address     common.Address   `json:"address"`
	Balance     *big.Int         `json:"balance"`
	Referrer    common.Address   `json:"referrer"`
	Registered  bool             `json:"registered"`
	Referrals   []common.Address `json:"referrals"`
	CareerValue *big.Int         `json:"careerValue"`
	CvRank      uint64           `json:"cvRank"`
	Rank        uint64           `json:"rank"`
	Stakes      []*staking.Stake `json:"stakes"`
}

// InterestAmount previews the interest for a prospective stake.
func (e *Engine) InterestAmount(amount *big.Int, days uint64) (*big.Int, error) {
	return e.cfg.Staking.Interest.Interest(amount, days)
}

// MintedTokens returns the aggregate amount minted as interest, commissions
// and rank rewards.
func (e *Engine) MintedTokens() (*big.Int, error) {
	var out *big.Int
	err := e.view(func(s *session) error {
		var err error
		out, err = s.staking.MintedTokens()
		return err
	})
	return out, err
}

// CaseToken returns the address of the ledger in use.
func (e *Engine) CaseToken() common.Address { return e.cfg.TokenAddress }

// Initialized reports whether Init has run.
func (e *Engine) Initialized() (bool, error) {
	var out bool
	err := e.view(func(s *session) error {
		var err error
		out, err = s.staking.Initialized()
		return err
	})
	return out, err
}

func (e *Engine) ReferrerOf(addr common.Address) (common.Address, error) {
	var out common.Address
	err := e.view(func(s *session) error {
		var err error
		out, err = s.reward.ReferrerOf(addr)
		return err
	})
	return out, err
}

func (e *Engine) CanRefer(referred, referrer common.Address) (bool, error) {
	var out bool
	err := e.view(func(s *session) error {
		var err error
		out, err = s.reward.CanRefer(referred, referrer)
		return err
	})
	return out, err
}

func (e *Engine) Referrals(addr common.Address) ([]common.Address, error) {
	var out []common.Address
	err := e.view(func(s *session) error {
		var err error
		out, err = s.reward.Referrals(addr)
		return err
	})
	return out, err
}

func (e *Engine) CareerValue(addr common.Address) (*big.Int, error) {
	var out *big.Int
	err := e.view(func(s *session) error {
		var err error
		out, err = s.reward.CareerValue(addr)
		return err
	})
	return out, err
}

func (e *Engine) CvRankOf(addr common.Address) (uint64, error) {
	var out uint64
	err := e.view(func(s *session) error {
		var err error
		out, err = s.reward.CvRankOf(addr)
		return err
	})
	return out, err
}

func (e *Engine) RankOf(addr common.Address) (uint64, error) {
	var out uint64
	err := e.view(func(s *session) error {
		var err error
		out, err = s.reward.RankOf(addr)
		return err
	})
	return out, err
}

// RankEligibility returns the next rank for addr and the reason RankUp would
// refuse it, if any.
func (e *Engine) RankEligibility(addr common.Address) (uint64, error) {
	var next uint64
	var blocker error
	err := e.view(func(s *session) error {
		next, blocker = s.reward.RankEligibility(addr)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return next, blocker
}

func (e *Engine) Stakes(owner common.Address) ([]*staking.Stake, error) {
	var out []*staking.Stake
	err := e.view(func(s *session) error {
		var err error
		out, err = s.staking.Stakes(owner)
		return err
	})
	return out, err
}

func (e *Engine) StakeAt(owner common.Address, index uint64) (*staking.Stake, error) {
	var out *staking.Stake
	err := e.view(func(s *session) error {
		var err error
		out, err = s.staking.StakeAt(owner, index)
		return err
	})
	return out, err
}

func (e *Engine) BalanceOf(addr common.Address) (*big.Int, error) {
	var out *big.Int
	err := e.view(func(s *session) error {
		var err error
		out, err = s.token.BalanceOf(addr)
		return err
	})
	return out, err
}

func (e *Engine) Allowance(owner, spender common.Address) (*big.Int, error) {
	var out *big.Int
	err := e.view(func(s *session) error {
		var err error
		out, err = s.token.Allowance(owner, spender)
		return err
	})
	return out, err
}

func (e *Engine) TotalSupply() (*big.Int, error) {
	var out *big.Int
	err := e.view(func(s *session) error {
		var err error
		out, err = s.token.TotalSupply()
		return err
	})
	return out, err
}

func (e *Engine) IsMinter(addr common.Address) (bool, error) {
	var out bool
	err := e.view(func(s *session) error {
		var err error
		out, err = s.token.IsMinter(addr)
		return err
	})
	return out, err
}

// Account returns a consistent snapshot of addr's balance, referral position,
// ranks and stakes.
func (e *Engine) Account(addr common.Address) (*AccountSummary, error) {
	summary := &AccountSummary{Address: addr}
	err := e.view(func(s *session) error {
		var err error
		if summary.Balance, err = s.token.BalanceOf(addr); err != nil {
			return err
		}
		if summary.Registered, err = s.reward.Registered(addr); err != nil {
			return err
		}
		if summary.Referrer, err = s.reward.ReferrerOf(addr); err != nil {
			return err
		}
		if summary.Referrals, err = s.reward.Referrals(addr); err != nil {
			return err
		}
		if summary.CareerValue, err = s.reward.CareerValue(addr); err != nil {
			return err
		}
		if summary.CvRank, err = s.reward.CvRankOf(addr); err != nil {
			return err
		}
		if summary.Rank, err = s.reward.RankOf(addr); err != nil {
			return err
		}
		summary.Stakes, err = s.staking.Stakes(addr)
		return err
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}
