package state

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"casechain/native/staking"
)

type storedStake struct {
	Owner     common.Address
	Index     uint64
	Principal *big.Int
	Days      uint64
	CreatedAt uint64
	Withdrawn bool
	Interest  *big.Int
}

func newStoredStake(s *staking.Stake) *storedStake {
	principal := big.NewInt(0)
	if s.Principal != nil {
		principal = new(big.Int).Set(s.Principal)
	}
	interest := big.NewInt(0)
	if s.Interest != nil {
		interest = new(big.Int).Set(s.Interest)
	}
	created := uint64(0)
	if s.CreatedAt > 0 {
		created = uint64(s.CreatedAt)
	}
	return &storedStake{
		Owner:     s.Owner,
		Index:     s.Index,
		Principal: principal,
		Days:      s.Days,
		CreatedAt: created,
		Withdrawn: s.Withdrawn,
		Interest:  interest,
	}
}

func (s *storedStake) toStake() *staking.Stake {
	principal := big.NewInt(0)
	if s.Principal != nil {
		principal = new(big.Int).Set(s.Principal)
	}
	interest := big.NewInt(0)
	if s.Interest != nil {
		interest = new(big.Int).Set(s.Interest)
	}
	return &staking.Stake{
		Owner:     s.Owner,
		Index:     s.Index,
		Principal: principal,
		Days:      s.Days,
		CreatedAt: int64(s.CreatedAt),
		Withdrawn: s.Withdrawn,
		Interest:  interest,
	}
}

// StakingStakeCount returns how many stakes owner has opened.
func (m *Manager) StakingStakeCount(owner common.Address) (uint64, error) {
	return m.getUint(addrKey(stakingCountPrefix, owner))
}

// StakingStakeGet loads the stake at index for owner.
func (m *Manager) StakingStakeGet(owner common.Address, index uint64) (*staking.Stake, bool, error) {
	var stored storedStake
	ok, err := m.getRLP(indexedKey(stakingRecordPrefix, owner, index), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return stored.toStake(), true, nil
}

// StakingStakePut stores a stake record. Writing the next free index appends
// it and bumps the owner's count; any other index must already exist.
func (m *Manager) StakingStakePut(stake *staking.Stake) error {
	if stake == nil {
		return fmt.Errorf("state: nil stake")
	}
	count, err := m.StakingStakeCount(stake.Owner)
	if err != nil {
		return err
	}
	switch {
	case stake.Index == count:
		if err := m.putUint(addrKey(stakingCountPrefix, stake.Owner), count+1); err != nil {
			return err
		}
	case stake.Index > count:
		return fmt.Errorf("state: stake index %d beyond count %d", stake.Index, count)
	}
	return m.putRLP(indexedKey(stakingRecordPrefix, stake.Owner, stake.Index), newStoredStake(stake))
}

// StakingRewardModule returns the reward module recorded by Init, or the zero
// address before initialisation.
func (m *Manager) StakingRewardModule() (common.Address, error) {
	data, err := m.get(stakingRewardModuleKey)
	if err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(data), nil
}

// SetStakingRewardModule records the reward module address.
func (m *Manager) SetStakingRewardModule(addr common.Address) error {
	return m.put(stakingRewardModuleKey, addr.Bytes())
}
