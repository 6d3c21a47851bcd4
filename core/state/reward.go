package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// RewardRegistered reports whether addr has joined the referral forest.
func (m *Manager) RewardRegistered(addr common.Address) (bool, error) {
	var registered bool
	if _, err := m.getRLP(addrKey(rewardRegisteredPrefix, addr), &registered); err != nil {
		return false, err
	}
	return registered, nil
}

// RegisterRewardUser marks addr registered and appends it to the user index.
// Registering twice is a no-op.
func (m *Manager) RegisterRewardUser(addr common.Address) error {
	registered, err := m.RewardRegistered(addr)
	if err != nil || registered {
		return err
	}
	if err := m.putRLP(addrKey(rewardRegisteredPrefix, addr), true); err != nil {
		return err
	}
	count, err := m.getUint(rewardUserCountKey)
	if err != nil {
		return err
	}
	if err := m.put(kvKey(rewardUserPrefix, indexBytes(count)), addr.Bytes()); err != nil {
		return err
	}
	return m.putUint(rewardUserCountKey, count+1)
}

// RewardUserCount returns the number of registered participants.
func (m *Manager) RewardUserCount() (uint64, error) {
	return m.getUint(rewardUserCountKey)
}

// RewardUserAt returns the i-th registered participant in registration order.
func (m *Manager) RewardUserAt(i uint64) (common.Address, error) {
	data, err := m.get(kvKey(rewardUserPrefix, indexBytes(i)))
	if err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(data), nil
}

// RewardReferrer returns the recorded referrer of addr; zero for roots and
// unregistered accounts.
func (m *Manager) RewardReferrer(addr common.Address) (common.Address, error) {
	data, err := m.get(addrKey(rewardReferrerPrefix, addr))
	if err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(data), nil
}

// SetRewardReferrer records the referrer edge for referred and appends referred
// to the referrer's direct referral list.
func (m *Manager) SetRewardReferrer(referred, referrer common.Address) error {
	if err := m.put(addrKey(rewardReferrerPrefix, referred), referrer.Bytes()); err != nil {
		return err
	}
	countKey := kvKey(rewardReferralsPrefix, referrer.Bytes(), []byte("/count"))
	count, err := m.getUint(countKey)
	if err != nil {
		return err
	}
	if err := m.put(indexedKey(rewardReferralsPrefix, referrer, count), referred.Bytes()); err != nil {
		return err
	}
	return m.putUint(countKey, count+1)
}

// RewardReferrals returns the direct referrals of addr in registration order.
func (m *Manager) RewardReferrals(addr common.Address) ([]common.Address, error) {
	count, err := m.getUint(kvKey(rewardReferralsPrefix, addr.Bytes(), []byte("/count")))
	if err != nil {
		return nil, err
	}
	out := make([]common.Address, 0, count)
	for i := uint64(0); i < count; i++ {
		data, err := m.get(indexedKey(rewardReferralsPrefix, addr, i))
		if err != nil {
			return nil, err
		}
		out = append(out, common.BytesToAddress(data))
	}
	return out, nil
}

// RewardCareerValue returns the accumulated career value of addr.
func (m *Manager) RewardCareerValue(addr common.Address) (*big.Int, error) {
	return m.getBig(addrKey(rewardCareerPrefix, addr))
}

// SetRewardCareerValue overwrites the career value of addr.
func (m *Manager) SetRewardCareerValue(addr common.Address, amount *big.Int) error {
	return m.putBig(addrKey(rewardCareerPrefix, addr), amount)
}

// RewardRank returns the staged rank of addr.
func (m *Manager) RewardRank(addr common.Address) (uint64, error) {
	return m.getUint(addrKey(rewardRankPrefix, addr))
}

// SetRewardRank overwrites the staged rank of addr.
func (m *Manager) SetRewardRank(addr common.Address, rank uint64) error {
	return m.putUint(addrKey(rewardRankPrefix, addr), rank)
}
