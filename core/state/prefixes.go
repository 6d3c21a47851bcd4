package state

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
)

var (
	tokenBalancePrefix   = []byte("token/balance/")
	tokenAllowancePrefix = []byte("token/allowance/")
	tokenMinterPrefix    = []byte("token/minter/")
	tokenSupplyKeyBytes  = []byte("token/supply")

	mintedTokensKeyBytes = []byte("mint/total")
	eventSequenceKey     = []byte("events/sequence")

	stakingCountPrefix     = []byte("staking/count/")
	stakingRecordPrefix    = []byte("staking/record/")
	stakingRewardModuleKey = []byte("staking/reward-module")

	rewardRegisteredPrefix = []byte("reward/registered/")
	rewardReferrerPrefix   = []byte("reward/referrer/")
	rewardReferralsPrefix  = []byte("reward/referrals/")
	rewardCareerPrefix     = []byte("reward/cv/")
	rewardRankPrefix       = []byte("reward/rank/")
	rewardUserCountKey     = []byte("reward/users/count")
	rewardUserPrefix       = []byte("reward/users/")
)

func indexBytes(i uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], i)
	return buf[:]
}

func addrKey(prefix []byte, addr common.Address) []byte {
	return kvKey(prefix, addr.Bytes())
}

func pairKey(prefix []byte, a, b common.Address) []byte {
	return kvKey(prefix, a.Bytes(), b.Bytes())
}

func indexedKey(prefix []byte, addr common.Address, i uint64) []byte {
	return kvKey(prefix, addr.Bytes(), []byte{'/'}, indexBytes(i))
}
