package staking

import (
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// SecondsPerDay converts lock durations to the unix clock used for maturity.
const SecondsPerDay int64 = 24 * 60 * 60

// Stake is a locked principal position. Records are append-only per owner;
// only Withdrawn ever changes after creation.
type Stake struct {
	Owner     common.Address `json:"owner"`
	Index     uint64         `json:"index"`
	Principal *big.Int       `json:"principal"`
	Days      uint64         `json:"days"`
	CreatedAt int64          `json:"createdAt"`
	Withdrawn bool           `json:"withdrawn"`
	// Interest is the amount minted into custody when the stake opened. It is
	// what Withdraw releases, whatever the curve says today.
	Interest *big.Int `json:"interest"`
}

// MaturesAt returns the unix timestamp from which the stake can be withdrawn.
// Durations past the end of the int64 clock saturate to math.MaxInt64.
func (s *Stake) MaturesAt() int64 {
	if s == nil {
		return 0
	}
	headroom := uint64(math.MaxInt64)
	if s.CreatedAt > 0 {
		headroom -= uint64(s.CreatedAt)
	}
	if s.Days > headroom/uint64(SecondsPerDay) {
		return math.MaxInt64
	}
	return s.CreatedAt + int64(s.Days)*SecondsPerDay
}

// Matured reports whether the stake can be withdrawn at now.
func (s *Stake) Matured(now int64) bool {
	return s != nil && now >= s.MaturesAt()
}

// Clone returns a deep copy of the record.
func (s *Stake) Clone() *Stake {
	if s == nil {
		return nil
	}
	clone := *s
	if s.Principal != nil {
		clone.Principal = new(big.Int).Set(s.Principal)
	}
	if s.Interest != nil {
		clone.Interest = new(big.Int).Set(s.Interest)
	}
	return &clone
}

// Receipt summarises a successful Stake call.
type Receipt struct {
	Index     uint64   `json:"index"`
	Principal *big.Int `json:"principal"`
	Days      uint64   `json:"days"`
	Interest  *big.Int `json:"interest"`
	MaturesAt int64    `json:"maturesAt"`
}

// Payout summarises a successful Withdraw call.
type Payout struct {
	Index     uint64   `json:"index"`
	Principal *big.Int `json:"principal"`
	Interest  *big.Int `json:"interest"`
	Total     *big.Int `json:"total"`
}
