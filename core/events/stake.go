package events

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"casechain/core/types"
)

const (
	// TypeStakeOpened is emitted when principal is escrowed and interest minted into custody.
	TypeStakeOpened = "stake.opened"
	// TypeStakeWithdrawn is emitted when a matured stake pays out principal plus interest.
	TypeStakeWithdrawn = "stake.withdrawn"
	// TypeMintCapSkipped signals that a reward mint was dropped because it would exceed the configured cap.
	TypeMintCapSkipped = "mint.capSkipped"
)

// StakeOpened captures a newly appended stake record.
type StakeOpened struct {
	Owner     common.Address
	Index     uint64
	Principal *big.Int
	Days      uint64
	Interest  *big.Int
	Referrer  common.Address
	MaturesAt int64
}

// EventType satisfies the Event interface.
func (StakeOpened) EventType() string { return TypeStakeOpened }

// Event converts the structured payload into a broadcastable event.
func (e StakeOpened) Event() *types.Event {
	attrs := map[string]string{
		"account":   formatAddress(e.Owner),
		"index":     formatUint(e.Index),
		"principal": formatAmount(e.Principal),
		"days":      formatUint(e.Days),
		"interest":  formatAmount(e.Interest),
		"maturesAt": strconv.FormatInt(e.MaturesAt, 10),
	}
	if !zeroAddress(e.Referrer) {
		attrs["referrer"] = formatAddress(e.Referrer)
	}
	return &types.Event{Type: TypeStakeOpened, Attributes: attrs}
}

// StakeWithdrawn captures the payout of a matured stake.
type StakeWithdrawn struct {
	Owner     common.Address
	Index     uint64
	Principal *big.Int
	Interest  *big.Int
}

// EventType satisfies the Event interface.
func (StakeWithdrawn) EventType() string { return TypeStakeWithdrawn }

// Event converts the structured payload into a broadcastable event.
func (e StakeWithdrawn) Event() *types.Event {
	payout := new(big.Int)
	if e.Principal != nil {
		payout.Add(payout, e.Principal)
	}
	if e.Interest != nil {
		payout.Add(payout, e.Interest)
	}
	return &types.Event{Type: TypeStakeWithdrawn, Attributes: map[string]string{
		"account":   formatAddress(e.Owner),
		"index":     formatUint(e.Index),
		"principal": formatAmount(e.Principal),
		"interest":  formatAmount(e.Interest),
		"payout":    payout.String(),
	}}
}

// MintCapSkipped records a mint that was not performed because of the cap.
type MintCapSkipped struct {
	Recipient common.Address
	Amount    *big.Int
	Source    string
}

// EventType satisfies the Event interface.
func (MintCapSkipped) EventType() string { return TypeMintCapSkipped }

// Event converts the structured payload into a broadcastable event.
func (e MintCapSkipped) Event() *types.Event {
	return &types.Event{Type: TypeMintCapSkipped, Attributes: map[string]string{
		"account": formatAddress(e.Recipient),
		"amount":  formatAmount(e.Amount),
		"source":  e.Source,
	}}
}
